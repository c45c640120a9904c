// Package proxy provides a transparent streaming proxy for chat-completion
// backends that publishes telemetry events after each completed request.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/NICxKMS/chatcore/pkg/eventstream"
	"github.com/NICxKMS/chatcore/pkg/stream"
	"github.com/NICxKMS/chatcore/proxy/header"
	"github.com/NICxKMS/chatcore/proxy/worker"
)

const (
	providerOpenAI     = "openai"
	providerAnthropic  = "anthropic"
	providerOpenRouter = "openrouter"
)

// Proxy is a transparent chat-completion proxy: it forwards requests to the
// upstream backend unchanged, relays streamed responses chunk by chunk, and
// enqueues a telemetry event for async publishing once each request completes.
type Proxy struct {
	config        Config
	workerPool    *worker.Pool
	logger        *slog.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler
}

// New creates a new Proxy.
// The publisher is injected to handle async delivery of telemetry events.
func New(config Config, publisher eventstream.Publisher, logger *slog.Logger) (*Proxy, error) {
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}
	if config.Provider == "" {
		config.Provider = providerOpenAI
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	p := &Proxy{
		config:        config,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// LLM requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		},
	}

	// Register transparent proxy route - forwards any path to upstream
	app.All("/*", p.handleProxy)

	return p, nil
}

// Run starts the proxy server on the configured listening address.
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server",
		"listen", p.config.ListenAddr,
		"upstream", p.config.UpstreamURL,
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the proxy server using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting proxy server",
		"listen", listener.Addr().String(),
		"upstream", p.config.UpstreamURL,
	)

	return p.server.Listener(listener)
}

// Close gracefully shuts down the proxy and waits for the worker pool to drain
func (p *Proxy) Close() error {
	err := p.server.Shutdown()
	p.workerPool.Close()
	return err
}

// chatRequestMeta is what the proxy needs to know about an inbound chat
// request: nothing more is parsed from the body.
type chatRequestMeta struct {
	Model  string `json:"model"`
	Stream *bool  `json:"stream"`
}

// handleProxy is a transparent proxy handler that forwards requests to
// upstream and publishes telemetry for chat completions.
func (p *Proxy) handleProxy(c *fiber.Ctx) error {
	startTime := time.Now()
	path := c.Path()
	method := c.Method()
	body := c.Body()

	isChatRequest := method == http.MethodPost && len(body) > 0

	var meta chatRequestMeta
	if isChatRequest {
		if err := json.Unmarshal(body, &meta); err != nil {
			p.logger.Warn("failed to parse request body",
				"error", err,
				"path", path,
			)
			isChatRequest = false
		}
	}

	streaming := isChatRequest && meta.Stream != nil && *meta.Stream

	if streaming {
		return p.handleStreamingProxy(c, path, body, meta.Model, startTime)
	}

	return p.handleNonStreamingProxy(c, path, method, body, meta.Model, isChatRequest, startTime)
}

// handleNonStreamingProxy handles non-streaming requests.
func (p *Proxy) handleNonStreamingProxy(c *fiber.Ctx, path, method string, body []byte, model string, isChatRequest bool, startTime time.Time) error {
	upstreamURL := p.config.UpstreamURL + path

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(c.Context(), method, upstreamURL, reqBody)
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	p.logger.Debug("forwarding request to upstream",
		"method", method,
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to read upstream response"})
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	if isChatRequest && httpResp.StatusCode == http.StatusOK {
		usage, respModel := p.extractResponseUsage(respBody)
		if respModel != "" {
			model = respModel
		}

		completed := time.Now()
		event := eventstream.NewStreamCompletedEvent(
			eventstream.EventSource{
				Project:  p.config.Project,
				Provider: p.config.Provider,
				Model:    model,
			},
			eventstream.RequestMeta{
				Path:        path,
				StartedAt:   startTime,
				CompletedAt: completed,
				DurationMs:  completed.Sub(startTime).Milliseconds(),
				Streaming:   false,
				HTTPStatus:  httpResp.StatusCode,
			},
			eventstream.StreamMeta{},
			usage,
		)
		p.workerPool.Enqueue(worker.Job{Event: event})
	}

	// Return response to client immediately
	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleStreamingProxy handles streaming requests.
func (p *Proxy) handleStreamingProxy(c *fiber.Ctx, path string, body []byte, model string, startTime time.Time) error {
	upstreamURL := p.config.UpstreamURL + path

	// Use context.Background() instead of c.Context() because fasthttp
	// recycles its RequestCtx after the handler returns, but the relay
	// goroutine runs asynchronously and needs the upstream connection
	// to remain open.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	p.logger.Debug("forwarding streaming request to upstream",
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream request failed"})
	}
	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		p.logger.Error("upstream returned error",
			"status", httpResp.StatusCode,
			"body", string(respBody),
		)
		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Use io.Pipe + SetBodyStream: pw.Write blocks until fasthttp's
	// chunked body writer consumes the data and flushes it to the TCP
	// socket, which gives direct backpressure and true per-chunk
	// streaming instead of buffering the whole response in memory.
	pr, pw := io.Pipe()
	go p.relayStream(httpResp, pw, path, model, startTime)

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// relayStream copies the upstream response to the pipe writer chunk by
// chunk. SSE responses are additionally fed through a stream.Decoder for
// telemetry accumulation; anything else is passed through untouched.
func (p *Proxy) relayStream(httpResp *http.Response, pw *io.PipeWriter, path, model string, startTime time.Time) {
	defer httpResp.Body.Close()
	defer pw.Close()

	if ct := httpResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		if _, err := io.Copy(pw, httpResp.Body); err != nil {
			p.logger.Error("error relaying response body", "error", err)
		}
		return
	}

	decoder := stream.NewDecoder(stream.WithCarryover(true))

	// Drain decoded batches off the relay hot path. The channel closes
	// once the decoder has flushed everything submitted before Close.
	statsCh := make(chan eventstream.StreamMeta, 1)
	go func() {
		var meta eventstream.StreamMeta
		for batch := range decoder.Events() {
			for _, ev := range batch {
				meta.EventCount++
				switch ev.Kind {
				case stream.KindContent:
					meta.ContentLength += len(ev.Content)
					meta.TokenCount += ev.TokenCount
				case stream.KindDone:
					meta.SawDone = true
				}
			}
		}
		statsCh <- meta
	}()

	var usage eventstream.Usage
	chunkCount := 0
	clientGone := false
	buf := make([]byte, 32*1024)

	for {
		n, err := httpResp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			chunkCount++

			p.extractStreamUsage(chunk, &usage)

			if derr := decoder.Decode(context.Background(), string(chunk)); derr != nil {
				p.logger.Error("error submitting chunk for decoding", "error", derr)
			}

			if !clientGone {
				if _, werr := pw.Write(chunk); werr != nil {
					// Client disconnected; keep draining upstream so the
					// telemetry event still reflects the full stream.
					p.logger.Debug("client write failed, draining upstream", "error", werr)
					clientGone = true
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.logger.Error("error reading upstream stream", "error", err)
			}
			break
		}
	}

	decoder.Close()
	meta := <-statsCh
	meta.ChunkCount = chunkCount

	completed := time.Now()
	event := eventstream.NewStreamCompletedEvent(
		eventstream.EventSource{
			Project:  p.config.Project,
			Provider: p.config.Provider,
			Model:    model,
		},
		eventstream.RequestMeta{
			Path:        path,
			StartedAt:   startTime,
			CompletedAt: completed,
			DurationMs:  completed.Sub(startTime).Milliseconds(),
			Streaming:   true,
			HTTPStatus:  http.StatusOK,
		},
		meta,
		usage,
	)
	p.workerPool.Enqueue(worker.Job{Event: event})
}

// extractStreamUsage extracts token usage from raw SSE chunk bytes.
// Anthropic splits usage across message_start (input tokens) and
// message_delta (output tokens); OpenAI and OpenRouter include usage in
// the final chunk. Extraction is best-effort: unparseable lines are skipped.
func (p *Proxy) extractStreamUsage(chunk []byte, usage *eventstream.Usage) {
	for _, line := range strings.Split(string(chunk), "\n") {
		line = strings.TrimSpace(line)
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		var chunkData map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &chunkData); err != nil {
			continue
		}

		switch p.config.Provider {
		case providerAnthropic:
			chunkType, _ := chunkData["type"].(string)
			switch chunkType {
			case "message_start":
				// message_start carries message.usage.input_tokens
				if msg, ok := chunkData["message"].(map[string]any); ok {
					if u, ok := msg["usage"].(map[string]any); ok {
						usage.PromptTokens = jsonInt(u, "input_tokens")
					}
				}
			case "message_delta":
				// message_delta carries usage.output_tokens
				if u, ok := chunkData["usage"].(map[string]any); ok {
					usage.CompletionTokens = jsonInt(u, "output_tokens")
				}
			}
		default:
			// OpenAI-compatible: usage arrives once, in the final chunk
			if u, ok := chunkData["usage"].(map[string]any); ok {
				usage.PromptTokens = jsonInt(u, "prompt_tokens")
				usage.CompletionTokens = jsonInt(u, "completion_tokens")
			}
		}
	}

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
}

// extractResponseUsage pulls usage and the model name from a non-streaming
// completion response body. Best-effort: a non-JSON body yields zero usage.
func (p *Proxy) extractResponseUsage(body []byte) (eventstream.Usage, string) {
	var usage eventstream.Usage

	var respData map[string]any
	if err := json.Unmarshal(body, &respData); err != nil {
		return usage, ""
	}

	model, _ := respData["model"].(string)

	if u, ok := respData["usage"].(map[string]any); ok {
		switch p.config.Provider {
		case providerAnthropic:
			usage.PromptTokens = jsonInt(u, "input_tokens")
			usage.CompletionTokens = jsonInt(u, "output_tokens")
		default:
			usage.PromptTokens = jsonInt(u, "prompt_tokens")
			usage.CompletionTokens = jsonInt(u, "completion_tokens")
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return usage, model
}

// jsonInt extracts an integer from a JSON map, handling float64 JSON number representation.
func jsonInt(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}
