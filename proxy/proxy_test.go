package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NICxKMS/chatcore/pkg/eventstream"
	"github.com/NICxKMS/chatcore/pkg/logger"
)

// capturePublisher records events published by the proxy's worker pool.
type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.StreamCompletedEvent
}

func (c *capturePublisher) PublishStream(_ context.Context, ev *eventstream.StreamCompletedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) published() []*eventstream.StreamCompletedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*eventstream.StreamCompletedEvent(nil), c.events...)
}

// chatTestRequest is a minimal OpenAI-format request for test fixtures.
type chatTestRequest struct {
	Model    string        `json:"model"`
	Messages []chatTestMsg `json:"messages"`
	Stream   *bool         `json:"stream,omitempty"`
}

type chatTestMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// newTestProxy creates a Proxy pointed at the given upstream URL with a
// capture publisher behind the worker pool.
func newTestProxy(upstreamURL, provider string) (*Proxy, *capturePublisher) {
	pub := &capturePublisher{}

	p, err := New(
		Config{
			ListenAddr:  ":0",
			UpstreamURL: upstreamURL,
			Provider:    provider,
		},
		pub,
		logger.Nop(),
	)
	Expect(err).NotTo(HaveOccurred())
	return p, pub
}

// makeChatRequestBody builds a JSON-encoded chat completion request.
func makeChatRequestBody(model string, messages []chatTestMsg, stream *bool) []byte {
	body, err := json.Marshal(chatTestRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	})
	Expect(err).NotTo(HaveOccurred())
	return body
}

func boolPtr(b bool) *bool { return &b }

var _ = Describe("New", func() {
	It("requires an upstream URL", func() {
		_, err := New(Config{}, &capturePublisher{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("requires a publisher", func() {
		_, err := New(Config{UpstreamURL: "http://localhost:1"}, nil, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Non-Streaming Proxy", func() {
	var (
		p        *Proxy
		pub      *capturePublisher
		upstream *httptest.Server
	)

	AfterEach(func() {
		if p != nil {
			p.Close()
			p = nil
		}
		if upstream != nil {
			upstream.Close()
			upstream = nil
		}
	})

	Context("when upstream returns a chat completion", func() {
		var gotAuth string

		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{
					"id": "chatcmpl-1",
					"model": "gpt-4o-2024-08-06",
					"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}}],
					"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
				}`)
			}))
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("forwards the request and returns the upstream response", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "Say hello"},
			}, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody)))
			req.Header.Set("Authorization", "Bearer sk-test")

			resp, err := p.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(gotAuth).To(Equal("Bearer sk-test"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`"content": "Hello!"`))
		})

		It("publishes a completion event with usage from the response", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "Say hello"},
			}, nil)

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			// Drain the worker pool so the async publish completes
			p.Close()
			p = nil

			events := pub.published()
			Expect(events).To(HaveLen(1))
			ev := events[0]
			Expect(ev.EventType).To(Equal(eventstream.EventTypeStreamCompleted))
			Expect(ev.Source.Provider).To(Equal("openai"))
			// The response model wins over the requested alias
			Expect(ev.Source.Model).To(Equal("gpt-4o-2024-08-06"))
			Expect(ev.RequestMeta.Streaming).To(BeFalse())
			Expect(ev.RequestMeta.Path).To(Equal("/v1/chat/completions"))
			Expect(ev.Usage.PromptTokens).To(Equal(12))
			Expect(ev.Usage.CompletionTokens).To(Equal(3))
			Expect(ev.Usage.TotalTokens).To(Equal(15))
		})
	})

	Context("when the request is not a chat completion", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"data": []}`)
			}))
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("passes GET requests through without publishing", func() {
			resp, err := p.server.Test(httptest.NewRequest(http.MethodGet, "/v1/models", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			p.Close()
			p = nil
			Expect(pub.published()).To(BeEmpty())
		})
	})

	Context("when upstream returns an error status", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				io.WriteString(w, `{"error": {"message": "rate limited"}}`)
			}))
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("relays the status and body and publishes nothing", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "hi"},
			}, nil)

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("rate limited"))

			p.Close()
			p = nil
			Expect(pub.published()).To(BeEmpty())
		})
	})

	Context("when the upstream is unreachable", func() {
		BeforeEach(func() {
			p, pub = newTestProxy("http://127.0.0.1:1", "openai")
		})

		It("returns a bad gateway", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "hi"},
			}, nil)

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})
})
