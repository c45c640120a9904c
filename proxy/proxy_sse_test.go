package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SSE Streaming Proxy", func() {
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

	serveSSE := func(events []string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			flusher, ok := w.(http.Flusher)
			Expect(ok).To(BeTrue())

			for _, event := range events {
				fmt.Fprint(w, event)
				flusher.Flush()
			}
		}))
	}

	Context("when upstream returns an OpenAI SSE streaming response", func() {
		BeforeEach(func() {
			upstream = serveSSE([]string{
				"data: {\"id\":\"chatcmpl-1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hello\"}}]}\n\n",
				"data: {\"id\":\"chatcmpl-1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\" wide\"}}]}\n\n",
				"data: {\"id\":\"chatcmpl-1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\" world\"}}],\"usage\":{\"prompt_tokens\":9,\"completion_tokens\":3}}\n\n",
				"data: [DONE]\n\n",
			})
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("preserves SSE event boundaries with \\n\\n delimiters", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "Say hello"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			bodyStr := string(body)

			// The critical assertion: SSE event boundaries must be preserved.
			// Each event must end with \n\n, not just \n.
			Expect(bodyStr).To(ContainSubstring("data: {\"id\":\"chatcmpl-1\""))
			Expect(bodyStr).To(ContainSubstring("data: [DONE]\n\n"))
			Expect(strings.Count(bodyStr, "\n\n")).To(BeNumerically(">=", 4))
		})

		It("streams all chunks to the client verbatim", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "Say hello"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			bodyStr := string(body)

			Expect(bodyStr).To(ContainSubstring(`"content":"Hello"`))
			Expect(bodyStr).To(ContainSubstring(`"content":" wide"`))
			Expect(bodyStr).To(ContainSubstring(`"content":" world"`))
			Expect(bodyStr).To(ContainSubstring("[DONE]"))
		})

		It("publishes a telemetry event describing the stream", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "Say hello"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).NotTo(BeEmpty())
			resp.Body.Close()

			// Drain the worker pool so the async publish completes
			Eventually(func() int { return len(pub.published()) }).Should(Equal(1))

			ev := pub.published()[0]
			Expect(ev.Source.Provider).To(Equal("openai"))
			Expect(ev.Source.Model).To(Equal("gpt-4o"))
			Expect(ev.RequestMeta.Streaming).To(BeTrue())
			Expect(ev.Stream.SawDone).To(BeTrue())
			// "Hello" + " wide" + " world" decoded from the data payloads
			Expect(ev.Stream.ContentLength).To(Equal(len("Hello wide world")))
			Expect(ev.Stream.TokenCount).To(Equal(3))
			Expect(ev.Stream.EventCount).To(BeNumerically(">=", 4))
			Expect(ev.Stream.ChunkCount).To(BeNumerically(">=", 1))
			// Usage from the final content chunk
			Expect(ev.Usage.PromptTokens).To(Equal(9))
			Expect(ev.Usage.CompletionTokens).To(Equal(3))
			Expect(ev.Usage.TotalTokens).To(Equal(12))
		})
	})

	Context("when upstream returns an Anthropic-style SSE response", func() {
		BeforeEach(func() {
			upstream = serveSSE([]string{
				"event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"model\":\"claude-3-opus\",\"usage\":{\"input_tokens\":25}}}\n\n",
				"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"Hi there\"}}\n\n",
				"event: message_delta\ndata: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":7}}\n\n",
				"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
			})
			p, pub = newTestProxy(upstream.URL, "anthropic")
		})

		It("preserves event type and data fields with \\n\\n delimiters", func() {
			reqBody := makeChatRequestBody("claude-3-opus", []chatTestMsg{
				{Role: "user", Content: "Hi"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			bodyStr := string(body)

			Expect(bodyStr).To(ContainSubstring("event: message_start\n"))
			Expect(bodyStr).To(ContainSubstring("event: content_block_delta\n"))
			Expect(bodyStr).To(ContainSubstring("event: message_stop\n"))
			Expect(bodyStr).To(ContainSubstring("data: {\"type\":\"content_block_delta\""))
			Expect(strings.Count(bodyStr, "\n\n")).To(BeNumerically(">=", 4))
		})

		It("accumulates split usage across message_start and message_delta", func() {
			reqBody := makeChatRequestBody("claude-3-opus", []chatTestMsg{
				{Role: "user", Content: "Hi"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Eventually(func() int { return len(pub.published()) }).Should(Equal(1))

			ev := pub.published()[0]
			Expect(ev.Source.Provider).To(Equal("anthropic"))
			Expect(ev.Usage.PromptTokens).To(Equal(25))
			Expect(ev.Usage.CompletionTokens).To(Equal(7))
			Expect(ev.Usage.TotalTokens).To(Equal(32))
		})
	})

	Context("when upstream SSE includes heartbeat comments", func() {
		BeforeEach(func() {
			upstream = serveSSE([]string{
				": keep-alive\n\n",
				"data: {\"choices\":[{\"delta\":{\"content\":\"ping\"}}]}\n\n",
				": keep-alive\n\n",
				"data: [DONE]\n\n",
			})
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("relays comments verbatim and excludes them from telemetry", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "hi"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(string(body)).To(ContainSubstring(": keep-alive\n\n"))

			Eventually(func() int { return len(pub.published()) }).Should(Equal(1))
			ev := pub.published()[0]
			// One content event plus the done sentinel; heartbeats dropped
			Expect(ev.Stream.EventCount).To(Equal(2))
			Expect(ev.Stream.ContentLength).To(Equal(len("ping")))
			Expect(ev.Stream.TokenCount).To(Equal(1))
			Expect(ev.Stream.SawDone).To(BeTrue())
		})
	})

	Context("when upstream returns a non-SSE streaming body", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				io.WriteString(w, "raw bytes, not events")
			}))
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("passes the body through untouched without publishing", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "hi"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("raw bytes, not events"))

			Consistently(func() int { return len(pub.published()) }).Should(BeZero())
		})
	})

	Context("when upstream rejects the streaming request", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error": {"message": "bad key"}}`)
			}))
			p, pub = newTestProxy(upstream.URL, "openai")
		})

		It("relays the error status without streaming", func() {
			reqBody := makeChatRequestBody("gpt-4o", []chatTestMsg{
				{Role: "user", Content: "hi"},
			}, boolPtr(true))

			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(string(reqBody))), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("bad key"))
		})
	})
})
