package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/logger"
	"github.com/NICxKMS/chatcore/pkg/storage"
	"github.com/NICxKMS/chatcore/pkg/storage/inmemory"
)

// stubFetcher returns a fixed model list, or an error.
type stubFetcher struct {
	name   string
	models []catalog.Model
	err    error
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) ListModels(context.Context) ([]catalog.Model, error) {
	return f.models, f.err
}

func decodeBody(resp *http.Response, out any) {
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(body, out)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		service *catalog.Service
		driver  storage.Driver
		server  *Server
	)

	BeforeEach(func() {
		service = catalog.NewService(catalog.NewRegistry(), catalog.WithLogger(logger.Nop()))
		service.Register(catalog.Model{ID: "gpt-4o", Provider: "openai", ContextWindow: 128000})
		service.Register(catalog.Model{ID: "claude-3-opus", Provider: "anthropic"})

		driver = inmemory.NewDriver()
		server = NewServer(Config{ListenAddr: ":0"}, service, driver, logger.Nop())
	})

	AfterEach(func() {
		server.Shutdown()
	})

	Describe("GET /health", func() {
		It("reports status and model count", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var payload struct {
				Status string `json:"status"`
				Models int    `json:"models"`
			}
			decodeBody(resp, &payload)
			Expect(payload.Status).To(Equal("ok"))
			Expect(payload.Models).To(Equal(2))
		})
	})

	Describe("GET /models", func() {
		It("lists every registered model", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/models", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var payload struct {
				Count  int             `json:"count"`
				Models []catalog.Model `json:"models"`
			}
			decodeBody(resp, &payload)
			Expect(payload.Count).To(Equal(2))

			ids := []string{payload.Models[0].ID, payload.Models[1].ID}
			Expect(ids).To(ConsistOf("gpt-4o", "claude-3-opus"))
		})
	})

	Describe("GET /models/:provider", func() {
		It("returns the provider's models", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/models/openai", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var payload struct {
				Provider string          `json:"provider"`
				Count    int             `json:"count"`
				Models   []catalog.Model `json:"models"`
			}
			decodeBody(resp, &payload)
			Expect(payload.Provider).To(Equal("openai"))
			Expect(payload.Count).To(Equal(1))
			Expect(payload.Models[0].ID).To(Equal("gpt-4o"))
		})

		It("returns 404 for an unknown provider", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/models/nope", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			var payload ErrorResponse
			decodeBody(resp, &payload)
			Expect(payload.Error).To(ContainSubstring("nope"))
		})
	})

	Describe("GET /models/categorized", func() {
		BeforeEach(func() {
			service.Register(catalog.Model{ID: "gemini-2.0-flash-exp", Provider: "gemini", IsExperimental: true})
		})

		It("returns the categorized view without experimental models", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/models/categorized", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var payload catalog.Categorized
			decodeBody(resp, &payload)
			Expect(payload).To(HaveKey("openai"))
			Expect(payload).To(HaveKey("anthropic"))
			Expect(payload).NotTo(HaveKey("gemini"))
		})

		It("includes experimental models when requested", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/models/categorized?experimental=true", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var payload catalog.Categorized
			decodeBody(resp, &payload)
			Expect(payload).To(HaveKey("gemini"))
		})
	})

	Describe("GET /models/structured", func() {
		It("returns the vendor view", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/models/structured", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var payload catalog.Structured
			decodeBody(resp, &payload)
			Expect(payload).To(HaveKey("OpenAI"))
			Expect(payload).To(HaveKey("Anthropic"))
		})
	})

	Describe("POST /models/register", func() {
		It("registers and enriches a model", func() {
			body := `{"id": "claude-3-haiku-20240307", "provider": "anthropic"}`
			req := httptest.NewRequest(http.MethodPost, "/models/register", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var registered catalog.Model
			decodeBody(resp, &registered)
			Expect(registered.Family).To(Equal("Claude 3"))
			Expect(registered.Type).To(Equal("Haiku"))
			Expect(registered.ContextWindow).To(Equal(200000))

			// Written through to the storage driver
			stored, err := driver.GetModel(context.Background(), "anthropic", "claude-3-haiku-20240307")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Family).To(Equal("Claude 3"))
		})

		It("rejects a payload without an id", func() {
			req := httptest.NewRequest(http.MethodPost, "/models/register", strings.NewReader(`{"provider": "openai"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/models/register", strings.NewReader(`{not json`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /models/reload", func() {
		It("reloads the catalog from fetchers and persists it", func() {
			fetcher := &stubFetcher{name: "openai", models: []catalog.Model{
				{ID: "gpt-4.1", Provider: "openai"},
				{ID: "gpt-4o-mini", Provider: "openai"},
			}}
			service = catalog.NewService(catalog.NewRegistry(),
				catalog.WithLogger(logger.Nop()),
				catalog.WithFetchers(fetcher),
			)
			server = NewServer(Config{ListenAddr: ":0"}, service, driver, logger.Nop())

			resp, err := server.app.Test(httptest.NewRequest(http.MethodPost, "/models/reload", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var payload struct {
				Reloaded int `json:"reloaded"`
			}
			decodeBody(resp, &payload)
			Expect(payload.Reloaded).To(Equal(2))

			stored, err := driver.ListModels(context.Background(), "openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveLen(2))
		})

		It("returns 502 when no fetcher succeeds", func() {
			fetcher := &stubFetcher{name: "openai", err: errors.New("api down")}
			service = catalog.NewService(catalog.NewRegistry(),
				catalog.WithLogger(logger.Nop()),
				catalog.WithFetchers(fetcher),
			)
			server = NewServer(Config{ListenAddr: ":0"}, service, driver, logger.Nop())

			resp, err := server.app.Test(httptest.NewRequest(http.MethodPost, "/models/reload", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})
})
