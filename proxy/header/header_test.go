package header

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SetUpstreamRequestHeaders", func() {
	var (
		app *fiber.App
		hh  *Handler
		got http.Header
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
		got = nil

		app.Post("/test", func(c *fiber.Ctx) error {
			req, _ := http.NewRequest(http.MethodPost, "http://upstream/test", nil)
			hh.SetUpstreamRequestHeaders(c, req)
			got = req.Header
			return c.SendStatus(fiber.StatusOK)
		})
	})

	AfterEach(func() {
		app.Shutdown()
	})

	It("forwards auth and content headers to the upstream request", func() {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.Header.Set("Authorization", "Bearer token123")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Api-Key", "secret")

		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()

		Expect(got.Get("Authorization")).To(Equal("Bearer token123"))
		Expect(got.Get("Content-Type")).To(Equal("application/json"))
		Expect(got.Get("X-Api-Key")).To(Equal("secret"))
	})

	It("strips hop-by-hop and transport headers", func() {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Host", "client.example.com")
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
		req.Header.Set("Authorization", "Bearer token123")

		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()

		Expect(got.Get("Connection")).To(BeEmpty())
		Expect(got.Get("Host")).To(BeEmpty())
		Expect(got.Get("Accept-Encoding")).To(BeEmpty())
		// Other headers still forwarded
		Expect(got.Get("Authorization")).To(Equal("Bearer token123"))
	})
})

var _ = Describe("SetClientResponseHeaders", func() {
	var (
		app *fiber.App
		hh  *Handler
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
	})

	AfterEach(func() {
		app.Shutdown()
	})

	serveWith := func(upstream http.Header) *http.Response {
		app.Get("/test", func(c *fiber.Ctx) error {
			hh.SetClientResponseHeaders(c, &http.Response{Header: upstream})
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp
	}

	It("forwards standard upstream response headers to the client", func() {
		resp := serveWith(http.Header{
			"Content-Type":   {"application/json"},
			"X-Request-Id":   {"abc-123"},
			"X-Custom-Value": {"hello"},
		})

		Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(resp.Header.Get("X-Request-Id")).To(Equal("abc-123"))
		Expect(resp.Header.Get("X-Custom-Value")).To(Equal("hello"))
	})

	It("strips hop-by-hop and length headers", func() {
		resp := serveWith(http.Header{
			"Connection":       {"keep-alive"},
			"Content-Encoding": {"gzip"},
			"Content-Length":   {"1234"},
			"X-Request-Id":     {"abc-123"},
		})

		Expect(resp.Header.Get("Connection")).To(BeEmpty())
		Expect(resp.Header.Get("Content-Encoding")).To(BeEmpty())
		Expect(resp.Header.Get("X-Request-Id")).To(Equal("abc-123"))
	})

	It("joins multi-valued headers", func() {
		resp := serveWith(http.Header{
			"X-Multi": {"one", "two"},
		})

		Expect(resp.Header.Get("X-Multi")).To(Equal("one, two"))
	})
})
