package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NICxKMS/chatcore/pkg/catalog"
)

// ErrorResponse is the JSON error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"models": s.service.Registry().Count(),
	})
}

// handleListModels returns every model in the catalog.
func (s *Server) handleListModels(c *fiber.Ctx) error {
	models := s.service.Registry().All()
	return c.JSON(fiber.Map{
		"count":  len(models),
		"models": models,
	})
}

// handleCategorized returns the provider/family/type categorized view.
func (s *Server) handleCategorized(c *fiber.Ctx) error {
	experimental := s.config.IncludeExperimental
	if q := c.Query("experimental"); q != "" {
		experimental = q == "true" || q == "1"
	}

	return c.JSON(s.service.Categorized(experimental))
}

// handleStructured returns the vendor/series/variant structured view.
func (s *Server) handleStructured(c *fiber.Ctx) error {
	return c.JSON(s.service.Structured())
}

// handleProviderModels returns the models registered for one provider.
func (s *Server) handleProviderModels(c *fiber.Ctx) error {
	provider := c.Params("provider")

	models := s.service.Registry().Models(provider)
	if len(models) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "unknown provider: " + provider})
	}

	return c.JSON(fiber.Map{
		"provider": provider,
		"count":    len(models),
		"models":   models,
	})
}

// handleRegister registers a single model, classifying any fields the
// caller left blank.
func (s *Server) handleRegister(c *fiber.Ctx) error {
	var m catalog.Model
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid model payload"})
	}
	if m.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "model id is required"})
	}

	s.service.Register(m)

	// Read the model back so the response carries the enriched fields.
	// Enrichment falls back to the "unknown" provider when none is given.
	provider := m.Provider
	if provider == "" {
		provider = "unknown"
	}
	registered, ok := s.service.Registry().Get(provider, m.ID)
	if !ok {
		registered = m
	}

	if s.driver != nil {
		if _, err := s.driver.PutModel(c.Context(), registered); err != nil {
			s.logger.Warn("failed to persist registered model",
				"id", m.ID,
				"error", err,
			)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(registered)
}

// handleReload re-fetches the catalog from the configured provider fetchers.
func (s *Server) handleReload(c *fiber.Ctx) error {
	count, err := s.service.Reload(c.Context())
	if err != nil {
		s.logger.Error("catalog reload failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
	}

	if s.driver != nil {
		for _, m := range s.service.Registry().All() {
			if _, err := s.driver.PutModel(c.Context(), m); err != nil {
				s.logger.Warn("failed to persist model",
					"id", m.ID,
					"error", err,
				)
			}
		}
	}

	return c.JSON(fiber.Map{
		"reloaded": count,
	})
}
