package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/storage"
)

// Server is the API server for querying and managing the model catalog.
type Server struct {
	config  Config
	service *catalog.Service
	driver  storage.Driver
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The service is injected to allow sharing with other components.
// The driver is optional; when set, registered and reloaded models are
// written through to it so the catalog survives restarts.
func NewServer(config Config, service *catalog.Service, driver storage.Driver, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		service: service,
		driver:  driver,
		logger:  logger,
		app:     app,
	}

	app.Get("/health", s.handleHealth)
	app.Get("/models", s.handleListModels)
	app.Get("/models/categorized", s.handleCategorized)
	app.Get("/models/structured", s.handleStructured)
	app.Get("/models/:provider", s.handleProviderModels)
	app.Post("/models/register", s.handleRegister)
	app.Post("/models/reload", s.handleReload)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
