// Package apicmder provides the catalog API server cobra command.
package apicmder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NICxKMS/chatcore/api"
	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch/anthropic"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch/gemini"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch/openai"
	"github.com/NICxKMS/chatcore/pkg/catalog/fetch/openrouter"
	"github.com/NICxKMS/chatcore/pkg/config"
	"github.com/NICxKMS/chatcore/pkg/logger"
	"github.com/NICxKMS/chatcore/pkg/storage"
	"github.com/NICxKMS/chatcore/pkg/storage/inmemory"
	"github.com/NICxKMS/chatcore/pkg/storage/postgres"
	"github.com/NICxKMS/chatcore/pkg/storage/sqlite"
)

type apiCommander struct {
	debug  bool
	viper  *viper.Viper
	logger *slog.Logger
}

const apiLongDesc string = `Run the chatcore API server for querying and managing the model catalog.

Models are fetched from providers whose API keys are configured, persisted
through the selected storage driver, and served in flat, categorized, and
structured views.`

const apiShortDesc string = "Run the chatcore API server"

var apiFlagKeys = []string{
	config.FlagAPIListenStandalone,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagOverrides,
	config.FlagExperimental,
}

func NewAPICmd() *cobra.Command {
	cmder := &apiCommander{}

	var (
		listen        string
		storageDriver string
		sqlitePath    string
		postgresDSN   string
		overrides     string
		experimental  bool
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, apiFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListenStandalone, &listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagOverrides, &overrides)
	config.AddBoolFlag(cmd, config.Flags, config.FlagExperimental, &experimental)

	return cmd
}

func (c *apiCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	driver, err := NewStorageDriver(c.viper, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	service, err := NewCatalogService(context.Background(), c.viper, driver, c.logger)
	if err != nil {
		return err
	}

	if path := c.viper.GetString("catalog.overrides_path"); path != "" {
		watcher, err := catalog.NewWatcher(service, path, c.logger)
		if err != nil {
			return fmt.Errorf("starting overrides watcher: %w", err)
		}
		defer watcher.Close()
	}

	cfg := api.Config{
		ListenAddr:          c.viper.GetString("api.listen"),
		IncludeExperimental: c.viper.GetBool("catalog.include_experimental"),
	}

	server := api.NewServer(cfg, service, driver, c.logger)
	return server.Run()
}

// NewStorageDriver creates the catalog storage driver selected by
// storage.driver. A sqlite driver with no path falls back to in-memory
// storage.
func NewStorageDriver(v *viper.Viper, log *slog.Logger) (storage.Driver, error) {
	switch name := v.GetString("storage.driver"); name {
	case "postgres":
		dsn := v.GetString("storage.postgres_dsn")
		if dsn == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
		driver, err := postgres.NewDriver(context.Background(), dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres driver: %w", err)
		}
		log.Info("using Postgres storage")
		return driver, nil

	case "sqlite":
		path := v.GetString("storage.sqlite_path")
		if path == "" {
			log.Info("no SQLite path configured, using in-memory storage")
			return inmemory.NewDriver(), nil
		}
		driver, err := sqlite.NewSQLiteDriver(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", "path", path)
		return driver, nil

	case "inmemory":
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", name)
	}
}

// NewCatalogService builds the catalog service: provider fetchers for every
// configured API key, models restored from the storage driver, and seed
// models when the catalog would otherwise start empty.
func NewCatalogService(ctx context.Context, v *viper.Viper, driver storage.Driver, log *slog.Logger) (*catalog.Service, error) {
	var fetchers []catalog.Fetcher
	if key := v.GetString("providers.openai_key"); key != "" {
		fetchers = append(fetchers, openai.New(key))
	}
	if key := v.GetString("providers.anthropic_key"); key != "" {
		fetchers = append(fetchers, anthropic.New(key))
	}
	if key := v.GetString("providers.gemini_key"); key != "" {
		fetchers = append(fetchers, gemini.New(key))
	}
	if key := v.GetString("providers.openrouter_key"); key != "" {
		fetchers = append(fetchers, openrouter.New(key))
	}

	service := catalog.NewService(catalog.NewRegistry(),
		catalog.WithLogger(log),
		catalog.WithFetchers(fetchers...),
	)

	// Restore whatever a previous run persisted.
	providers, err := driver.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored providers: %w", err)
	}
	for _, provider := range providers {
		models, err := driver.ListModels(ctx, provider)
		if err != nil {
			return nil, fmt.Errorf("loading stored models for %s: %w", provider, err)
		}
		for _, m := range models {
			service.Register(m)
		}
	}

	if service.Registry().Count() == 0 && len(fetchers) == 0 {
		log.Info("no provider keys configured, seeding built-in models")
		service.Seed()
	}

	names := make([]string, 0, len(fetchers))
	for _, f := range fetchers {
		names = append(names, f.Name())
	}
	log.Info("catalog service ready",
		"models", service.Registry().Count(),
		"fetchers", strings.Join(names, ","),
	)

	return service, nil
}
