// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NICxKMS/chatcore/api"
	apicmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve/api"
	proxycmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve/proxy"
	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/config"
	"github.com/NICxKMS/chatcore/pkg/logger"
	"github.com/NICxKMS/chatcore/proxy"
)

type ServeCommander struct {
	debug  bool
	viper  *viper.Viper
	logger *slog.Logger
}

const serveLongDesc string = `Run chatcore services.

Use subcommands to run individual services or all services together:
  chatcore serve          Run both proxy and API server together
  chatcore serve api      Run just the API server
  chatcore serve proxy    Run just the proxy server`

const serveShortDesc string = "Run chatcore services"

var serveFlagKeys = []string{
	config.FlagProxyListen,
	config.FlagAPIListen,
	config.FlagUpstream,
	config.FlagProvider,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagOverrides,
	config.FlagExperimental,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	var (
		proxyListen   string
		apiListen     string
		upstream      string
		provider      string
		storageDriver string
		sqlitePath    string
		postgresDSN   string
		overrides     string
		experimental  bool
		eventProvider string
		eventBrokers  string
		eventTopic    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)
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

	config.AddStringFlag(cmd, config.Flags, config.FlagProxyListen, &proxyListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &apiListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagOverrides, &overrides)
	config.AddBoolFlag(cmd, config.Flags, config.FlagExperimental, &experimental)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &eventTopic)

	cmd.AddCommand(apicmder.NewAPICmd())
	cmd.AddCommand(proxycmder.NewProxyCmd())

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	driver, err := apicmder.NewStorageDriver(c.viper, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	service, err := apicmder.NewCatalogService(context.Background(), c.viper, driver, c.logger)
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

	publisher, err := proxycmder.NewPublisher(c.viper, c.logger)
	if err != nil {
		return err
	}

	proxyConfig := proxy.Config{
		ListenAddr:  c.viper.GetString("proxy.listen"),
		UpstreamURL: c.viper.GetString("proxy.upstream"),
		Provider:    c.viper.GetString("proxy.provider"),
	}
	p, err := proxy.New(proxyConfig, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}
	defer p.Close()

	apiConfig := api.Config{
		ListenAddr:          c.viper.GetString("api.listen"),
		IncludeExperimental: c.viper.GetBool("catalog.include_experimental"),
	}
	apiServer := api.NewServer(apiConfig, service, driver, c.logger)
	defer apiServer.Shutdown()

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := p.Run(); err != nil {
			errChan <- fmt.Errorf("proxy error: %w", err)
		}
	}()

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}
