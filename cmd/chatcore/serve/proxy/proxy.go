// Package proxycmder provides the streaming proxy cobra command.
package proxycmder

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NICxKMS/chatcore/pkg/config"
	"github.com/NICxKMS/chatcore/pkg/eventstream"
	"github.com/NICxKMS/chatcore/pkg/eventstream/kafka"
	"github.com/NICxKMS/chatcore/pkg/eventstream/nop"
	"github.com/NICxKMS/chatcore/pkg/logger"
	"github.com/NICxKMS/chatcore/proxy"
)

type proxyCommander struct {
	debug  bool
	viper  *viper.Viper
	logger *slog.Logger
}

const proxyLongDesc string = `Run the chatcore streaming proxy.

The proxy forwards chat completion requests to the configured upstream
provider and relays streamed responses back to the client unchanged. Each
completed stream is decoded on the side and published as a telemetry event.`

const proxyShortDesc string = "Run the chatcore streaming proxy"

var proxyFlagKeys = []string{
	config.FlagProxyListenStandalone,
	config.FlagUpstream,
	config.FlagProvider,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

func NewProxyCmd() *cobra.Command {
	cmder := &proxyCommander{}

	var (
		listen        string
		upstream      string
		provider      string
		eventProvider string
		eventBrokers  string
		eventTopic    string
		project       string
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: proxyShortDesc,
		Long:  proxyLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, proxyFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run(project)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProxyListenStandalone, &listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &eventTopic)
	cmd.Flags().StringVar(&project, "project", "", "project name attached to telemetry events")

	return cmd
}

func (c *proxyCommander) run(project string) error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	publisher, err := NewPublisher(c.viper, c.logger)
	if err != nil {
		return err
	}

	cfg := proxy.Config{
		ListenAddr:  c.viper.GetString("proxy.listen"),
		UpstreamURL: c.viper.GetString("proxy.upstream"),
		Provider:    c.viper.GetString("proxy.provider"),
		Project:     project,
	}

	p, err := proxy.New(cfg, publisher, c.logger)
	if err != nil {
		return err
	}
	defer p.Close()

	return p.Run()
}

// NewPublisher creates the telemetry event publisher selected by
// eventstream.provider. Anything other than kafka gets the no-op publisher.
func NewPublisher(v *viper.Viper, log *slog.Logger) (eventstream.Publisher, error) {
	switch name := v.GetString("eventstream.provider"); name {
	case "kafka":
		brokers := strings.Split(v.GetString("eventstream.brokers"), ",")
		topic := v.GetString("eventstream.topic")
		if topic == "" {
			return nil, fmt.Errorf("eventstream.topic is required for the kafka publisher")
		}
		log.Info("publishing stream events to Kafka",
			"brokers", strings.Join(brokers, ","),
			"topic", topic,
		)
		return kafka.NewPublisher(brokers, topic), nil

	case "", "nop":
		return nop.NewPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider: %q", name)
	}
}
