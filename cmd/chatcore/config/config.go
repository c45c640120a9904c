// Package configcmder provides the config command for managing persistent
// chatcore configuration stored in the .chatcore/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent chatcore configuration.

Configuration is stored as config.toml in the .chatcore/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, and CHATCORE_* environment variables sit between
the two.

Keys use dotted notation matching the TOML section structure:
  proxy.provider, proxy.upstream, proxy.listen,
  api.listen,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  client.proxy_target, client.api_target,
  catalog.overrides_path, catalog.include_experimental,
  providers.openai_key, providers.anthropic_key,
  providers.gemini_key, providers.openrouter_key,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  chatcore config set <key> <value>    Set a configuration value
  chatcore config get <key>            Get a configuration value
  chatcore config list                 List all configuration values
  chatcore config preset <name>        Apply a provider preset

Examples:
  chatcore config set proxy.provider anthropic
  chatcore config get proxy.upstream
  chatcore config preset openai
  chatcore config list`

const configShortDesc string = "Manage persistent chatcore configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
