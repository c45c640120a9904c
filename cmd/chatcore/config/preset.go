package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NICxKMS/chatcore/pkg/cliui"
	"github.com/NICxKMS/chatcore/pkg/config"
)

const presetLongDesc string = `Apply a provider preset to the configuration.

Writes a complete config.toml pointing the proxy at a well-known provider.
Any existing configuration is overwritten. Set the provider API key
afterwards with "chatcore config set".

Available presets: openai, anthropic, openrouter

Examples:
  chatcore config preset openai
  chatcore config preset anthropic`

const presetShortDesc string = "Apply a provider preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: presetShortDesc,
		Long:  presetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runPreset(name, configDir string) error {
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return fmt.Errorf("%w\n\nAvailable presets: %s",
			err, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\n  %s Applied preset %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Upstream:"),
		cliui.ValueStyle.Render(cfg.Proxy.Upstream),
	)
	return nil
}
