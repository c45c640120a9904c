// Package modelscmder provides the models command for listing the catalog.
package modelscmder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/cliui"
	"github.com/NICxKMS/chatcore/pkg/config"
	"github.com/NICxKMS/chatcore/pkg/reveal"
	"github.com/NICxKMS/chatcore/pkg/utils"
)

const modelsLongDesc string = `List models known to the chatcore API server.

Models stream into the terminal a few at a time, largest context window
first. Pass --all to print the full list immediately, or --browse for an
interactive picker.

Examples:
  chatcore models
  chatcore models --all
  chatcore models --provider anthropic
  chatcore models --browse`

const modelsShortDesc string = "List models from the catalog"

type modelsCommander struct {
	viper    *viper.Viper
	all      bool
	browse   bool
	provider string
}

var modelsFlagKeys = []string{
	config.FlagAPITarget,
}

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	var apiTarget string

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, modelsFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Print the full list immediately")
	cmd.Flags().BoolVar(&cmder.browse, "browse", false, "Browse models interactively")
	cmd.Flags().StringVar(&cmder.provider, "provider", "", "Only show models from one provider")

	cmd.AddCommand(newBrowseCmd())

	return cmd
}

const browseLongDesc string = `Browse the model catalog interactively.

Models stream into the list a few at a time; press a to load everything
at once or p to pause the reveal.

Examples:
  chatcore models browse
  chatcore models browse --provider openai`

func newBrowseCmd() *cobra.Command {
	cmder := &modelsCommander{browse: true}

	var apiTarget string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the model catalog interactively",
		Long:  browseLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, modelsFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringVar(&cmder.provider, "provider", "", "Only show models from one provider")

	return cmd
}

func (c *modelsCommander) run() error {
	target := c.viper.GetString("client.api_target")

	var models []catalog.Model
	err := cliui.Step(os.Stderr, fmt.Sprintf("fetching models from %s", target), func() error {
		var err error
		models, err = fetchModels(target, c.provider)
		return err
	})
	if err != nil {
		return err
	}

	if len(models) == 0 {
		fmt.Println(cliui.DimStyle.Render("no models found"))
		return nil
	}

	if c.browse {
		return runBrowseTUI(models)
	}

	printHeader()

	var (
		mu      sync.Mutex
		printed int
		done    = make(chan struct{})
	)

	controller := reveal.New(models, revealConfig(), func(loaded []catalog.Model) {
		mu.Lock()
		defer mu.Unlock()
		for printed < len(loaded) {
			printRow(loaded[printed])
			printed++
		}
		if printed == len(models) {
			close(done)
		}
	})

	if c.all {
		controller.LoadAll()
	} else {
		controller.Start()
	}
	<-done

	fmt.Println()
	fmt.Println(cliui.DimStyle.Render(fmt.Sprintf("%d models", len(models))))
	return nil
}

func revealConfig() reveal.Config[catalog.Model] {
	return reveal.Config[catalog.Model]{
		InitialCount: 8,
		BatchSize:    5,
		MinDelay:     60 * time.Millisecond,
		MaxDelay:     140 * time.Millisecond,
		Priority: func(m catalog.Model, _ int) float64 {
			return float64(m.ContextWindow)
		},
	}
}

type modelsResponse struct {
	Count  int             `json:"count"`
	Models []catalog.Model `json:"models"`
}

func fetchModels(target, provider string) ([]catalog.Model, error) {
	url := strings.TrimSuffix(target, "/") + "/models"
	if provider != "" {
		url += "/" + provider
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("reaching API server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API server returned %s", resp.Status)
	}

	var parsed modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	sort.Slice(parsed.Models, func(i, j int) bool {
		if parsed.Models[i].Provider != parsed.Models[j].Provider {
			return parsed.Models[i].Provider < parsed.Models[j].Provider
		}
		return parsed.Models[i].ID < parsed.Models[j].ID
	})

	return parsed.Models, nil
}

func printHeader() {
	fmt.Println(cliui.KeyStyle.Render(fmt.Sprintf("%-12s %-36s %10s %10s  %s",
		"PROVIDER", "MODEL", "CONTEXT", "MAX OUT", "CAPABILITIES")))
}

func printRow(m catalog.Model) {
	id := m.ID
	if m.IsExperimental {
		id += " *"
	}
	fmt.Printf("%s %s %10s %10s  %s\n",
		cliui.ProviderStyle.Render(fmt.Sprintf("%-12s", m.Provider)),
		cliui.NameStyle.Render(fmt.Sprintf("%-36s", utils.Truncate(id, 36))),
		formatWindow(m.ContextWindow),
		formatWindow(m.MaxOutputTokens),
		cliui.DimStyle.Render(strings.Join(m.Capabilities, ",")),
	)
}

func formatWindow(tokens int) string {
	if tokens <= 0 {
		return "-"
	}
	if tokens >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000.0)
	}
	if tokens >= 1_000 {
		return fmt.Sprintf("%dK", tokens/1_000)
	}
	return fmt.Sprintf("%d", tokens)
}
