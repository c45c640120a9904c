// Package chatcorecmder
package chatcorecmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/NICxKMS/chatcore/cmd/chatcore/chat"
	configcmder "github.com/NICxKMS/chatcore/cmd/chatcore/config"
	modelscmder "github.com/NICxKMS/chatcore/cmd/chatcore/models"
	servecmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve"
	versioncmder "github.com/NICxKMS/chatcore/cmd/version"
)

const chatcoreLongDesc string = `Chatcore is a streaming chat-completion proxy and model catalog.

Run services using:
  chatcore serve api      Run the catalog API server
  chatcore serve proxy    Run the streaming proxy
  chatcore serve          Run both servers together

Explore the catalog with "chatcore models" or chat through the proxy
with "chatcore chat".`

const chatcoreShortDesc string = "Chatcore - Streaming Chat Proxy & Model Catalog"

func NewChatcoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatcore",
		Short: chatcoreShortDesc,
		Long:  chatcoreLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: .chatcore/ discovery)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
