package main

import (
	"os"

	apicmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve/api"
)

func main() {
	cmd := apicmder.NewAPICmd()
	cmd.Use = "chatcoreapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .chatcore/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
