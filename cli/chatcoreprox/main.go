package main

import (
	"fmt"
	"os"

	proxycmder "github.com/NICxKMS/chatcore/cmd/chatcore/serve/proxy"
)

func main() {
	cmd := proxycmder.NewProxyCmd()

	cmd.Use = "chatcoreproxy"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .chatcore/ config directory")

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
