package main

import (
	"os"

	chatcorecmder "github.com/NICxKMS/chatcore/cmd/chatcore"
)

func main() {
	cmd := chatcorecmder.NewChatcoreCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
