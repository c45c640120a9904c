// Package versioncmder prints the build metadata stamped in at link time.
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NICxKMS/chatcore/pkg/utils"
)

type VersionCommander struct{}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Long:  "print the version, commit sha, and build time of this binary",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	return cmd
}

func (c *VersionCommander) run() error {
	fmt.Printf("chatcore %s (%s) built %s\n", utils.Version, utils.Sha, utils.Buildtime)
	return nil
}
