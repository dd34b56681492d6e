package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version info",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ads Command Center\n")
			fmt.Fprintf(out, " - version: %s\n", info.Version)
			fmt.Fprintf(out, " - git: %s\n", version.GetShortCommit())
			fmt.Fprintf(out, " - built: %s\n", info.BuildDate)
			fmt.Fprintf(out, " - go: %s %s\n", info.GoVersion, info.Platform)
			return nil
		},
	}
}
