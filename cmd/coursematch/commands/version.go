package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/version"
)

// NewVersionCmd constructs the `coursematch version` subcommand. Values are
// injected at build time via -ldflags and read "dev"/"unknown" otherwise.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the coursematch version, git commit, and build date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
