package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the storybench release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/storybench"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the storybench version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "storybench v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
