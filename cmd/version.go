// File: cmd/version.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version.
// This value is intended to be set at build time using ldflags.
// Example: go build -ldflags "-X github.com/xkilldash9x/streamsift/cmd.Version=1.0.0"
var Version = "0.1.0"

// newVersionCmd creates the `version` subcommand. It mirrors the root
// --version flag so scripts can call a stable subcommand instead of parsing
// flag output.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the streamsift version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "streamsift version %s\n", Version)
			return err
		},
	}
}
