// Command dpactl encodes and decodes IQRF DPA frames offline.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

func main() {
	if err := newRootCommand(dpa.DefaultRegistry()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(registry *dpa.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dpactl",
		Short:        "IQRF DPA frame codec tool",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	cmd.AddCommand(encodeCommand(registry))
	cmd.AddCommand(decodeCommand(registry))
	cmd.AddCommand(listCommand(registry))
	return cmd
}
