package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

func listCommand(registry *dpa.Registry) *cobra.Command {
	var peripheral string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List message types known to the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MTYPE\tPNUM\tPCMD\tPERIPHERAL")
			for _, e := range registry.Entries() {
				if e.Type == dpa.GenericRaw {
					if peripheral == "" {
						fmt.Fprintf(w, "%s\t-\t-\t-\n", e.Type.Name)
					}
					continue
				}
				name := e.Type.PNUM.String()
				if peripheral != "" && name != peripheral {
					continue
				}
				fmt.Fprintf(w, "%s\t0x%02X\t0x%02X\t%s\n", e.Type.Name, uint8(e.Type.PNUM), uint8(e.Type.PCMD), name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&peripheral, "peripheral", "", "only list one peripheral (e.g. os, coordinator)")
	return cmd
}
