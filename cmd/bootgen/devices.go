package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the known devices and boards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "DEVICE\tCPU\tFLASH\tRAM\tIRQS")
		for _, d := range db.Devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", d.Name, d.Cpu, d.Flash.Size, d.RAM.Size, len(d.Interrupts))
		}
		if len(db.Boards) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "BOARD\tDEVICE\tSTACK\t\t")
			for _, b := range db.Boards {
				fmt.Fprintf(w, "%s\t%s\t%s\t\t\n", b.Name, b.Device, b.MainStackSize)
			}
		}
		return w.Flush()
	},
}
