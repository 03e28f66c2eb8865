package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/imagecheck"
)

var (
	checkOpts = struct {
		device  string
		xram    string
		verbose bool
	}{}

	checkCmd = &cobra.Command{
		Use:   "check IMAGE.elf",
		Short: "Verify the vector table and memory layout of a linked image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database()
			if err != nil {
				return err
			}
			dev, err := db.Devices.Find(checkOpts.device)
			if err != nil {
				return err
			}
			layout, err := dev.Layout()
			if err != nil {
				return err
			}

			ram := []boot.Region{dev.RAM.Region()}
			if len(checkOpts.xram) > 0 {
				xram, err := parseMemory(checkOpts.xram)
				if err != nil {
					return fmt.Errorf("--xram: %w", err)
				}
				ram = append(ram, xram.Region())
			}

			img, err := imagecheck.Open(args[0])
			if err != nil {
				return err
			}
			report, err := imagecheck.Verify(layout, img, ram...)
			if err != nil {
				log.Printf("%s: image check failed", args[0])
				return err
			}

			l := report.Layout
			printer.Printf("%s: %d vectors, %d handlers defined, %d defaulted\n",
				args[0], report.Table.Len(), len(report.Strong), len(report.Defaulted))
			printer.Printf(".data\t%d bytes at %#08x from %#08x\n", l.Data.Len(), l.Data.Start, l.Image)
			printer.Printf(".bss\t%d bytes at %#08x\n", l.BSS.Len(), l.BSS.Start)
			printer.Printf("stack\tmain %#08x, process %#08x\n", l.MainStackTop, l.HeapEnd)
			if checkOpts.verbose {
				for _, e := range report.Table.Entries() {
					fmt.Println(e)
				}
			}
			return nil
		},
	}
)

func init() {
	checkCmd.Flags().StringVarP(&checkOpts.device, "device", "d", "", "target device")
	checkCmd.Flags().StringVar(&checkOpts.xram, "xram", "", "external ram as ORIGIN:SIZE")
	checkCmd.Flags().BoolVarP(&checkOpts.verbose, "verbose", "v", false, "print every vector")
	checkCmd.MarkFlagRequired("device")
}
