package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"omibyte.io/bootcore/fault"
	"omibyte.io/bootcore/sim"
	"omibyte.io/bootcore/vector"
)

var (
	simOpts = struct {
		device         string
		board          string
		handlers       []string
		raise          []int
		returns        bool
		ignoreReset    bool
		skipSystemInit bool
		data           int
		bss            uint32
		xram           string
	}{}

	simCmd = &cobra.Command{
		Use:   "sim",
		Short: "Run the reset sequence on a simulated core",
		Long: `Run the reset sequence on a simulated core and print every step.

Stage 2 enables interrupts and raises the exceptions given with --raise, then
either parks the core or, with --return, returns into the reset sequence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database()
			if err != nil {
				return err
			}
			dev, err := db.Devices.Find(simOpts.device)
			if err != nil {
				return err
			}

			opts := sim.Options{
				Handlers: vector.Bindings{},
				Reporter: fault.Writer(os.Stdout),
				Data:     make([]byte, simOpts.data),
				BSSSize:  simOpts.bss,
			}
			for i := range opts.Data {
				opts.Data[i] = byte(i)
			}
			for _, name := range simOpts.handlers {
				name := name
				opts.Handlers[name] = func() {
					fmt.Printf("  %s\n", name)
				}
			}
			if len(simOpts.board) > 0 {
				board, err := db.Boards.Find(simOpts.board)
				if err != nil {
					return err
				}
				opts.Board = &board
			}
			if len(simOpts.xram) > 0 {
				xram, err := parseMemory(simOpts.xram)
				if err != nil {
					return fmt.Errorf("--xram: %w", err)
				}
				opts.XRAM = &xram
			}

			m, err := sim.New(dev, opts)
			if err != nil {
				return err
			}
			m.Core.IgnoreReset = simOpts.ignoreReset
			m.Core.SkipSystemInit = simOpts.skipSystemInit

			l := m.Layout
			printer.Printf("%s: %d vectors, .data %d bytes, .bss %d bytes, main stack %d bytes\n",
				dev.Name, m.Table.Len(), l.Data.Len(), l.BSS.Len(), l.MainStackTop-dev.RAM.Region().Start)

			res := m.Boot(func() {
				m.Core.EnableInterrupts()
				for _, n := range simOpts.raise {
					if err := m.Core.Raise(n); err != nil {
						fmt.Println("raise:", err)
					}
				}
				if !simOpts.returns {
					m.Core.Idle()
				}
			})

			for i, ev := range res.Trace {
				fmt.Printf("%3d  %s\n", i, ev)
			}
			fmt.Println("outcome:", res.Outcome)
			if res.Err != nil {
				return res.Err
			}
			if err := sim.VerifyOrder(res.Trace); err != nil {
				return err
			}
			return nil
		},
	}
)

func init() {
	simCmd.Flags().StringVarP(&simOpts.device, "device", "d", "", "target device")
	simCmd.Flags().StringVarP(&simOpts.board, "board", "b", "", "target board")
	simCmd.Flags().StringSliceVar(&simOpts.handlers, "handler", nil, "handlers stage 2 defines")
	simCmd.Flags().IntSliceVar(&simOpts.raise, "raise", nil, "exception numbers to raise from stage 2")
	simCmd.Flags().BoolVar(&simOpts.returns, "return", false, "return from stage 2")
	simCmd.Flags().BoolVar(&simOpts.ignoreReset, "ignore-reset", false, "drop reset requests")
	simCmd.Flags().BoolVar(&simOpts.skipSystemInit, "skip-system-init", false, "leave external ram disabled")
	simCmd.Flags().IntVar(&simOpts.data, "data", 64, "size of .data")
	simCmd.Flags().Uint32Var(&simOpts.bss, "bss", 128, "size of .bss")
	simCmd.Flags().StringVar(&simOpts.xram, "xram", "", "external ram as ORIGIN:SIZE")
	simCmd.MarkFlagRequired("device")
}
