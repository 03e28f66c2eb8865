package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"omibyte.io/bootcore/startup"
	"omibyte.io/bootcore/svd"
	"omibyte.io/bootcore/targets"
)

var (
	genOpts = struct {
		device  string
		board   string
		output  string
		pkg     string
		svdFile string
		flash   string
		ram     string
		xram    string
	}{}

	genCmd = &cobra.Command{
		Use:   "gen",
		Short: "Generate the startup files of a device",
		Long: `Generate the vector table (isr_vector.s), the linker script (target.ld) and
the Go half of the reset sequence (startup.go) of a device. With --board the
board settings are written to board.go.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database()
			if err != nil {
				return err
			}

			var dev targets.Device
			if len(genOpts.svdFile) > 0 {
				if dev, err = deviceFromSVD(); err != nil {
					return err
				}
			} else if len(genOpts.device) > 0 {
				if dev, err = db.Devices.Find(genOpts.device); err != nil {
					return err
				}
			} else {
				return fmt.Errorf("either --device or --svd is required")
			}

			opts := startup.Options{Device: dev, Package: genOpts.pkg}
			if len(genOpts.board) > 0 {
				board, err := db.Boards.Find(genOpts.board)
				if err != nil {
					return err
				}
				opts.Board = &board
			}
			if len(genOpts.xram) > 0 {
				xram, err := parseMemory(genOpts.xram)
				if err != nil {
					return fmt.Errorf("--xram: %w", err)
				}
				opts.XRAM = &xram
			}

			gen, err := startup.New(opts)
			if err != nil {
				return err
			}

			fmt.Println("Generating the startup files for the following device:")
			fmt.Printf("Device:\t\t%s\n", dev.Name)
			fmt.Printf("CPU:\t\t%s\n", dev.Cpu)
			printer.Printf("Flash:\t\t%d bytes at %#08x\n", uint32(dev.Flash.Size), uint32(dev.Flash.Origin))
			printer.Printf("RAM:\t\t%d bytes at %#08x\n", uint32(dev.RAM.Size), uint32(dev.RAM.Origin))
			printer.Printf("Vectors:\t%d\n", gen.Layout().Len())
			printer.Printf("Main stack:\t%d bytes\n", dev.MainStackSize(opts.Board))

			files, err := gen.Generate(genOpts.output)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println("wrote", f)
			}
			fmt.Println("Done.")
			return nil
		},
	}
)

func deviceFromSVD() (targets.Device, error) {
	f, err := os.Open(genOpts.svdFile)
	if err != nil {
		return targets.Device{}, err
	}
	defer f.Close()

	def, err := svd.Decode(f)
	if err != nil {
		return targets.Device{}, fmt.Errorf("%s: xml decode error: %w", genOpts.svdFile, err)
	}

	flash, err := parseMemory(genOpts.flash)
	if err != nil {
		return targets.Device{}, fmt.Errorf("--flash: %w", err)
	}
	ram, err := parseMemory(genOpts.ram)
	if err != nil {
		return targets.Device{}, fmt.Errorf("--ram: %w", err)
	}
	return targets.FromSVD(def, flash, ram)
}

func init() {
	genCmd.Flags().StringVarP(&genOpts.device, "device", "d", "", "target device")
	genCmd.Flags().StringVarP(&genOpts.board, "board", "b", "", "target board")
	genCmd.Flags().StringVarP(&genOpts.output, "output", "o", ".", "output directory")
	genCmd.Flags().StringVarP(&genOpts.pkg, "package", "p", "", "package of the Go sources. Default: name of the output directory")
	genCmd.Flags().StringVar(&genOpts.svdFile, "svd", "", "derive the device from a CMSIS-SVD file")
	genCmd.Flags().StringVar(&genOpts.flash, "flash", "0x08000000:64K", "flash origin and size of an SVD device")
	genCmd.Flags().StringVar(&genOpts.ram, "ram", "0x20000000:20K", "ram origin and size of an SVD device")
	genCmd.Flags().StringVar(&genOpts.xram, "xram", "", "external ram holding .data, .bss and the heap, as ORIGIN:SIZE")
}

// parseMemory parses ORIGIN:SIZE, such as 0x08000000:64K.
func parseMemory(v string) (targets.Memory, error) {
	origin, size, ok := strings.Cut(v, ":")
	if !ok {
		return targets.Memory{}, fmt.Errorf("%q is not ORIGIN:SIZE", v)
	}
	start, err := strconv.ParseUint(origin, 0, 32)
	if err != nil {
		return targets.Memory{}, err
	}
	n, err := targets.ParseSize(size)
	if err != nil {
		return targets.Memory{}, err
	}
	return targets.Memory{Origin: targets.Integer(start), Size: n}, nil
}
