// Package startup emits the on-target half of the boot core for a device:
// the vector table with its weak aliases and the reset entry in assembler,
// the linker script that fixes the memory layout, and the Go code that
// initializes memory and hands over to stage 2.
package startup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"omibyte.io/bootcore/targets"
	"omibyte.io/bootcore/vector"
)

var (
	ErrNoBoard        = errors.New("no board selected")
	ErrBoardMismatch  = errors.New("board is built around another device")
	ErrStackTooLarge  = errors.New("main stack does not fit in ram")
	ErrStackAlignment = errors.New("main stack size is not a multiple of 8")
)

// Names of the generated files.
const (
	VectorFile  = "isr_vector.s"
	LinkerFile  = "target.ld"
	RuntimeFile = "startup.go"
	BoardFile   = "board.go"
)

type Options struct {
	Device targets.Device
	Board  *targets.Board

	// Package is the Go package of the generated sources. Generate uses the
	// name of the output directory when it is empty.
	Package string

	// XRAM places .data, .bss and the heap in external memory that is only
	// usable after SystemInit.
	XRAM *targets.Memory
}

type Generator struct {
	opts   Options
	layout vector.Layout
}

func New(opts Options) (*Generator, error) {
	if err := opts.Device.Validate(); err != nil {
		return nil, err
	}
	if opts.Board != nil {
		if err := opts.Board.Validate(); err != nil {
			return nil, err
		}
		if !strings.EqualFold(opts.Board.Device, opts.Device.Name) {
			return nil, fmt.Errorf("%s uses %s, not %s: %w", opts.Board.Name, opts.Board.Device, opts.Device.Name, ErrBoardMismatch)
		}
	}

	layout, err := opts.Device.Layout()
	if err != nil {
		return nil, err
	}
	return &Generator{opts: opts, layout: layout}, nil
}

// Layout returns the vector layout the generator emits.
func (g *Generator) Layout() vector.Layout {
	return g.layout
}

func (g *Generator) pkg() string {
	if len(g.opts.Package) > 0 {
		return g.opts.Package
	}
	return "startup"
}

func (g *Generator) buildTag() string {
	return strings.ToLower(g.opts.Device.Name)
}

// Generate writes every file into the directory out and returns their
// paths.
func (g *Generator) Generate(out string) ([]string, error) {
	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, err
	}
	if len(g.opts.Package) == 0 {
		g.opts.Package = filepath.Base(out)
	}

	files := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{VectorFile, g.WriteVectorAssembly},
		{LinkerFile, g.WriteLinkerScript},
		{RuntimeFile, g.WriteRuntime},
	}
	if g.opts.Board != nil {
		files = append(files, struct {
			name  string
			write func(w io.Writer) error
		}{BoardFile, g.WriteBoard})
	}

	var written []string
	for _, file := range files {
		fname := filepath.Join(out, file.name)
		if err := writeFile(fname, file.write); err != nil {
			return written, fmt.Errorf("error generating %s: %w", fname, err)
		}
		written = append(written, fname)
	}
	return written, nil
}

func writeFile(fname string, write func(w io.Writer) error) error {
	var w strings.Builder
	if err := write(&w); err != nil {
		return err
	}
	return os.WriteFile(fname, []byte(w.String()), 0644)
}
