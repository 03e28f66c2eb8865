package imagecheck

import (
	"errors"
	"fmt"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/vector"
)

// Report is the result of a successful check.
type Report struct {
	Table  *vector.Table
	Layout boot.Layout

	// Strong and Defaulted name the handler slots with and without a
	// definition of their own.
	Strong    []string
	Defaulted []string
}

// Verify checks img against the vector layout of its device. ram holds the
// regions the stacks may live in, the internal one first.
//
// A handler slot counts as defined when its symbol is not an alias of
// Default_Handler. The expected table is resolved from that and compared
// word by word, literal words bit for bit.
func Verify(layout vector.Layout, img *Image, ram ...boot.Region) (*Report, error) {
	def, ok := img.Symbols[vector.DefaultHandler]
	if !ok {
		return nil, fmt.Errorf("%s: %w", vector.DefaultHandler, vector.ErrUndefinedSymbol)
	}

	nop := func() {}
	strong := vector.Bindings{}
	for _, name := range layout.Handlers() {
		if addr, ok := img.Symbols[name]; ok && addr != def {
			strong[name] = nop
		}
	}

	table, err := vector.Resolve(layout, strong, nop)
	if err != nil {
		return nil, err
	}
	want, err := table.Words(img.Symbols)
	if err != nil {
		return nil, err
	}
	if len(img.Words) != len(want) {
		return nil, fmt.Errorf("%d entries, %s has %d: %w", len(img.Words), layout.Name, len(want), ErrTableLength)
	}

	var errs []error
	for i, e := range table.Entries() {
		if img.Words[i] == want[i] {
			continue
		}
		target := ErrEntry
		if e.Kind() == vector.Word {
			target = ErrBootWord
		}
		errs = append(errs, fmt.Errorf("vector %d (%s): %#08x, want %#08x: %w", i, e, img.Words[i], want[i], target))
	}

	l, missing := boot.LayoutFrom(img.Symbols)
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%v: %w", missing, ErrLayout))
	} else {
		errs = append(errs, l.Descriptor.Validate())
		errs = append(errs, checkStacks(l, ram)...)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Report{
		Table:     table,
		Layout:    l,
		Strong:    table.Strong(),
		Defaulted: table.Defaulted(),
	}, nil
}

// checkStacks requires the main stack in internal ram and the process stack
// in any of the regions.
func checkStacks(l boot.Layout, ram []boot.Region) []error {
	if len(ram) == 0 {
		return nil
	}
	if err := l.Validate(ram[0]); err == nil {
		return nil
	}

	inside := func(addr uint32, r boot.Region) bool {
		return addr > r.Start && addr <= r.End
	}

	var errs []error
	if !inside(l.MainStackTop, ram[0]) {
		errs = append(errs, fmt.Errorf("%s %#08x: %w", boot.SymMainStackTop, l.MainStackTop, boot.ErrStackOutside))
	}
	found := false
	for _, r := range ram {
		found = found || inside(l.HeapEnd, r)
	}
	if !found {
		errs = append(errs, fmt.Errorf("%s %#08x: %w", boot.SymHeapEnd, l.HeapEnd, boot.ErrStackOutside))
	}
	return errs
}
