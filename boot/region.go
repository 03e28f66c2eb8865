package boot

import (
	"errors"
	"fmt"
)

// Region is a half-open range of raw bytes [Start, End).
type Region struct {
	Start uint32
	End   uint32
}

func (r Region) Len() uint32 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

func (r Region) Empty() bool {
	return r.Len() == 0
}

func (r Region) Contains(addr uint32) bool {
	return addr >= r.Start && addr < r.End
}

func (r Region) Overlaps(other Region) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("[%#08x, %#08x)", r.Start, r.End)
}

// Descriptor holds the boundary addresses of the writable memory image as
// they were fixed by the link step.
type Descriptor struct {
	// Image is the load address of the initialized data, the first byte after
	// the text section in flash.
	Image uint32

	Data Region
	BSS  Region
}

// ImageRegion returns the span in flash that is copied into Data.
func (d Descriptor) ImageRegion() Region {
	return Region{Start: d.Image, End: d.Image + d.Data.Len()}
}

// Validate checks the link-time invariants of the descriptor. The reset
// sequence never calls this; it is for tools that inspect a linked image.
func (d Descriptor) Validate() error {
	var errs []error
	if d.Data.End < d.Data.Start {
		errs = append(errs, fmt.Errorf(".data %s: %w", d.Data, ErrRegionInverted))
	}
	if d.BSS.End < d.BSS.Start {
		errs = append(errs, fmt.Errorf(".bss %s: %w", d.BSS, ErrRegionInverted))
	}
	if d.Data.Overlaps(d.BSS) {
		errs = append(errs, fmt.Errorf(".data %s and .bss %s: %w", d.Data, d.BSS, ErrRegionOverlap))
	}
	if img := d.ImageRegion(); img.Overlaps(d.Data) && img.Start != d.Data.Start {
		errs = append(errs, fmt.Errorf("image %s and .data %s: %w", img, d.Data, ErrImageOverlap))
	}
	return errors.Join(errs...)
}

// Layout is every linker-provided address the reset sequence consumes.
type Layout struct {
	Descriptor

	// MainStackTop is the initial main stack pointer, stored in vector 0.
	MainStackTop uint32

	// HeapEnd is used as the temporary process stack until the first thread
	// of the next stage starts.
	HeapEnd uint32
}

// Validate checks the descriptor and that both stack addresses lie inside ram.
func (l Layout) Validate(ram Region) error {
	errs := []error{l.Descriptor.Validate()}

	// A full descending stack may start at the very end of ram
	inRAM := func(addr uint32) bool {
		return addr > ram.Start && addr <= ram.End
	}
	if !inRAM(l.MainStackTop) {
		errs = append(errs, fmt.Errorf("_main_stack_top %#08x: %w", l.MainStackTop, ErrStackOutside))
	}
	if !inRAM(l.HeapEnd) {
		errs = append(errs, fmt.Errorf("_heap_end %#08x: %w", l.HeapEnd, ErrStackOutside))
	}
	return errors.Join(errs...)
}
