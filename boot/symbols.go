package boot

// Linker symbols that carry the Layout into the image.
const (
	SymImage        = "_etext"
	SymDataStart    = "_data"
	SymDataEnd      = "_edata"
	SymBSSStart     = "_bss_start"
	SymBSSEnd       = "_bss_end"
	SymMainStackTop = "_main_stack_top"
	SymHeapEnd      = "_heap_end"
)

// LayoutSymbols lists the linker symbols of a Layout in address order.
var LayoutSymbols = []string{
	SymMainStackTop,
	SymImage,
	SymDataStart,
	SymDataEnd,
	SymBSSStart,
	SymBSSEnd,
	SymHeapEnd,
}

// LayoutFrom reads a Layout back from the linker symbols. It returns the
// names of the symbols that are missing.
func LayoutFrom(syms map[string]uint32) (Layout, []string) {
	var missing []string
	get := func(name string) uint32 {
		v, ok := syms[name]
		if !ok {
			missing = append(missing, name)
		}
		return v
	}

	l := Layout{
		Descriptor: Descriptor{
			Image: get(SymImage),
			Data:  Region{Start: get(SymDataStart), End: get(SymDataEnd)},
			BSS:   Region{Start: get(SymBSSStart), End: get(SymBSSEnd)},
		},
		MainStackTop: get(SymMainStackTop),
		HeapEnd:      get(SymHeapEnd),
	}
	return l, missing
}

// Symbols returns the linker symbols of the layout.
func (l Layout) Symbols() map[string]uint32 {
	return map[string]uint32{
		SymImage:        l.Image,
		SymDataStart:    l.Data.Start,
		SymDataEnd:      l.Data.End,
		SymBSSStart:     l.BSS.Start,
		SymBSSEnd:       l.BSS.End,
		SymMainStackTop: l.MainStackTop,
		SymHeapEnd:      l.HeapEnd,
	}
}
