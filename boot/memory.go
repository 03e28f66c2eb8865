package boot

// Bus is the processor's view of memory during bring-up. Accesses are
// assumed to succeed; a faulting access is the hardware's business.
type Bus interface {
	Load8(addr uint32) uint8
	Store8(addr uint32, value uint8)
	Load32(addr uint32) uint32
	Store32(addr uint32, value uint32)
}

// InitMemory copies the initialized data image into place and zeroes the
// uninitialized data region. The descriptor is trusted as is.
func InitMemory(bus Bus, d Descriptor) {
	copyImage(bus, d.Data, d.Image)
	zero(bus, d.BSS)
}

func copyImage(bus Bus, dst Region, src uint32) {
	n := dst.Len()
	if n == 0 {
		return
	}

	addr := dst.Start
	end := dst.End

	// Move whole words while both sides are aligned
	if addr&3 == 0 && src&3 == 0 {
		for ; end-addr >= 4; addr, src = addr+4, src+4 {
			bus.Store32(addr, bus.Load32(src))
		}
	}

	// Copy whatever is left a byte at a time
	for ; addr != end; addr, src = addr+1, src+1 {
		bus.Store8(addr, bus.Load8(src))
	}
}

func zero(bus Bus, r Region) {
	if r.Empty() {
		return
	}

	addr := r.Start
	for ; addr != r.End && addr&3 != 0; addr++ {
		bus.Store8(addr, 0)
	}
	for ; r.End-addr >= 4; addr += 4 {
		bus.Store32(addr, 0)
	}
	for ; addr != r.End; addr++ {
		bus.Store8(addr, 0)
	}
}
