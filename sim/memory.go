package sim

import (
	"encoding/binary"
	"fmt"

	"omibyte.io/bootcore/boot"
)

// BusFault is raised by an access to unmapped, read-only or not yet
// available memory.
type BusFault struct {
	Addr  uint32
	Write bool
	Cause string
}

func (f BusFault) Error() string {
	op := "read"
	if f.Write {
		op = "write"
	}
	return fmt.Sprintf("%s at %#08x: %s", op, f.Addr, f.Cause)
}

type area struct {
	name     string
	span     boot.Region
	data     []byte
	readOnly bool

	// gated memory is not addressable until SystemInit enables it
	gated bool
	ready bool
}

// Memory is a little-endian memory map. It implements boot.Bus.
type Memory struct {
	areas []*area

	// OnFault is called before a fault is raised. It may not return.
	OnFault func(f BusFault)

	// OnFirstStore is called once, on the first store into a watched region.
	OnFirstStore func(addr uint32)
	watch        []boot.Region
	stored       bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// Map adds a memory area.
func (m *Memory) Map(name string, span boot.Region, readOnly, gated bool) error {
	for _, a := range m.areas {
		if a.span.Overlaps(span) {
			return fmt.Errorf("%s %s overlaps %s %s", name, span, a.name, a.span)
		}
	}
	m.areas = append(m.areas, &area{
		name:     name,
		span:     span,
		data:     make([]byte, span.Len()),
		readOnly: readOnly,
		gated:    gated,
		ready:    !gated,
	})
	return nil
}

// Enable makes gated areas addressable.
func (m *Memory) Enable() {
	for _, a := range m.areas {
		a.ready = true
	}
}

// PowerOff puts gated areas back into their reset state.
func (m *Memory) PowerOff() {
	for _, a := range m.areas {
		if a.gated {
			a.ready = false
		}
	}
	m.stored = false
}

// Watch reports the first store into any of the regions.
func (m *Memory) Watch(regions ...boot.Region) {
	m.watch = append(m.watch[:0], regions...)
	m.stored = false
}

// Program writes into any area, read-only or not, the way a flash loader
// does.
func (m *Memory) Program(addr uint32, buf []byte) error {
	a := m.lookup(addr, uint32(len(buf)))
	if a == nil {
		return BusFault{Addr: addr, Write: true, Cause: "unmapped"}
	}
	copy(a.data[addr-a.span.Start:], buf)
	return nil
}

// Read copies memory out without the access checks.
func (m *Memory) Read(addr uint32, n uint32) ([]byte, error) {
	a := m.lookup(addr, n)
	if a == nil {
		return nil, BusFault{Addr: addr, Cause: "unmapped"}
	}
	off := addr - a.span.Start
	return append([]byte(nil), a.data[off:off+n]...), nil
}

func (m *Memory) lookup(addr, n uint32) *area {
	for _, a := range m.areas {
		if a.span.Contains(addr) && (n == 0 || addr+n-1 < a.span.End && addr+n-1 >= addr) {
			return a
		}
	}
	return nil
}

func (m *Memory) access(addr, n uint32, write bool) []byte {
	a := m.lookup(addr, n)

	var cause string
	switch {
	case a == nil:
		cause = "unmapped"
	case !a.ready:
		cause = a.name + " not enabled"
	case write && a.readOnly:
		cause = a.name + " is read-only"
	}

	if len(cause) > 0 {
		f := BusFault{Addr: addr, Write: write, Cause: cause}
		if m.OnFault != nil {
			m.OnFault(f)
		}
		panic(f)
	}

	if write && !m.stored && m.OnFirstStore != nil {
		for _, r := range m.watch {
			if r.Contains(addr) {
				m.stored = true
				m.OnFirstStore(addr)
				break
			}
		}
	}

	off := addr - a.span.Start
	return a.data[off : off+n]
}

func (m *Memory) Load8(addr uint32) uint8 {
	return m.access(addr, 1, false)[0]
}

func (m *Memory) Store8(addr uint32, value uint8) {
	m.access(addr, 1, true)[0] = value
}

func (m *Memory) Load32(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(m.access(addr, 4, false))
}

func (m *Memory) Store32(addr uint32, value uint32) {
	binary.LittleEndian.PutUint32(m.access(addr, 4, true), value)
}
