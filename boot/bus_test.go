package boot

import "encoding/binary"

// sparseBus is a byte addressed little-endian memory that counts accesses.
type sparseBus struct {
	mem    map[uint32]uint8
	loads  int
	stores int
}

func newSparseBus() *sparseBus {
	return &sparseBus{mem: map[uint32]uint8{}}
}

func (b *sparseBus) Load8(addr uint32) uint8 {
	b.loads++
	return b.mem[addr]
}

func (b *sparseBus) Store8(addr uint32, value uint8) {
	b.stores++
	b.mem[addr] = value
}

func (b *sparseBus) Load32(addr uint32) uint32 {
	b.loads++
	var buf [4]byte
	for i := range buf {
		buf[i] = b.mem[addr+uint32(i)]
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func (b *sparseBus) Store32(addr uint32, value uint32) {
	b.stores++
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	for i, v := range buf {
		b.mem[addr+uint32(i)] = v
	}
}

func (b *sparseBus) fill(r Region, fn func(i uint32) uint8) {
	for a := r.Start; a < r.End; a++ {
		b.mem[a] = fn(a - r.Start)
	}
}
