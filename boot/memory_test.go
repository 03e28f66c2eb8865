package boot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pattern(i uint32) uint8 {
	return uint8(i*7 + 3)
}

func TestInitMemory(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
	}{
		{
			"reference",
			Descriptor{
				Image: 0x1000,
				Data:  Region{0x2000, 0x2064},
				BSS:   Region{0x3000, 0x3032},
			},
		},
		{
			"unalignedImage",
			Descriptor{
				Image: 0x1001,
				Data:  Region{0x2000, 0x2011},
				BSS:   Region{0x3003, 0x3009},
			},
		},
		{
			"unalignedData",
			Descriptor{
				Image: 0x1000,
				Data:  Region{0x2002, 0x2013},
				BSS:   Region{0x3000, 0x3001},
			},
		},
		{
			"wordSized",
			Descriptor{
				Image: 0x0800_4000,
				Data:  Region{0x2000_0000, 0x2000_0100},
				BSS:   Region{0x2000_0100, 0x2000_0400},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			bus := newSparseBus()

			bus.fill(tc.desc.ImageRegion(), pattern)
			bus.fill(tc.desc.BSS, func(uint32) uint8 { return 0xA5 })

			InitMemory(bus, tc.desc)

			for i := uint32(0); i < tc.desc.Data.Len(); i++ {
				if !assert.Equal(pattern(i), bus.mem[tc.desc.Data.Start+i], "data byte %d", i) {
					break
				}
			}
			for a := tc.desc.BSS.Start; a < tc.desc.BSS.End; a++ {
				if !assert.Zero(bus.mem[a], "bss byte %#x", a) {
					break
				}
			}

			// Nothing outside of the two regions is written
			for a := range bus.mem {
				if tc.desc.Data.Contains(a) || tc.desc.BSS.Contains(a) || tc.desc.ImageRegion().Contains(a) {
					continue
				}
				t.Errorf("unexpected write at %#x", a)
			}
		})
	}
}

func TestInitMemoryKeepsNeighbours(t *testing.T) {
	assert := assert.New(t)
	bus := newSparseBus()
	desc := Descriptor{
		Image: 0x1000,
		Data:  Region{0x2001, 0x2006},
		BSS:   Region{0x2006, 0x200B},
	}

	bus.fill(desc.ImageRegion(), pattern)
	bus.mem[0x2000] = 0xEE
	bus.mem[0x200B] = 0xEE

	InitMemory(bus, desc)

	assert.Equal(uint8(0xEE), bus.mem[0x2000])
	assert.Equal(uint8(0xEE), bus.mem[0x200B])
	for i := uint32(0); i < 5; i++ {
		assert.Equal(pattern(i), bus.mem[0x2001+i])
		assert.Zero(bus.mem[0x2006+i])
	}
}

func TestInitMemoryEmptyRegions(t *testing.T) {
	assert := assert.New(t)
	bus := newSparseBus()

	InitMemory(bus, Descriptor{
		Image: 0x1000,
		Data:  Region{0x2000, 0x2000},
		BSS:   Region{0x3000, 0x3000},
	})

	assert.Zero(bus.loads)
	assert.Zero(bus.stores)
	assert.Empty(bus.mem)
}

func TestInitMemoryUsesWords(t *testing.T) {
	assert := assert.New(t)
	bus := newSparseBus()
	desc := Descriptor{
		Image: 0x1000,
		Data:  Region{0x2000, 0x2040},
		BSS:   Region{0x3000, 0x3040},
	}

	InitMemory(bus, desc)

	// 16 word copies and 16 word clears
	assert.Equal(32, bus.stores)
	assert.Equal(16, bus.loads)
}
