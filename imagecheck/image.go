// Package imagecheck verifies the vector table and the memory layout of a
// linked image.
package imagecheck

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"omibyte.io/bootcore/vector"
)

var (
	ErrNotARM        = errors.New("not a 32-bit little-endian ARM image")
	ErrNoVectorTable = errors.New("image has no .isr_vector section")
	ErrTableLength   = errors.New("vector table length mismatch")
	ErrEntry         = errors.New("vector table entry mismatch")
	ErrBootWord      = errors.New("boot word altered")
	ErrLayout        = errors.New("linker symbols missing")
)

// VectorSection is the section the vector table is linked into.
const VectorSection = ".isr_vector"

// Image is what the checks need from a linked program.
type Image struct {
	Words   []uint32
	Symbols vector.Symbols
}

// Open reads the image from an ELF file.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read reads the vector table words from the .isr_vector section and the
// defined symbols from the symbol table. A global definition takes
// precedence over a local or weak one of the same name.
func Read(r io.ReaderAt) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if f.Machine != elf.EM_ARM || f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2LSB {
		return nil, ErrNotARM
	}

	sec := f.Section(VectorSection)
	if sec == nil {
		return nil, ErrNoVectorTable
	}
	buf, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", VectorSection, err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%s of %d bytes: %w", VectorSection, len(buf), ErrTableLength)
	}

	img := &Image{
		Words:   make([]uint32, len(buf)/4),
		Symbols: vector.Symbols{},
	}
	for i := range img.Words {
		img.Words[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, err
	}
	for _, s := range syms {
		if len(s.Name) == 0 || s.Section == elf.SHN_UNDEF {
			continue
		}
		value := uint32(s.Value)
		// Thumb functions carry the mode in bit 0
		if elf.ST_TYPE(s.Info) == elf.STT_FUNC {
			value &^= 1
		}
		if _, ok := img.Symbols[s.Name]; !ok || elf.ST_BIND(s.Info) == elf.STB_GLOBAL {
			img.Symbols[s.Name] = value
		}
	}
	return img, nil
}
