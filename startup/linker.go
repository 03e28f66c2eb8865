package startup

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/targets"
	"omibyte.io/bootcore/vector"
)

func memoryLine(w io.Writer, name, attrs string, m targets.Memory) {
	fmt.Fprintf(w, "\t%-5s (%s) : ORIGIN = 0x%08X, LENGTH = %s\n", name, attrs, uint32(m.Origin), m.Size)
}

// WriteLinkerScript writes the memory map and the sections. The main stack
// sits at the bottom of ram, .data and .bss follow it unless external ram
// is configured, and the heap runs up to the end of the region.
func (g *Generator) WriteLinkerScript(w io.Writer) error {
	dev := g.opts.Device
	var b strings.Builder

	dataRegion := "RAM"
	fmt.Fprintf(&b, "/* %s */\n", dev.Name)
	fmt.Fprintf(&b, "ENTRY(%s)\n\n", vector.ResetHandler)
	fmt.Fprintln(&b, "MEMORY")
	fmt.Fprintln(&b, "{")
	memoryLine(&b, "FLASH", "rx", dev.Flash)
	memoryLine(&b, "RAM", "xrw", dev.RAM)
	if g.opts.XRAM != nil {
		memoryLine(&b, "XRAM", "xrw", *g.opts.XRAM)
		dataRegion = "XRAM"
	}
	fmt.Fprintln(&b, "}")
	fmt.Fprintln(&b)

	stack := dev.MainStackSize(g.opts.Board)
	if stack%targets.StackAlign != 0 {
		return fmt.Errorf("main stack of %d bytes: %w", stack, ErrStackAlignment)
	}
	if stack >= dev.RAM.Region().Len() {
		return fmt.Errorf("main stack of %d bytes in %s of ram: %w", stack, dev.RAM.Size, ErrStackTooLarge)
	}
	fmt.Fprintf(&b, "_main_stack_size = 0x%08X;\n", stack)
	fmt.Fprintf(&b, "%s = ORIGIN(RAM) + _main_stack_size;\n", boot.SymMainStackTop)
	fmt.Fprintf(&b, "%s = ORIGIN(%[2]s) + LENGTH(%[2]s);\n", boot.SymHeapEnd, dataRegion)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, `SECTIONS
{
	.text :
	{
		KEEP(*(.isr_vector))
		*(.text)
		*(.text.*)
		*(.rodata)
		*(.rodata.*)
		. = ALIGN(4);
		%[1]s = .;
	} > FLASH

	.main_stack (NOLOAD) :
	{
		. = . + _main_stack_size;
		. = ALIGN(8);
	} > RAM

	.data : AT(%[1]s) ALIGN(4)
	{
		. = ALIGN(4);
		%[2]s = .;
		*(.data)
		*(.data.*)
		. = ALIGN(4);
		%[3]s = .;
	} > %[6]s

	.bss (NOLOAD) :
	{
		. = ALIGN(4);
		%[4]s = .;
		*(.bss)
		*(.bss.*)
		*(COMMON)
		. = ALIGN(4);
		%[5]s = .;
	} > %[6]s

	_end = .;
}

ASSERT(%[1]s + (%[3]s - %[2]s) <= ORIGIN(FLASH) + LENGTH(FLASH), "data image does not fit in flash")
ASSERT((_main_stack_size & 7) == 0, "main stack size is not a multiple of 8")
`, boot.SymImage, boot.SymDataStart, boot.SymDataEnd, boot.SymBSSStart, boot.SymBSSEnd, dataRegion)

	_, err := io.WriteString(w, b.String())
	return err
}
