package startup

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/tools/imports"

	"omibyte.io/bootcore/boot"
)

// Stage2 is the symbol the reset sequence hands over to.
const Stage2 = "_init"

// System control block registers used to request a reset.
const (
	aircrAddr        = 0xE000ED0C
	aircrSysResetReq = 0x05FA0004
)

func (g *Generator) preamble(w io.Writer) {
	fmt.Fprintln(w, "// Code generated by bootgen. DO NOT EDIT.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "//go:build %s\n\n", g.buildTag())
	fmt.Fprintf(w, "package %s\n\n", g.pkg())
}

func format(fname string, src string, w io.Writer) error {
	buf, err := imports.Process(fname, []byte(src), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return fmt.Errorf("error formatting %s: %w", fname, err)
	}
	_, err = w.Write(buf)
	return err
}

// WriteRuntime writes the Go half of the reset sequence: the memory image
// initializer, the handoff to stage 2 and the reset request. The routine
// behind Default_Handler is left to the next stage, which exports it as
// unexpected_interrupt.
func (g *Generator) WriteRuntime(w io.Writer) error {
	var b strings.Builder
	g.preamble(&b)

	fmt.Fprintln(&b, "import (")
	fmt.Fprintln(&b, `"unsafe"`)
	fmt.Fprintln(&b, `"volatile"`)
	fmt.Fprintln(&b, ")")
	fmt.Fprintln(&b)

	for _, sym := range boot.LayoutSymbols {
		fmt.Fprintf(&b, "//sigo:extern %[1]s %[1]s\nvar %[1]s unsafe.Pointer\n\n", sym)
	}

	fmt.Fprintf(&b, "//go:linkname stage2 %s\nfunc stage2()\n\n", Stage2)

	fmt.Fprintf(&b, `func initMemory() {
	// Copy .data from flash
	dst := unsafe.Pointer(&%[1]s)
	src := unsafe.Pointer(&%[2]s)
	edata := unsafe.Pointer(&%[3]s)
	for dst != edata {
		*(*uint32)(dst) = *(*uint32)(src)
		dst = unsafe.Add(dst, 4)
		src = unsafe.Add(src, 4)
	}

	// Zero .bss
	ebss := unsafe.Pointer(&%[5]s)
	for ptr := unsafe.Pointer(&%[4]s); ptr != ebss; ptr = unsafe.Add(ptr, 4) {
		*(*uint32)(ptr) = 0
	}
}

func systemReset() {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(0x%08[6]X))), 0x%08[7]X)
}

//go:export programStartup %[8]s
func programStartup() {
	initMemory()
	stage2()

	// Stage 2 is not supposed to return
	systemReset()
	for {
	}
}
`, boot.SymDataStart, boot.SymImage, boot.SymDataEnd, boot.SymBSSStart, boot.SymBSSEnd,
		uint32(aircrAddr), uint32(aircrSysResetReq), ProgramStartup)

	return format(RuntimeFile, b.String(), w)
}

// WriteBoard writes the settings of the selected board as constants.
func (g *Generator) WriteBoard(w io.Writer) error {
	board := g.opts.Board
	if board == nil {
		return ErrNoBoard
	}

	var b strings.Builder
	g.preamble(&b)

	fmt.Fprintf(&b, "// %s board settings.\n", board.Name)
	fmt.Fprintln(&b, "const (")
	fmt.Fprintf(&b, "Board = %q\n", board.Name)
	fmt.Fprintf(&b, "MainStackSize = %d\n", g.opts.Device.MainStackSize(board))
	fmt.Fprintf(&b, "DefaultSerialSpeed = %d\n", board.DefaultSerialSpeed)
	fmt.Fprintf(&b, "SDVoltage = %d\n", board.SDVoltage)
	fmt.Fprintf(&b, "SDOneBitBus = %t\n", board.SDOneBitBus)
	fmt.Fprintf(&b, "StdoutDCC = %t\n", board.StdoutDCC)
	fmt.Fprintln(&b, ")")
	fmt.Fprintln(&b)

	ports := make([]string, len(board.SerialDMA))
	for i, p := range board.SerialDMA {
		ports[i] = fmt.Sprint(p)
	}
	fmt.Fprintln(&b, "// SerialDMA lists the serial ports that transfer with DMA.")
	fmt.Fprintf(&b, "var SerialDMA = [...]int{%s}\n", strings.Join(ports, ", "))

	return format(BoardFile, b.String(), w)
}
