package startup

import (
	"fmt"
	"io"
	"strings"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/vector"
)

// Symbols the assembler side expects from the Go side.
const (
	ProgramStartup      = "program_startup"
	UnexpectedInterrupt = "unexpected_interrupt"
	SystemInit          = "SystemInit"
)

// WriteVectorAssembly writes the vector table, the reset entry and the
// default handler. Every handler that is not required is a weak alias of
// Default_Handler, so the linker keeps whatever strong definition the
// program supplies.
func (g *Generator) WriteVectorAssembly(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "// %s vector table and reset entry\n\n", g.opts.Device.Name)
	fmt.Fprintln(&b, ".syntax unified")
	fmt.Fprintf(&b, ".cpu %s\n", g.opts.Device.Cpu)
	fmt.Fprintln(&b, ".thumb")
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, `// Runs for every interrupt that is triggered but not defined.
.section .text.%[1]s,"ax",%%progbits
.global  %[1]s
.type    %[1]s, %%function
%[1]s:
    b    %[2]s
.size %[1]s, .-%[1]s

// Reports the active exception on the fatal fault path. The next stage
// supplies it; without one the core is parked with interrupts masked.
.section .text.%[2]s_default,"ax",%%progbits
.type    %[2]s_default, %%function
%[2]s_default:
    cpsid i
    b    .
.size %[2]s_default, .-%[2]s_default
.weak       %[2]s
.thumb_set  %[2]s, %[2]s_default

// Clock and memory controller setup, replaced by the board support code.
.section .text.system_init_default,"ax",%%progbits
.type    system_init_default, %%function
system_init_default:
    bx   lr
.size system_init_default, .-system_init_default
.weak       %[3]s
.thumb_set  %[3]s, system_init_default

// Called by the hardware out of reset on the main stack. %[3]s runs
// before .data and .bss are touched since they may live in memory it
// enables. %[4]s is used as process stack until the first thread starts.
.section .text.%[5]s,"ax",%%progbits
.global  %[5]s
.type    %[5]s, %%function
%[5]s:
    cpsid i
    bl    %[3]s
    ldr   r0, =%[4]s
    msr   psp, r0
    movs  r0, #%[7]d
    msr   control, r0
    isb
    bl    %[6]s
    b     .
.size %[5]s, .-%[5]s

.macro IRQ handler
    .weak       \handler
    .thumb_set  \handler, %[1]s
.endm

`, vector.DefaultHandler, UnexpectedInterrupt, SystemInit, boot.SymHeapEnd, vector.ResetHandler, ProgramStartup, boot.PrivilegedProcessStack)

	// The "a" flag keeps the section in the image
	io.WriteString(&b, ".section .isr_vector,\"a\",%progbits\n")
	fmt.Fprintln(&b, ".global  __isr_vector")
	fmt.Fprintln(&b, "__isr_vector:")
	for i, s := range g.layout.Slots {
		var value string
		switch s.Kind {
		case vector.StackPointer, vector.Handler:
			value = s.Name
		case vector.Reserved:
			value = "0"
		case vector.Word:
			value = fmt.Sprintf("0x%08X", s.Value)
		}

		comment := s.Description
		if len(comment) == 0 {
			comment = s.Kind.String()
		}
		fmt.Fprintf(&b, "    .long %-32s /* %d: %s */\n", value, i, comment)
	}
	fmt.Fprintln(&b)

	for _, s := range g.layout.Slots {
		if s.Kind != vector.Handler || s.Required {
			continue
		}
		fmt.Fprintf(&b, "    IRQ %s\n", s.Name)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
