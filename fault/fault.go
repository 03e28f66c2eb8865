// Package fault is the single path for hardware events nothing else handles.
package fault

import (
	"errors"
	"fmt"
	"io"

	"omibyte.io/bootcore/vector"
)

var ErrUnexpected = errors.New("unexpected interrupt")

// Processor is what the default handler needs from the core.
type Processor interface {
	// ActiveException returns the exception number being serviced (IPSR).
	ActiveException() int
	Halt()
}

// Event describes an exception that reached the default handler.
type Event struct {
	Exception int
	Vector    string
}

func (e Event) IRQ() (int, bool) {
	n := e.Exception - vector.NumSystemExceptions
	return n, n >= 0
}

func (e Event) Error() string {
	if irq, ok := e.IRQ(); ok {
		return fmt.Sprintf("%v: irq %d (%s)", ErrUnexpected, irq, e.Vector)
	}
	return fmt.Sprintf("%v: exception %d (%s)", ErrUnexpected, e.Exception, e.Vector)
}

func (e Event) Unwrap() error {
	return ErrUnexpected
}

type Reporter interface {
	Report(ev Event)
}

type ReporterFunc func(ev Event)

func (f ReporterFunc) Report(ev Event) {
	f(ev)
}

// Writer reports events as text lines.
func Writer(w io.Writer) Reporter {
	return ReporterFunc(func(ev Event) {
		fmt.Fprintln(w, ev.Error())
	})
}

// Unexpected reports the active exception and parks the processor.
func Unexpected(cpu Processor, layout vector.Layout, r Reporter) {
	n := cpu.ActiveException()
	ev := Event{Exception: n, Vector: "?"}
	if n >= 0 && n < layout.Len() {
		if s := layout.Slots[n]; s.Kind == vector.Handler {
			ev.Vector = s.Name
		}
	}

	if r != nil {
		r.Report(ev)
	}

	// There is no way back to the interrupted context
	for {
		cpu.Halt()
	}
}

// Default returns the routine every unbound handler slot is aliased to.
func Default(cpu Processor, layout vector.Layout, r Reporter) func() {
	return func() {
		Unexpected(cpu, layout, r)
	}
}
