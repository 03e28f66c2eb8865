package sim

import (
	"fmt"
)

type EventKind int

const (
	EvDisableIRQ EventKind = iota
	EvEnableIRQ
	EvSystemInit
	EvSwitchStack
	EvMemoryInit
	EvHandoff
	EvReset
	EvHalt
	EvException
	EvPending
	EvFault
)

var eventNames = [...]string{
	EvDisableIRQ:  "cpsid i",
	EvEnableIRQ:   "cpsie i",
	EvSystemInit:  "SystemInit",
	EvSwitchStack: "switch stack",
	EvMemoryInit:  "memory init",
	EvHandoff:     "stage 2",
	EvReset:       "system reset",
	EvHalt:        "halt",
	EvException:   "exception",
	EvPending:     "pending",
	EvFault:       "bus fault",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one observable step of the simulated processor.
type Event struct {
	Kind      EventKind
	Exception int
	Addr      uint32
	Value     uint32
	Detail    string
}

func (e Event) String() string {
	switch e.Kind {
	case EvSwitchStack:
		return fmt.Sprintf("%s psp=%#08x control=%d", e.Kind, e.Addr, e.Value)
	case EvMemoryInit:
		return fmt.Sprintf("%s first store at %#08x", e.Kind, e.Addr)
	case EvException, EvPending:
		return fmt.Sprintf("%s %d (%s)", e.Kind, e.Exception, e.Detail)
	case EvFault:
		return fmt.Sprintf("%s at %#08x: %s", e.Kind, e.Addr, e.Detail)
	default:
		return e.Kind.String()
	}
}

type Trace []Event

func (t Trace) Index(kind EventKind) int {
	for i, e := range t {
		if e.Kind == kind {
			return i
		}
	}
	return -1
}

func (t Trace) Count(kind EventKind) int {
	n := 0
	for _, e := range t {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Kinds returns the kind of every event in order.
func (t Trace) Kinds() []EventKind {
	kinds := make([]EventKind, len(t))
	for i, e := range t {
		kinds[i] = e.Kind
	}
	return kinds
}
