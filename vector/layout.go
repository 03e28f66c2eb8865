package vector

import (
	"fmt"
)

const (
	ResetHandler   = "Reset_Handler"
	DefaultHandler = "Default_Handler"
	StackTop       = "_main_stack_top"
)

// NumSystemExceptions is the number of entries the ARMv7-M architecture
// defines ahead of the first device interrupt.
const NumSystemExceptions = 16

// Slot describes one position of a vector table before handlers are bound.
type Slot struct {
	Kind Kind

	// Name is the handler symbol for Handler slots.
	Name string

	// Value is the literal contents of a Word slot.
	Value uint32

	// Required slots are never bound to the default handler.
	Required bool

	Description string
}

// Layout is the ordered list of slots, indexed by exception number.
type Layout struct {
	Name  string
	Slots []Slot
}

func (l Layout) Len() int {
	return len(l.Slots)
}

// Index returns the exception number of the named handler.
func (l Layout) Index(name string) (int, bool) {
	for i, s := range l.Slots {
		if s.Kind == Handler && s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Handlers returns the names of all handler slots in table order.
func (l Layout) Handlers() []string {
	var names []string
	for _, s := range l.Slots {
		if s.Kind == Handler {
			names = append(names, s.Name)
		}
	}
	return names
}

// Require marks the named handlers as required. It returns a copy.
func (l Layout) Require(names ...string) (Layout, error) {
	slots := make([]Slot, len(l.Slots))
	copy(slots, l.Slots)
	for _, name := range names {
		i, ok := l.Index(name)
		if !ok {
			return l, fmt.Errorf("%s: %w", name, ErrUnknownHandler)
		}
		slots[i].Required = true
	}
	return Layout{Name: l.Name, Slots: slots}, nil
}

// Validate checks the fixed entries and that every handler name is unique.
func (l Layout) Validate() error {
	if len(l.Slots) < 2 {
		return fmt.Errorf("%s: %d entries: %w", l.Name, len(l.Slots), ErrMalformedLayout)
	}
	if l.Slots[0].Kind != StackPointer {
		return fmt.Errorf("%s: entry 0 is a %s: %w", l.Name, l.Slots[0].Kind, ErrMalformedLayout)
	}
	if l.Slots[1].Kind != Handler || l.Slots[1].Name != ResetHandler {
		return fmt.Errorf("%s: entry 1 is not %s: %w", l.Name, ResetHandler, ErrMalformedLayout)
	}

	seen := map[string]int{}
	for i, s := range l.Slots {
		switch s.Kind {
		case StackPointer:
			if i != 0 {
				return fmt.Errorf("%s: stack pointer at %d: %w", l.Name, i, ErrMalformedLayout)
			}
		case Handler:
			if len(s.Name) == 0 || s.Name == DefaultHandler {
				return fmt.Errorf("%s: bad handler name %q at %d: %w", l.Name, s.Name, i, ErrMalformedLayout)
			}
			if j, ok := seen[s.Name]; ok {
				return fmt.Errorf("%s: %s at %d and %d: %w", l.Name, s.Name, j, i, ErrDuplicateSlot)
			}
			seen[s.Name] = i
		}
	}
	return nil
}

// Padding returns n reserved slots.
func Padding(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i].Kind = Reserved
	}
	return slots
}

// BootWord returns a literal slot, such as the STM32L1 boot in ram marker.
func BootWord(value uint32, description string) Slot {
	return Slot{Kind: Word, Value: value, Description: description}
}

func handler(name, description string) Slot {
	return Slot{Kind: Handler, Name: name, Description: description}
}

// CortexM builds the ARMv7-M table: the stack pointer, the reset entry and the
// system exceptions, followed by the device interrupts in hardware order and
// then the trailer. An empty interrupt name is a reserved position.
func CortexM(name string, irqs []string, suffix string, trailer ...Slot) Layout {
	slots := []Slot{
		{Kind: StackPointer, Name: StackTop, Description: "Stack pointer"},
		{Kind: Handler, Name: ResetHandler, Required: true, Description: "Reset Handler"},
		handler("NMI_Handler", "NMI Handler"),
		handler("HardFault_Handler", "Hard Fault Handler"),
		handler("MemManage_Handler", "MPU Fault Handler"),
		handler("BusFault_Handler", "Bus Fault Handler"),
		handler("UsageFault_Handler", "Usage Fault Handler"),
	}
	slots = append(slots, Padding(4)...)
	slots = append(slots,
		handler("SVC_Handler", "SVCall Handler"),
		handler("DebugMon_Handler", "Debug Monitor Handler"),
	)
	slots = append(slots, Padding(1)...)
	slots = append(slots,
		handler("PendSV_Handler", "PendSV Handler"),
		handler("SysTick_Handler", "SysTick Handler"),
	)

	for i, irq := range irqs {
		if len(irq) == 0 {
			slots = append(slots, Slot{Kind: Reserved})
			continue
		}
		slots = append(slots, Slot{
			Kind:        Handler,
			Name:        irq + suffix,
			Description: fmt.Sprintf("IRQ %d", i),
		})
	}

	slots = append(slots, trailer...)
	return Layout{Name: name, Slots: slots}
}
