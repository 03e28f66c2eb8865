package sim

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/vector"
)

var ErrNotRaisable = errors.New("exception cannot be raised")

// Exception numbers the core raises itself.
const (
	ExcReset     = 1
	ExcNMI       = 2
	ExcHardFault = 3
)

// Stop values unwind the simulated processor out of the boot sequence.
type (
	resetSignal struct{}
	haltSignal  struct{}
	idleSignal  struct{}
)

// Core is a simulated Cortex-M core. It implements boot.Processor and
// fault.Processor.
type Core struct {
	// IgnoreReset makes SystemReset a no-op, as if the request got lost.
	IgnoreReset bool

	// SkipSystemInit leaves gated memory disabled.
	SkipSystemInit bool

	primask bool
	msp     uint32
	psp     uint32
	control boot.Control
	active  []int
	pending []int
	resets  int

	mem   *Memory
	table *vector.Table
	trace *Trace
}

func (c *Core) emit(e Event) {
	*c.trace = append(*c.trace, e)
}

// powerOn puts the core in its reset state.
func (c *Core) powerOn(msp uint32) {
	c.primask = false
	c.msp = msp
	c.psp = 0
	c.control = 0
	c.active = c.active[:0]
	c.pending = c.pending[:0]
}

func (c *Core) DisableInterrupts() {
	c.primask = true
	c.emit(Event{Kind: EvDisableIRQ})
}

// EnableInterrupts clears PRIMASK and takes whatever became pending in the
// meantime, lowest exception number first.
func (c *Core) EnableInterrupts() {
	c.primask = false
	c.emit(Event{Kind: EvEnableIRQ})

	pending := c.pending
	c.pending = nil
	slices.Sort(pending)
	for _, n := range pending {
		c.take(n)
	}
}

func (c *Core) SystemInit() {
	c.emit(Event{Kind: EvSystemInit})
	if !c.SkipSystemInit {
		c.mem.Enable()
	}
}

func (c *Core) SwitchStack(top uint32, control boot.Control) {
	c.psp = top
	c.control = control
	c.emit(Event{Kind: EvSwitchStack, Addr: top, Value: uint32(control)})
}

func (c *Core) SystemReset() {
	c.resets++
	c.emit(Event{Kind: EvReset})
	if !c.IgnoreReset {
		panic(resetSignal{})
	}
}

func (c *Core) Halt() {
	c.emit(Event{Kind: EvHalt})
	panic(haltSignal{})
}

// Idle parks the core on behalf of a next stage that is up and running.
func (c *Core) Idle() {
	panic(idleSignal{})
}

// ActiveException returns the exception being serviced, 0 in thread mode.
func (c *Core) ActiveException() int {
	if len(c.active) == 0 {
		return 0
	}
	return c.active[len(c.active)-1]
}

func (c *Core) Primask() bool {
	return c.primask
}

func (c *Core) MSP() uint32 {
	return c.msp
}

func (c *Core) PSP() uint32 {
	return c.psp
}

func (c *Core) Control() boot.Control {
	return c.control
}

// Pending returns the exceptions waiting for interrupts to be enabled.
func (c *Core) Pending() []int {
	return slices.Clone(c.pending)
}

// Resets returns how many resets were requested since the machine was built.
func (c *Core) Resets() int {
	return c.resets
}

// Raise signals exception n. PRIMASK holds back everything but NMI and
// HardFault.
func (c *Core) Raise(n int) error {
	e, err := c.table.At(n)
	if err != nil {
		return err
	}
	if n <= ExcReset || e.Kind() != vector.Handler {
		return fmt.Errorf("%d: %w", n, ErrNotRaisable)
	}

	if c.primask && n > ExcHardFault {
		if !slices.Contains(c.pending, n) {
			c.pending = append(c.pending, n)
			c.emit(Event{Kind: EvPending, Exception: n, Detail: e.Name()})
		}
		return nil
	}

	c.take(n)
	return nil
}

func (c *Core) take(n int) {
	e, _ := c.table.At(n)
	c.emit(Event{Kind: EvException, Exception: n, Detail: e.Target()})

	c.active = append(c.active, n)
	defer func() {
		c.active = c.active[:len(c.active)-1]
	}()

	if err := c.table.Dispatch(n); err != nil {
		panic(err)
	}
}
