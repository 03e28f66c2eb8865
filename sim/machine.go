// Package sim runs the reset sequence on a simulated Cortex-M memory map.
package sim

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/fault"
	"omibyte.io/bootcore/targets"
	"omibyte.io/bootcore/vector"
)

var (
	ErrResetBound     = errors.New("the reset handler belongs to the machine")
	ErrImageTooLarge  = errors.New("image does not fit in flash")
	ErrOutOfRAM       = errors.New("data does not fit in ram")
	ErrBadResetVector = errors.New("reset vector does not point at the reset handler")
	ErrReturned       = errors.New("reset handler returned")
)

// handlerSize is the room each handler symbol gets in the simulated text.
const handlerSize = 0x40

type Outcome int

const (
	// Running means the next stage took over and parked the core.
	Running Outcome = iota
	Rebooted
	Halted
	Faulted
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Rebooted:
		return "rebooted"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Options struct {
	// Handlers are the strong definitions of the next stage.
	Handlers vector.Bindings

	// Reporter receives the events of the default handler.
	Reporter fault.Reporter

	Board *targets.Board

	// Data is the initialized data image, BSSSize the size of .bss.
	Data    []byte
	BSSSize uint32

	// TextSize is code beyond the handlers, it moves the data image.
	TextSize uint32

	// XRAM is external memory that only works after SystemInit. When set,
	// .data, .bss and the heap are placed in it.
	XRAM *targets.Memory
}

type Result struct {
	Outcome Outcome
	Err     error
	Trace   Trace
	Reports []fault.Event
}

type Machine struct {
	Device  targets.Device
	Vectors vector.Layout
	Layout  boot.Layout
	Symbols vector.Symbols
	Table   *vector.Table
	Memory  *Memory
	Core    *Core

	reporter fault.Reporter
	stage2   boot.Stage2
	trace    Trace
	reports  []fault.Event
}

// New links a program for the device and loads it into a fresh machine.
func New(dev targets.Device, opts Options) (*Machine, error) {
	if err := dev.Validate(); err != nil {
		return nil, err
	}
	if opts.Board != nil {
		if err := opts.Board.Validate(); err != nil {
			return nil, err
		}
	}

	vectors, err := dev.Layout()
	if err != nil {
		return nil, err
	}

	m := &Machine{
		Device:   dev,
		Vectors:  vectors,
		Memory:   NewMemory(),
		reporter: opts.Reporter,
	}
	m.Core = &Core{mem: m.Memory, trace: &m.trace}

	if err = m.Memory.Map("flash", dev.Flash.Region(), true, false); err != nil {
		return nil, err
	}
	if err = m.Memory.Map("ram", dev.RAM.Region(), false, false); err != nil {
		return nil, err
	}
	if opts.XRAM != nil {
		if err = m.Memory.Map("xram", opts.XRAM.Region(), false, true); err != nil {
			return nil, err
		}
	}

	bindings := vector.Bindings{}
	for name, fn := range opts.Handlers {
		if name == vector.ResetHandler {
			return nil, ErrResetBound
		}
		bindings[name] = fn
	}
	bindings[vector.ResetHandler] = m.reset

	def := fault.Default(m.Core, vectors, fault.ReporterFunc(m.report))
	if m.Table, err = vector.Resolve(vectors, bindings, def); err != nil {
		return nil, err
	}
	m.Core.table = m.Table

	if err = m.link(opts); err != nil {
		return nil, err
	}

	m.Memory.OnFault = m.busFault
	m.Memory.OnFirstStore = func(addr uint32) {
		m.Core.emit(Event{Kind: EvMemoryInit, Addr: addr})
	}
	return m, nil
}

// link places the table, the handlers and the data image in flash and
// lays out ram the way the generated linker script does.
func (m *Machine) link(opts Options) error {
	flash := m.Device.Flash.Region()
	ram := m.Device.RAM.Region()

	m.Symbols = vector.Symbols{}
	text := flash.Start + uint32(4*m.Table.Len())
	text = align(text, handlerSize)
	for i, name := range append([]string{vector.DefaultHandler}, m.Table.Strong()...) {
		m.Symbols[name] = text + uint32(i*handlerSize)
	}
	etext := align(text+uint32((len(m.Table.Strong())+1)*handlerSize)+opts.TextSize, 4)

	stack := m.Device.MainStackSize(opts.Board)
	if stack >= ram.Len() {
		return fmt.Errorf("main stack of %d bytes: %w", stack, ErrOutOfRAM)
	}
	m.Layout.MainStackTop = ram.Start + stack

	// .data and .bss follow the main stack, or go to external ram
	dataRAM := boot.Region{Start: m.Layout.MainStackTop, End: ram.End}
	if opts.XRAM != nil {
		dataRAM = opts.XRAM.Region()
	}
	data := boot.Region{Start: dataRAM.Start, End: dataRAM.Start + uint32(len(opts.Data))}
	bss := boot.Region{Start: align(data.End, 4)}
	bss.End = bss.Start + opts.BSSSize

	m.Layout.Descriptor = boot.Descriptor{Image: etext, Data: data, BSS: bss}
	m.Layout.HeapEnd = dataRAM.End

	if etext+data.Len() > flash.End {
		return fmt.Errorf("%d bytes of text and data: %w", etext+data.Len()-flash.Start, ErrImageTooLarge)
	}
	if bss.End > dataRAM.End {
		return fmt.Errorf("%d bytes of .data and .bss: %w", bss.End-data.Start, ErrOutOfRAM)
	}
	if err := m.Layout.Descriptor.Validate(); err != nil {
		return err
	}
	for name, addr := range m.Layout.Symbols() {
		m.Symbols[name] = addr
	}

	image, err := m.Table.Encode(m.Symbols)
	if err != nil {
		return err
	}
	if err = m.Memory.Program(flash.Start, image); err != nil {
		return err
	}
	if len(opts.Data) > 0 {
		if err = m.Memory.Program(etext, opts.Data); err != nil {
			return err
		}
	}

	m.Memory.Watch(data, bss)
	return nil
}

func align(v, to uint32) uint32 {
	return (v + to - 1) &^ (to - 1)
}

func (m *Machine) report(ev fault.Event) {
	m.reports = append(m.reports, ev)
	if m.reporter != nil {
		m.reporter.Report(ev)
	}
}

// busFault escalates to HardFault, since the configurable fault handlers
// are disabled out of reset.
func (m *Machine) busFault(f BusFault) {
	m.Core.emit(Event{Kind: EvFault, Addr: f.Addr, Detail: f.Cause})
	m.Core.take(ExcHardFault)
}

func (m *Machine) reset() {
	seq := &boot.Sequence{
		CPU:    m.Core,
		Bus:    m.Memory,
		Layout: m.Layout,
		Stage2: func() {
			m.Core.emit(Event{Kind: EvHandoff})
			m.stage2()
		},
	}
	seq.Reset()
}

// Boot powers the machine on and runs until the next stage parks the core,
// a reset is requested, or the core halts. stage2 may be nil, in which case
// it returns at once.
func (m *Machine) Boot(stage2 boot.Stage2) Result {
	if stage2 == nil {
		stage2 = func() {}
	}
	m.stage2 = stage2
	m.trace = nil
	m.reports = nil
	m.Memory.PowerOff()

	var res Result
	res.Outcome, res.Err = m.run(func() {
		// The core fetches the initial stack pointer and the reset vector
		flash := m.Device.Flash.Region().Start
		sp := m.Memory.Load32(flash)
		pc := m.Memory.Load32(flash + 4)

		m.Core.powerOn(sp)
		if pc != m.Symbols[vector.ResetHandler]|1 {
			panic(fmt.Errorf("%#08x: %w", pc, ErrBadResetVector))
		}
		if err := m.Table.Dispatch(ExcReset); err != nil {
			panic(err)
		}
	})
	res.Trace = slices.Clone(m.trace)
	res.Reports = slices.Clone(m.reports)
	return res
}

func (m *Machine) run(fn func()) (outcome Outcome, err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case resetSignal:
			outcome = Rebooted
		case haltSignal:
			outcome = Halted
		case idleSignal:
			outcome = Running
		case BusFault:
			outcome, err = Faulted, r
		case error:
			outcome, err = Faulted, r
		default:
			panic(r)
		}
	}()

	fn()
	return Faulted, ErrReturned
}

// Words reads the vector table back from flash.
func (m *Machine) Words() ([]uint32, error) {
	buf, err := m.Memory.Read(m.Device.Flash.Region().Start, uint32(4*m.Table.Len()))
	if err != nil {
		return nil, err
	}
	words := make([]uint32, m.Table.Len())
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return words, nil
}
