package boot

// Stage2 is the entry point of the next boot stage. It must never return.
type Stage2 func()

// Sequence is the reset entry of the system. All of its fields are fixed at
// link time.
type Sequence struct {
	CPU    Processor
	Bus    Bus
	Layout Layout
	Stage2 Stage2
}

// Reset brings the processor from its reset state to the next boot stage.
// It runs once per reset and does not return.
func (s *Sequence) Reset() {
	// The core may come out of reset with interrupts already enabled
	s.CPU.DisableInterrupts()

	// Clock and power first. With an external ram layout .data and .bss are
	// not addressable until this has run.
	s.CPU.SystemInit()

	// Use the top of the heap as stack until the first thread starts. The
	// memory at HeapEnd may also need SystemInit, hence the order.
	s.CPU.SwitchStack(s.Layout.HeapEnd, PrivilegedProcessStack)

	InitMemory(s.Bus, s.Layout.Descriptor)

	// Interrupts stay masked, the next stage enables them when ready
	s.Stage2()

	// If the next stage returns, reboot
	s.CPU.SystemReset()
	for {
		s.CPU.Halt()
	}
}
