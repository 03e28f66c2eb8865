package boot

// Control is the value written to the CONTROL register when the execution
// context is established.
type Control uint32

const (
	// ControlUnprivileged selects thread mode without privileges (nPRIV).
	ControlUnprivileged Control = 1 << 0

	// ControlProcessStack selects PSP as the active stack pointer (SPSEL).
	ControlProcessStack Control = 1 << 1

	// PrivilegedProcessStack is the mode the reset sequence hands over in.
	PrivilegedProcessStack = ControlProcessStack
)

func (c Control) Privileged() bool {
	return c&ControlUnprivileged == 0
}

func (c Control) ProcessStack() bool {
	return c&ControlProcessStack != 0
}

// Processor is the only non-portable part of the reset sequence. On
// hardware each method is a handful of instructions; in the simulator they
// are observable events.
type Processor interface {
	// DisableInterrupts masks every configurable interrupt (PRIMASK).
	DisableInterrupts()

	// SystemInit is the vendor clock and power bring-up. It must not touch
	// global variables, since none are initialized yet.
	SystemInit()

	// SwitchStack loads the process stack pointer, writes CONTROL and
	// synchronizes the pipeline.
	SwitchStack(top uint32, control Control)

	// SystemReset requests a full system reset (AIRCR.SYSRESETREQ).
	SystemReset()

	// Halt parks the processor. It is expected not to return on hardware.
	Halt()
}
