package boot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stop string

// recorder is a Processor that logs every call. SystemReset and Halt unwind
// the sequence by panicking with a stop value.
type recorder struct {
	calls       []string
	ignoreReset bool
}

func (r *recorder) DisableInterrupts() { r.calls = append(r.calls, "cpsid") }
func (r *recorder) SystemInit()        { r.calls = append(r.calls, "SystemInit") }

func (r *recorder) SwitchStack(top uint32, control Control) {
	r.calls = append(r.calls, fmt.Sprintf("psp=%#x control=%d", top, control))
}

func (r *recorder) SystemReset() {
	r.calls = append(r.calls, "reset")
	if !r.ignoreReset {
		panic(stop("reset"))
	}
}

func (r *recorder) Halt() {
	r.calls = append(r.calls, "halt")
	panic(stop("halt"))
}

// run executes the sequence and returns the value that stopped it.
func run(s *Sequence) (reason stop) {
	defer func() {
		reason = recover().(stop)
	}()
	s.Reset()
	return ""
}

func testLayout() Layout {
	return Layout{
		Descriptor: Descriptor{
			Image: 0x1000,
			Data:  Region{0x2000, 0x2008},
			BSS:   Region{0x2008, 0x2010},
		},
		MainStackTop: 0x2400,
		HeapEnd:      0x2800,
	}
}

func TestResetOrder(t *testing.T) {
	assert := assert.New(t)
	cpu := &recorder{}
	bus := newSparseBus()
	bus.fill(Region{0x1000, 0x1008}, pattern)

	var seen []string
	s := &Sequence{
		CPU:    cpu,
		Bus:    bus,
		Layout: testLayout(),
		Stage2: func() {
			seen = append([]string(nil), cpu.calls...)

			// Memory is initialized before the next stage runs
			for i := uint32(0); i < 8; i++ {
				assert.Equal(pattern(i), bus.mem[0x2000+i])
			}
			panic(stop("stage2"))
		},
	}

	assert.Equal(stop("stage2"), run(s))
	assert.Equal([]string{"cpsid", "SystemInit", "psp=0x2800 control=2"}, seen)
}

func TestResetWhenStage2Returns(t *testing.T) {
	assert := assert.New(t)
	cpu := &recorder{}
	calls := 0
	s := &Sequence{
		CPU:    cpu,
		Bus:    newSparseBus(),
		Layout: testLayout(),
		Stage2: func() { calls++ },
	}

	assert.Equal(stop("reset"), run(s))
	assert.Equal(1, calls)
	assert.Equal([]string{"cpsid", "SystemInit", "psp=0x2800 control=2", "reset"}, cpu.calls)
}

func TestResetIgnored(t *testing.T) {
	assert := assert.New(t)
	cpu := &recorder{ignoreReset: true}
	s := &Sequence{
		CPU:    cpu,
		Bus:    newSparseBus(),
		Layout: testLayout(),
		Stage2: func() {},
	}

	assert.Equal(stop("halt"), run(s))
	assert.Equal("reset", cpu.calls[len(cpu.calls)-2])
	assert.Equal("halt", cpu.calls[len(cpu.calls)-1])
}

func TestControl(t *testing.T) {
	assert := assert.New(t)

	assert.True(PrivilegedProcessStack.Privileged())
	assert.True(PrivilegedProcessStack.ProcessStack())
	assert.Equal(Control(2), PrivilegedProcessStack)
	assert.False(ControlUnprivileged.Privileged())
}
