package vector

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testIRQs = []string{"WWDG", "PVD", "", "EXTI0", "EXTI1", "EXTI2", "EXTI3", "USART1"}

func testLayout() Layout {
	return CortexM("test", testIRQs, "_IRQHandler", append(Padding(2), BootWord(0xF108F85F, "boot in ram"))...)
}

func TestCortexMLayout(t *testing.T) {
	assert := assert.New(t)
	l := testLayout()

	assert.NoError(l.Validate())
	assert.Equal(NumSystemExceptions+len(testIRQs)+3, l.Len())

	assert.Equal(StackPointer, l.Slots[0].Kind)
	assert.Equal(ResetHandler, l.Slots[1].Name)
	assert.True(l.Slots[1].Required)
	for _, n := range []int{7, 8, 9, 10, 13} {
		assert.Equal(Reserved, l.Slots[n].Kind, "slot %d", n)
	}
	assert.Equal("SysTick_Handler", l.Slots[15].Name)
	assert.Equal("WWDG_IRQHandler", l.Slots[16].Name)
	assert.Equal(Reserved, l.Slots[18].Kind)

	i, ok := l.Index("EXTI3_IRQHandler")
	assert.True(ok)
	assert.Equal(NumSystemExceptions+6, i)

	last := l.Slots[l.Len()-1]
	assert.Equal(Word, last.Kind)
	assert.Equal(uint32(0xF108F85F), last.Value)
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		err    error
	}{
		{"short", Layout{Name: "short", Slots: []Slot{{Kind: StackPointer}}}, ErrMalformedLayout},
		{
			"noStack",
			Layout{Slots: []Slot{{Kind: Reserved}, {Kind: Handler, Name: ResetHandler}}},
			ErrMalformedLayout,
		},
		{
			"noReset",
			Layout{Slots: []Slot{{Kind: StackPointer}, {Kind: Handler, Name: "NMI_Handler"}}},
			ErrMalformedLayout,
		},
		{
			"duplicate",
			CortexM("dup", []string{"TIM2", "TIM2"}, "_IRQHandler"),
			ErrDuplicateSlot,
		},
		{
			"defaultName",
			CortexM("def", []string{"Default"}, "_Handler"),
			ErrMalformedLayout,
		},
		{
			"secondStack",
			Layout{Slots: []Slot{{Kind: StackPointer}, {Kind: Handler, Name: ResetHandler}, {Kind: StackPointer}}},
			ErrMalformedLayout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.layout.Validate(), tc.err)
		})
	}
}

func TestResolveWeakBinding(t *testing.T) {
	assert := assert.New(t)

	var called []string
	def := func() { called = append(called, DefaultHandler) }
	custom := func() { called = append(called, "exti3") }

	table, err := Resolve(testLayout(), Bindings{
		ResetHandler:       func() {},
		"EXTI3_IRQHandler": custom,
	}, def)
	assert.NoError(err)
	assert.Equal(testLayout().Len(), table.Len())

	e, ok := table.Lookup("EXTI3_IRQHandler")
	assert.True(ok)
	assert.False(e.Default())
	assert.Equal("EXTI3_IRQHandler", e.Target())

	// Every other named slot falls back to the default handler
	for _, e := range table.Entries() {
		if e.Kind() != Handler || e.Name() == "EXTI3_IRQHandler" || e.Name() == ResetHandler {
			continue
		}
		assert.True(e.Default(), e.Name())
		assert.Equal(DefaultHandler, e.Target())
	}

	assert.Equal([]string{ResetHandler, "EXTI3_IRQHandler"}, table.Strong())
	assert.Len(table.Defaulted(), len(testLayout().Handlers())-2)

	assert.NoError(table.Dispatch(e.Index()))
	assert.NoError(table.Dispatch(NumSystemExceptions))
	assert.Equal([]string{"exti3", DefaultHandler}, called)
}

func TestResolveErrors(t *testing.T) {
	reset := func() {}
	def := func() {}

	required, err := testLayout().Require("HardFault_Handler")
	assert.NoError(t, err)

	tests := []struct {
		name     string
		layout   Layout
		bindings Bindings
		def      func()
		err      error
	}{
		{"noReset", testLayout(), Bindings{}, def, ErrMissingHandler},
		{"unknown", testLayout(), Bindings{ResetHandler: reset, "EXTI9_IRQHandler": def}, def, ErrUnknownHandler},
		{"required", required, Bindings{ResetHandler: reset}, def, ErrMissingHandler},
		{"noDefault", testLayout(), Bindings{ResetHandler: reset}, nil, ErrNoDefault},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.layout, tc.bindings, tc.def)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err = testLayout().Require("Missing_Handler")
	assert.ErrorIs(t, err, ErrUnknownHandler)
}

func TestDispatchNonHandlers(t *testing.T) {
	assert := assert.New(t)
	calls := 0
	table, err := Resolve(testLayout(), Bindings{ResetHandler: func() {}}, func() { calls++ })
	assert.NoError(err)

	// Stack pointer, reserved and the boot word are data
	for _, n := range []int{0, 7, 13, NumSystemExceptions + 2, table.Len() - 1} {
		assert.ErrorIs(table.Dispatch(n), ErrNotCallable, "vector %d", n)
	}
	assert.ErrorIs(table.Dispatch(table.Len()), ErrNoSuchVector)
	assert.ErrorIs(table.Dispatch(-1), ErrNoSuchVector)
	assert.Zero(calls)

	w, ok := table.Entries()[table.Len()-1].Word()
	assert.True(ok)
	assert.Equal(uint32(0xF108F85F), w)
}

func TestWords(t *testing.T) {
	assert := assert.New(t)
	table, err := Resolve(testLayout(), Bindings{
		ResetHandler:       func() {},
		"EXTI3_IRQHandler": func() {},
	}, func() {})
	assert.NoError(err)

	syms := Symbols{
		StackTop:           0x2000_2800,
		ResetHandler:       0x0800_0100,
		DefaultHandler:     0x0800_0200,
		"EXTI3_IRQHandler": 0x0800_0300,
	}

	words, err := table.Words(syms)
	assert.NoError(err)
	assert.Len(words, table.Len())
	assert.Equal(uint32(0x2000_2800), words[0])
	assert.Equal(uint32(0x0800_0101), words[1])
	assert.Equal(uint32(0x0800_0201), words[2])
	assert.Zero(words[7])
	assert.Equal(uint32(0x0800_0301), words[NumSystemExceptions+6])
	assert.Equal(uint32(0xF108F85F), words[len(words)-1])

	buf, err := table.Encode(syms)
	assert.NoError(err)
	assert.Equal(uint32(0xF108F85F), binary.LittleEndian.Uint32(buf[len(buf)-4:]))

	delete(syms, DefaultHandler)
	_, err = table.Words(syms)
	assert.ErrorIs(err, ErrUndefinedSymbol)
}

func TestEntryString(t *testing.T) {
	assert := assert.New(t)
	table, err := Resolve(testLayout(), Bindings{ResetHandler: func() {}}, func() {})
	assert.NoError(err)

	e, _ := table.At(0)
	assert.Equal(StackTop, e.String())
	e, _ = table.At(1)
	assert.Equal(ResetHandler, e.String())
	e, _ = table.At(2)
	assert.Equal("NMI_Handler -> Default_Handler", e.String())
	e, _ = table.At(table.Len() - 1)
	assert.Equal("0xf108f85f", e.String())
}
