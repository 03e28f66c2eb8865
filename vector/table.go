package vector

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Bindings maps handler names to the strong definitions supplied by the
// rest of the system.
type Bindings map[string]func()

// Entry is one resolved position of the table.
type Entry struct {
	kind   Kind
	index  int
	name   string
	target string
	fn     func()
	value  uint32
	desc   string
}

func (e Entry) Kind() Kind {
	return e.kind
}

// Index is the exception number of the entry.
func (e Entry) Index() int {
	return e.index
}

// Name is the slot name. Only stack and handler entries have one.
func (e Entry) Name() string {
	return e.name
}

// Target is the symbol whose address the entry holds: the handler that was
// bound to a handler slot, or the stack top symbol for entry 0.
func (e Entry) Target() string {
	return e.target
}

// Default reports whether a handler slot fell back to the default handler.
func (e Entry) Default() bool {
	return e.kind == Handler && e.target == DefaultHandler
}

// Word returns the literal contents of reserved and word entries.
func (e Entry) Word() (uint32, bool) {
	switch e.kind {
	case Reserved:
		return 0, true
	case Word:
		return e.value, true
	}
	return 0, false
}

func (e Entry) Description() string {
	return e.desc
}

// Call runs the bound handler.
func (e Entry) Call() error {
	if e.kind != Handler || e.fn == nil {
		return fmt.Errorf("vector %d (%s): %w", e.index, e.kind, ErrNotCallable)
	}
	e.fn()
	return nil
}

func (e Entry) String() string {
	switch e.kind {
	case Handler:
		if e.Default() {
			return fmt.Sprintf("%s -> %s", e.name, e.target)
		}
		return e.name
	case Word:
		return fmt.Sprintf("%#08x", e.value)
	case Reserved:
		return "0"
	default:
		return e.target
	}
}

// Table is a resolved vector table. It is never modified after Resolve.
type Table struct {
	name    string
	entries []Entry
}

// Resolve binds every handler slot of the layout. A strong definition wins;
// a slot without one is bound to def, unless the slot is required.
func Resolve(layout Layout, strong Bindings, def func()) (*Table, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, ErrNoDefault
	}

	// Every strong definition must land somewhere
	var unknown []string
	for _, name := range maps.Keys(strong) {
		if _, ok := layout.Index(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, fmt.Errorf("%s: %v: %w", layout.Name, unknown, ErrUnknownHandler)
	}

	t := &Table{
		name:    layout.Name,
		entries: make([]Entry, len(layout.Slots)),
	}

	for i, slot := range layout.Slots {
		e := Entry{
			kind:  slot.Kind,
			index: i,
			name:  slot.Name,
			value: slot.Value,
			desc:  slot.Description,
		}

		switch slot.Kind {
		case StackPointer:
			e.target = slot.Name
		case Handler:
			if fn, ok := strong[slot.Name]; ok && fn != nil {
				e.target = slot.Name
				e.fn = fn
			} else if slot.Required {
				return nil, fmt.Errorf("%s: %s: %w", layout.Name, slot.Name, ErrMissingHandler)
			} else {
				e.target = DefaultHandler
				e.fn = def
			}
		case Reserved:
			e.value = 0
		}

		t.entries[i] = e
	}

	return t, nil
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry for exception number n.
func (t *Table) At(n int) (Entry, error) {
	if n < 0 || n >= len(t.entries) {
		return Entry{}, fmt.Errorf("%d: %w", n, ErrNoSuchVector)
	}
	return t.entries[n], nil
}

// Lookup returns the handler entry with the given slot name.
func (t *Table) Lookup(name string) (Entry, bool) {
	for _, e := range t.entries {
		if e.kind == Handler && e.name == name {
			return e, true
		}
	}
	return Entry{}, false
}

func (t *Table) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Dispatch calls the handler bound to exception number n.
func (t *Table) Dispatch(n int) error {
	e, err := t.At(n)
	if err != nil {
		return err
	}
	return e.Call()
}

// Defaulted returns the names of the handler slots bound to the default
// handler, in table order.
func (t *Table) Defaulted() []string {
	var names []string
	for _, e := range t.entries {
		if e.Default() {
			names = append(names, e.name)
		}
	}
	return names
}

// Strong returns the names of the handler slots with a strong definition.
func (t *Table) Strong() []string {
	var names []string
	for _, e := range t.entries {
		if e.kind == Handler && !e.Default() {
			names = append(names, e.name)
		}
	}
	return names
}

// Symbols maps link-time symbol names to addresses.
type Symbols map[string]uint32

// Words renders the table as it appears in memory. Handler addresses get
// the Thumb bit set. Word entries are copied exactly.
func (t *Table) Words(syms Symbols) ([]uint32, error) {
	words := make([]uint32, len(t.entries))
	for i, e := range t.entries {
		switch e.kind {
		case StackPointer, Handler:
			addr, ok := syms[e.target]
			if !ok {
				return nil, fmt.Errorf("vector %d: %s: %w", i, e.target, ErrUndefinedSymbol)
			}
			if e.kind == Handler {
				addr |= 1
			}
			words[i] = addr
		default:
			words[i], _ = e.Word()
		}
	}
	return words, nil
}

// Encode renders the table as little-endian bytes.
func (t *Table) Encode(syms Symbols) ([]byte, error) {
	words, err := t.Words(syms)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf, nil
}
