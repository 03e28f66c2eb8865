package vector

// Kind tags the contents of a vector table entry.
type Kind uint8

const (
	// StackPointer is the initial main stack pointer in entry 0.
	StackPointer Kind = iota

	// Handler is the address of a routine.
	Handler

	// Reserved is an architecture reserved position holding zero.
	Reserved

	// Word is a literal value with a vendor defined meaning. It is data and
	// must never be branched to.
	Word
)

func (k Kind) String() string {
	switch k {
	case StackPointer:
		return "stack"
	case Handler:
		return "handler"
	case Reserved:
		return "reserved"
	case Word:
		return "word"
	default:
		return "unknown"
	}
}
