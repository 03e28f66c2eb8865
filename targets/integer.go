package targets

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Integer accepts decimal and 0x prefixed hexadecimal values.
type Integer uint32

func parseInteger(v string) (uint64, error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), "_", "")
	if s := strings.TrimPrefix(strings.ToLower(v), "0x"); s != strings.ToLower(v) {
		return strconv.ParseUint(s, 16, 32)
	}
	return strconv.ParseUint(v, 10, 32)
}

func (i *Integer) UnmarshalYAML(node *yaml.Node) error {
	value, err := parseInteger(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*i = Integer(value)
	return nil
}

func (i Integer) MarshalYAML() (any, error) {
	return fmt.Sprintf("%#x", uint32(i)), nil
}

// Size is a byte count with an optional K or M suffix.
type Size uint32

func ParseSize(str string) (Size, error) {
	v := strings.TrimSpace(str)
	mult := uint64(1)
	switch {
	case strings.HasSuffix(v, "K"), strings.HasSuffix(v, "k"):
		mult = 1024
		v = v[:len(v)-1]
	case strings.HasSuffix(v, "M"):
		mult = 1024 * 1024
		v = v[:len(v)-1]
	}

	value, err := parseInteger(v)
	if err != nil {
		return 0, err
	}
	if value*mult > 1<<32-1 {
		return 0, fmt.Errorf("size %s exceeds the address space", str)
	}
	return Size(value * mult), nil
}

func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	value, err := ParseSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = value
	return nil
}

func (s Size) String() string {
	switch {
	case s != 0 && s%(1024*1024) == 0:
		return fmt.Sprintf("%dM", s/(1024*1024))
	case s != 0 && s%1024 == 0:
		return fmt.Sprintf("%dK", s/1024)
	default:
		return strconv.FormatUint(uint64(s), 10)
	}
}
