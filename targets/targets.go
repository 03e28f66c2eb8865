package targets

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"omibyte.io/bootcore/boot"
	"omibyte.io/bootcore/vector"
)

//go:embed targets.yaml
var rawTargets []byte

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrBoardNotFound  = errors.New("board not found")
	ErrInvalidDevice  = errors.New("invalid device description")
	ErrInvalidBoard   = errors.New("invalid board description")
)

// StackAlign is the alignment of a stack pointer at a public interface.
const StackAlign = 8

var builtin *Database

// All returns the embedded target database.
func All() *Database {
	return builtin
}

type Database struct {
	Devices Devices `yaml:"devices"`
	Boards  Boards  `yaml:"boards"`
}

type Devices []Device

type Device struct {
	Name   string `yaml:"name"`
	Series string `yaml:"series"`
	Cpu    string `yaml:"cpu"`
	Flash  Memory `yaml:"flash"`
	RAM    Memory `yaml:"ram"`

	// Interrupts lists the device interrupts in vector order. An empty
	// string marks a reserved position.
	Interrupts    []string `yaml:"interrupts"`
	HandlerSuffix string   `yaml:"handlerSuffix"`

	// Padding is the number of reserved words after the last interrupt.
	Padding int `yaml:"padding"`

	// BootWord is a literal placed after the padding, if the device has one.
	BootWord *Integer `yaml:"bootWord"`

	// Required handlers must be defined by the next stage.
	Required []string `yaml:"required"`

	// StackSize is the main stack size when no board overrides it.
	StackSize Size `yaml:"stackSize"`
}

type Memory struct {
	Origin Integer `yaml:"origin"`
	Size   Size    `yaml:"size"`
}

func (m Memory) Region() boot.Region {
	return boot.Region{Start: uint32(m.Origin), End: uint32(m.Origin) + uint32(m.Size)}
}

// fits reports whether the end of the memory is an address. The region is
// half-open, so it may not reach 1<<32.
func (m Memory) fits() bool {
	return uint64(m.Origin)+uint64(m.Size) < 1<<32
}

type Boards []Board

// Board holds the numeric settings of one board. They are plain data for
// the next stage; only MainStackSize affects the memory layout.
type Board struct {
	Name               string `yaml:"name"`
	Device             string `yaml:"device"`
	MainStackSize      Size   `yaml:"mainStackSize"`
	DefaultSerialSpeed int    `yaml:"defaultSerialSpeed"`
	SerialDMA          []int  `yaml:"serialDMA"`
	SDVoltage          int    `yaml:"sdVoltage"`
	SDOneBitBus        bool   `yaml:"sdOneBitBus"`
	StdoutDCC          bool   `yaml:"stdoutDCC"`
}

func (b Board) Validate() error {
	if len(b.Name) == 0 {
		return fmt.Errorf("board without a name: %w", ErrInvalidBoard)
	}
	if b.MainStackSize%StackAlign != 0 {
		return fmt.Errorf("%s: main stack size %d is not a multiple of %d: %w", b.Name, b.MainStackSize, StackAlign, ErrInvalidBoard)
	}
	return nil
}

// Load decodes a target database.
func Load(r io.Reader) (*Database, error) {
	var db Database
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&db); err != nil {
		return nil, err
	}
	for _, d := range db.Devices {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	for _, b := range db.Boards {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return &db, nil
}

// Merge returns a database where the devices and boards of other replace the
// ones with the same name.
func (db *Database) Merge(other *Database) *Database {
	out := &Database{
		Devices: slices.Clone(db.Devices),
		Boards:  slices.Clone(db.Boards),
	}
	for _, d := range other.Devices {
		if i := out.Devices.index(d.Name); i >= 0 {
			out.Devices[i] = d
		} else {
			out.Devices = append(out.Devices, d)
		}
	}
	for _, b := range other.Boards {
		if i := out.Boards.index(b.Name); i >= 0 {
			out.Boards[i] = b
		} else {
			out.Boards = append(out.Boards, b)
		}
	}
	return out
}

func (d Devices) index(name string) int {
	return slices.IndexFunc(d, func(dev Device) bool {
		return strings.EqualFold(dev.Name, name)
	})
}

func (d Devices) Find(name string) (Device, error) {
	if i := d.index(name); i >= 0 {
		return d[i], nil
	}
	return Device{}, fmt.Errorf("%s: %w", name, ErrDeviceNotFound)
}

func (d Devices) FindBySeries(series string) Devices {
	var result Devices
	for _, dev := range d {
		if strings.EqualFold(dev.Series, series) {
			result = append(result, dev)
		}
	}
	return result
}

func (b Boards) index(name string) int {
	return slices.IndexFunc(b, func(board Board) bool {
		return strings.EqualFold(board.Name, name)
	})
}

func (b Boards) Find(name string) (Board, error) {
	if i := b.index(name); i >= 0 {
		return b[i], nil
	}
	return Board{}, fmt.Errorf("%s: %w", name, ErrBoardNotFound)
}

func (d Device) Validate() error {
	if len(d.Name) == 0 {
		return fmt.Errorf("device without a name: %w", ErrInvalidDevice)
	}
	if d.Flash.Size == 0 || d.RAM.Size == 0 {
		return fmt.Errorf("%s: missing memory sizes: %w", d.Name, ErrInvalidDevice)
	}
	if d.Padding < 0 {
		return fmt.Errorf("%s: negative padding: %w", d.Name, ErrInvalidDevice)
	}
	if d.StackSize%StackAlign != 0 {
		return fmt.Errorf("%s: stack size %d is not a multiple of %d: %w", d.Name, d.StackSize, StackAlign, ErrInvalidDevice)
	}
	if !d.Flash.fits() || !d.RAM.fits() {
		return fmt.Errorf("%s: memory runs past the end of the address space: %w", d.Name, ErrInvalidDevice)
	}
	if d.Flash.Region().Overlaps(d.RAM.Region()) {
		return fmt.Errorf("%s: flash and ram overlap: %w", d.Name, ErrInvalidDevice)
	}
	return nil
}

// Layout builds the vector layout of the device.
func (d Device) Layout() (vector.Layout, error) {
	suffix := d.HandlerSuffix
	if len(suffix) == 0 {
		suffix = "_IRQHandler"
	}

	trailer := vector.Padding(d.Padding)
	if d.BootWord != nil {
		trailer = append(trailer, vector.BootWord(uint32(*d.BootWord), "boot mode word"))
	}

	layout := vector.CortexM(strings.ToLower(d.Name), d.Interrupts, suffix, trailer...)
	if err := layout.Validate(); err != nil {
		return vector.Layout{}, err
	}
	return layout.Require(d.Required...)
}

// MainStackSize returns the main stack size, taken from the board when one
// is given.
func (d Device) MainStackSize(board *Board) uint32 {
	if board != nil && board.MainStackSize > 0 {
		return uint32(board.MainStackSize)
	}
	if d.StackSize > 0 {
		return uint32(d.StackSize)
	}
	return 2048
}

func init() {
	db, err := Load(strings.NewReader(string(rawTargets)))
	if err != nil {
		panic(err)
	}
	builtin = db
}
