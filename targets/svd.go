package targets

import (
	"fmt"
	"strings"

	"omibyte.io/bootcore/svd"
)

var cpuNames = map[string]string{
	"CM0":     "cortex-m0",
	"CM0PLUS": "cortex-m0plus",
	"CM0+":    "cortex-m0plus",
	"CM3":     "cortex-m3",
	"CM4":     "cortex-m4",
	"CM7":     "cortex-m7",
}

// MaxInterrupts is the most external interrupts an ARMv7-M NVIC supports.
const MaxInterrupts = 496

// FromSVD derives a device from an SVD description. SVD files do not describe
// the memories, so they are passed in.
func FromSVD(dev *svd.DeviceElement, flash, ram Memory) (Device, error) {
	d := Device{
		Name:          strings.ToLower(dev.Name),
		Series:        strings.ToLower(dev.Series),
		Cpu:           cpuNames[strings.ToUpper(dev.CPU.Name)],
		Flash:         flash,
		RAM:           ram,
		HandlerSuffix: "_IRQHandler",
	}
	if len(d.Cpu) == 0 {
		d.Cpu = strings.ToLower(dev.CPU.Name)
	}

	// Collect all the interrupts by line
	lines := map[int]string{}
	count := int(dev.CPU.DeviceNumIRQ)
	if count < 0 || count > MaxInterrupts {
		return Device{}, fmt.Errorf("%s: %d interrupts: %w", dev.Name, count, ErrInvalidDevice)
	}
	for _, irq := range dev.Interrupts() {
		if irq.Value < 0 || irq.Value >= MaxInterrupts {
			return Device{}, fmt.Errorf("%s: %s on irq %d: %w", dev.Name, irq.Name, irq.Value, ErrInvalidDevice)
		}
		n := int(irq.Value)
		if other, ok := lines[n]; ok && other != irq.Name {
			return Device{}, fmt.Errorf("%s: irq %d is both %s and %s: %w", dev.Name, n, other, irq.Name, ErrInvalidDevice)
		}
		lines[n] = irq.Name
		if n+1 > count {
			count = n + 1
		}
	}

	// Lines nobody claims stay reserved
	d.Interrupts = make([]string, count)
	for n, name := range lines {
		d.Interrupts[n] = name
	}

	if err := d.Validate(); err != nil {
		return Device{}, err
	}
	return d, nil
}
