// Package svd decodes the parts of CMSIS-SVD device descriptions needed to
// lay out a vector table.
package svd

import (
	"encoding/xml"
	"io"
)

type DeviceElement struct {
	Name             string             `xml:"name"`
	Description      string             `xml:"description"`
	Series           string             `xml:"series"`
	Version          string             `xml:"version"`
	Vendor           string             `xml:"vendor"`
	CPU              CPUElement         `xml:"cpu"`
	AddressableWidth Integer            `xml:"addressUnitBits"`
	BitWidth         Integer            `xml:"width"`
	Peripherals      PeripheralsElement `xml:"peripherals"`
}

type CPUElement struct {
	Name             string  `xml:"name"`
	Revision         string  `xml:"revision"`
	Endian           string  `xml:"endian"`
	MPUPresent       bool    `xml:"mpuPresent"`
	FPUPresent       bool    `xml:"fpuPresent"`
	VTORPresent      *bool   `xml:"vtorPresent"`
	NVICPriorityBits Integer `xml:"nvicPrioBits"`
	DeviceNumIRQ     Integer `xml:"deviceNumInterrupts"`
}

type PeripheralsElement struct {
	Elements []PeripheralElement `xml:"peripheral"`
}

type PeripheralElement struct {
	Name         string              `xml:"name"`
	Description  string              `xml:"description"`
	Group        string              `xml:"groupName"`
	BaseAddress  Integer             `xml:"baseAddress"`
	AddressBlock AddressBlockElement `xml:"addressBlock"`
	Interrupts   []InterruptElement  `xml:"interrupt"`
	DerivedFrom  string              `xml:"derivedFrom,attr"`
}

type AddressBlockElement struct {
	Offset Integer `xml:"offset"`
	Size   Integer `xml:"size"`
}

type InterruptElement struct {
	Name        string  `xml:"name"`
	Description string  `xml:"description"`
	Value       Integer `xml:"value"`
}

// Decode reads a device description.
func Decode(r io.Reader) (*DeviceElement, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dev := &DeviceElement{}
	if err = xml.Unmarshal(buf, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// Interrupts collects the interrupts of all peripherals. Peripherals that
// share a line list it more than once.
func (d *DeviceElement) Interrupts() []InterruptElement {
	var result []InterruptElement
	for _, periph := range d.Peripherals.Elements {
		result = append(result, periph.Interrupts...)
	}
	return result
}
