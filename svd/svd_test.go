package svd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSVD = `<?xml version="1.0" encoding="utf-8"?>
<device schemaVersion="1.1">
  <vendor>STMicroelectronics</vendor>
  <name>STM32L151</name>
  <series>STM32L1</series>
  <version>1.4</version>
  <cpu>
    <name>CM3</name>
    <revision>r1p0</revision>
    <endian>little</endian>
    <mpuPresent>true</mpuPresent>
    <fpuPresent>false</fpuPresent>
    <nvicPrioBits>4</nvicPrioBits>
  </cpu>
  <addressUnitBits>8</addressUnitBits>
  <width>32</width>
  <peripherals>
    <peripheral>
      <name>WWDG</name>
      <baseAddress>0x40002C00</baseAddress>
      <addressBlock><offset>0x0</offset><size>0x400</size></addressBlock>
      <interrupt><name>WWDG</name><description>Window Watchdog interrupt</description><value>0</value></interrupt>
    </peripheral>
    <peripheral derivedFrom="WWDG">
      <name>EXTI</name>
      <baseAddress>0x40010400</baseAddress>
      <interrupt><name>EXTI3</name><value>9</value></interrupt>
      <interrupt><name>EXTI4</name><value>0xA</value></interrupt>
    </peripheral>
  </peripherals>
</device>`

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	dev, err := Decode(strings.NewReader(testSVD))
	assert.NoError(err)

	assert.Equal("STM32L151", dev.Name)
	assert.Equal("CM3", dev.CPU.Name)
	assert.True(dev.CPU.MPUPresent)
	assert.Equal(Integer(4), dev.CPU.NVICPriorityBits)
	assert.Equal(Integer(32), dev.BitWidth)
	assert.Equal(Integer(0x40002C00), dev.Peripherals.Elements[0].BaseAddress)
	assert.Equal(Integer(0x400), dev.Peripherals.Elements[0].AddressBlock.Size)
	assert.Equal("WWDG", dev.Peripherals.Elements[1].DerivedFrom)

	irqs := dev.Interrupts()
	assert.Len(irqs, 3)
	assert.Equal(Integer(10), irqs[2].Value)
}

func TestIntegerFormats(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10", 10},
		{"0x10", 16},
		{"0X1f", 31},
		{"#101", 5},
		{" 7 ", 7},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			v, err := parse(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	_, err := parse("0xZZ")
	assert.Error(t, err)
}
