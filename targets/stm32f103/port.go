//go:build stm32f103

// Package stm32f103 backs core.RegisterPort with the real peripheral
// registers of the STM32F103 (Blue Pill).
package stm32f103

import (
	"runtime/volatile"
	"unsafe"

	"bluepill/core"
)

// Peripheral base addresses (RM0008 memory map)
const (
	rtcBase  = 0x40002800
	bkpBase  = 0x40006C00
	pwrBase  = 0x40007000
	extiBase = 0x40010400
	rccBase  = 0x40021000
	scbSCR   = 0xE000ED10
)

// The RTC and BKP registers are 16 bits wide on a 32-bit stride; word
// access is allowed and the upper half reads as zero.
var addrs = [core.NumFields]uintptr{
	core.RTCCRH:     rtcBase + 0x00,
	core.RTCCRL:     rtcBase + 0x04,
	core.RTCPRLH:    rtcBase + 0x08,
	core.RTCPRLL:    rtcBase + 0x0C,
	core.RTCCNTH:    rtcBase + 0x18,
	core.RTCCNTL:    rtcBase + 0x1C,
	core.RTCALRH:    rtcBase + 0x20,
	core.RTCALRL:    rtcBase + 0x24,
	core.BKPDR1:     bkpBase + 0x04,
	core.BKPRTCCR:   bkpBase + 0x2C,
	core.RCCAPB1ENR: rccBase + 0x1C,
	core.RCCBDCR:    rccBase + 0x20,
	core.PWRCR:      pwrBase + 0x00,
	core.PWRCSR:     pwrBase + 0x04,
	core.EXTIPR:     extiBase + 0x14,
	core.SCBSCR:     scbSCR,
}

func reg(f core.Field) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addrs[f]))
}

// Port is the MMIO RegisterPort. It has no state; the zero value is ready.
type Port struct{}

var _ core.RegisterPort = Port{}

// Get reads a register
func (Port) Get(f core.Field) uint32 {
	return reg(f).Get()
}

// Set writes a register
func (Port) Set(f core.Field, v uint32) {
	reg(f).Set(v)
}
