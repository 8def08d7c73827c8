// Package regsim simulates the STM32F103 RTC and backup domain registers
// behind core.RegisterPort so the RTC code can be exercised on a host.
//
// The model covers what matters for torn reads and write sequencing:
//   - CNTH/CNTL are read independently; a read hook may change the counter
//     between the two halves
//   - writes to CNT/ALR/PRL are staged while CNF is set and land only after
//     CNF is cleared and RTOFF comes back (Settle reads later)
//   - RSF and LSERDY assert after configurable delays
//   - faults: RTOFF stuck low, CNF entries that do not take effect, dead LSE
package regsim

import "bluepill/core"

// write is one staged register write
type write struct {
	field core.Field
	value uint32
}

// Bank is an in-memory register bank. The zero value is not usable; call New.
type Bank struct {
	regs [core.NumFields]uint32

	counter   uint32
	alarm     uint32
	prescaler uint32
	history   []uint32

	pending []write
	busy    int // CRL reads left before RTOFF returns; -1 = never

	lseWait    int
	rsfWait    int
	rsfPending bool

	// Settle is the number of RTC_CRL reads RTOFF stays low after a
	// configuration write is started
	Settle int

	// LSEDelay is the number of RCC_BDCR reads before LSERDY asserts
	LSEDelay int

	// RSFDelay is the number of RTC_CRL reads before RSF is set again
	// after software cleared it
	RSFDelay int

	// StuckBusy keeps RTOFF low forever once a configuration write starts;
	// the staged values never reach the counter
	StuckBusy bool

	// LSEDead keeps LSERDY low forever
	LSEDead bool

	// IgnoreConfig drops this many CNF 0->1 transitions, emulating an
	// enable that did not take effect
	IgnoreConfig int

	// OnRead is called before every Get, with the field being read
	OnRead func(f core.Field)

	// ConfigEntries counts effective CNF 0->1 transitions
	ConfigEntries int

	// ConfigRequests counts every attempt to set CNF, effective or not
	ConfigRequests int

	reads  [core.NumFields]int
	writes [core.NumFields]int
}

// New returns a bank in the state of a chip whose backup domain was just
// powered: LSE off, RTC disabled, counter 0, BKP_DR1 cleared, registers
// synchronized (RSF set).
func New() *Bank {
	b := &Bank{prescaler: 0x8000, alarm: 0xFFFFFFFF}
	b.regs[core.RTCCRL] = core.CRL_RSF
	b.history = append(b.history, 0)
	return b
}

var _ core.RegisterPort = (*Bank)(nil)

// Get implements core.RegisterPort
func (b *Bank) Get(f core.Field) uint32 {
	if b.OnRead != nil {
		b.OnRead(f)
	}
	if f < core.NumFields {
		b.reads[f]++
	}

	switch f {
	case core.RTCCNTH:
		return b.counter >> 16
	case core.RTCCNTL:
		return b.counter & 0xFFFF
	case core.RTCALRH, core.RTCALRL:
		// Write-only
		return 0
	case core.RTCPRLH, core.RTCPRLL:
		// Write-only
		return 0
	case core.RTCCRL:
		return b.readCRL()
	case core.RCCBDCR:
		return b.readBDCR()
	}
	if f < core.NumFields {
		return b.regs[f]
	}
	return 0
}

// Set implements core.RegisterPort
func (b *Bank) Set(f core.Field, value uint32) {
	if f >= core.NumFields {
		return
	}
	b.writes[f]++

	switch f {
	case core.RTCCNTH, core.RTCCNTL, core.RTCALRH, core.RTCALRL, core.RTCPRLL:
		b.stage(f, value&0xFFFF)
	case core.RTCPRLH:
		b.stage(f, value&0xF)
	case core.RTCCRL:
		b.writeCRL(value)
	case core.RCCBDCR:
		b.writeBDCR(value)
	case core.BKPDR1:
		b.regs[f] = value & 0xFFFF
	case core.BKPRTCCR:
		b.regs[f] = value & 0x3FF
	case core.RTCCRH:
		b.regs[f] = value & 0x7
	default:
		b.regs[f] = value
	}
}

// stage queues a CNT/ALR/PRL write; outside configuration mode the
// hardware ignores it
func (b *Bank) stage(f core.Field, value uint32) {
	if b.regs[core.RTCCRL]&core.CRL_CNF == 0 {
		return
	}
	b.pending = append(b.pending, write{field: f, value: value})
}

// readCRL returns RTC_CRL and advances the RTOFF/RSF state machines
func (b *Bank) readCRL() uint32 {
	if b.busy > 0 {
		b.busy--
		if b.busy == 0 {
			b.commit()
		}
	}
	if b.rsfPending {
		if b.rsfWait == 0 {
			b.regs[core.RTCCRL] |= core.CRL_RSF
			b.rsfPending = false
		} else {
			b.rsfWait--
		}
	}

	v := b.regs[core.RTCCRL] &^ core.CRL_RTOFF
	if b.busy == 0 {
		v |= core.CRL_RTOFF
	}
	return v
}

// writeCRL applies CNF and the rc_w0 flags; RTOFF is read-only
func (b *Bank) writeCRL(value uint32) {
	const flags = core.CRL_SECF | core.CRL_ALRF | core.CRL_OWF | core.CRL_RSF

	crl := b.regs[core.RTCCRL]
	wasCNF := crl&core.CRL_CNF != 0
	wantCNF := value&core.CRL_CNF != 0

	// rc_w0: writing 0 clears, writing 1 leaves the flag alone
	cleared := crl & flags &^ value
	crl &^= cleared
	if cleared&core.CRL_RSF != 0 {
		b.rsfPending = true
		b.rsfWait = b.RSFDelay
	}

	switch {
	case !wasCNF && wantCNF:
		b.ConfigRequests++
		if b.IgnoreConfig > 0 {
			b.IgnoreConfig--
			break
		}
		b.ConfigEntries++
		b.pending = b.pending[:0]
		crl |= core.CRL_CNF
	case wasCNF && !wantCNF:
		crl &^= core.CRL_CNF
		b.startWrite()
	}
	b.regs[core.RTCCRL] = crl
}

// startWrite begins transferring the staged values into the RTC core
func (b *Bank) startWrite() {
	switch {
	case b.StuckBusy:
		b.busy = -1
		b.pending = b.pending[:0]
	case b.Settle > 0:
		b.busy = b.Settle
	default:
		b.commit()
	}
}

// commit lands the staged writes
func (b *Bank) commit() {
	counter := b.counter
	for _, w := range b.pending {
		switch w.field {
		case core.RTCCNTH:
			counter = w.value<<16 | counter&0xFFFF
		case core.RTCCNTL:
			counter = counter&0xFFFF0000 | w.value
		case core.RTCALRH:
			b.alarm = w.value<<16 | b.alarm&0xFFFF
		case core.RTCALRL:
			b.alarm = b.alarm&0xFFFF0000 | w.value
		case core.RTCPRLH:
			b.prescaler = w.value<<16 | b.prescaler&0xFFFF
		case core.RTCPRLL:
			b.prescaler = b.prescaler&0xF0000 | w.value
		}
	}
	b.pending = b.pending[:0]
	if counter != b.counter {
		b.setCounter(counter)
	}
}

// readBDCR returns RCC_BDCR and advances the LSE start-up
func (b *Bank) readBDCR() uint32 {
	bdcr := b.regs[core.RCCBDCR]
	if bdcr&core.BDCR_LSEON != 0 && bdcr&core.BDCR_LSERDY == 0 && !b.LSEDead {
		if b.lseWait == 0 {
			bdcr |= core.BDCR_LSERDY
			b.regs[core.RCCBDCR] = bdcr
		} else {
			b.lseWait--
		}
	}
	return bdcr
}

// writeBDCR handles LSEON and the read-only LSERDY bit
func (b *Bank) writeBDCR(value uint32) {
	old := b.regs[core.RCCBDCR]
	if value&core.BDCR_BDRST != 0 {
		b.LoseBackup()
		return
	}
	if old&core.BDCR_LSEON == 0 && value&core.BDCR_LSEON != 0 {
		b.lseWait = b.LSEDelay
	}
	ready := old & core.BDCR_LSERDY
	if value&core.BDCR_LSEON == 0 {
		ready = 0
	}
	b.regs[core.RCCBDCR] = value&^core.BDCR_LSERDY | ready
}

// setCounter changes the counter and records the value as having existed
func (b *Bank) setCounter(v uint32) {
	b.counter = v
	b.history = append(b.history, v)
	if v == b.alarm && b.regs[core.RCCBDCR]&core.BDCR_RTCEN != 0 {
		b.regs[core.RTCCRL] |= core.CRL_ALRF
	}
}

// Tick advances the counter by one second
func (b *Bank) Tick() {
	b.setCounter(b.counter + 1)
	b.regs[core.RTCCRL] |= core.CRL_SECF
}

// SetCounter forces the counter, bypassing the configuration sequence
func (b *Bank) SetCounter(v uint32) {
	b.setCounter(v)
}

// SetHigh replaces only the high half of the counter
func (b *Bank) SetHigh(v uint16) {
	b.setCounter(uint32(v)<<16 | b.counter&0xFFFF)
}

// SetLow replaces only the low half of the counter
func (b *Bank) SetLow(v uint16) {
	b.setCounter(b.counter&0xFFFF0000 | uint32(v))
}

// Counter returns the value in the RTC core
func (b *Bank) Counter() uint32 { return b.counter }

// Alarm returns the value the alarm registers hold
func (b *Bank) Alarm() uint32 { return b.alarm }

// Prescaler returns the 20-bit RTC_PRL value
func (b *Bank) Prescaler() uint32 { return b.prescaler }

// Existed reports whether the counter ever held v
func (b *Bank) Existed(v uint32) bool {
	for _, h := range b.history {
		if h == v {
			return true
		}
	}
	return false
}

// Reads returns how many times f was read
func (b *Bank) Reads(f core.Field) int {
	if f >= core.NumFields {
		return 0
	}
	return b.reads[f]
}

// Writes returns how many times f was written
func (b *Bank) Writes(f core.Field) int {
	if f >= core.NumFields {
		return 0
	}
	return b.writes[f]
}

// Raw returns the stored value of f without side effects
func (b *Bank) Raw(f core.Field) uint32 {
	if f >= core.NumFields {
		return 0
	}
	return b.regs[f]
}

// LoseBackup emulates a VBAT loss: the whole backup domain is reset
func (b *Bank) LoseBackup() {
	b.regs[core.BKPDR1] = 0
	b.regs[core.BKPRTCCR] = 0
	b.regs[core.RCCBDCR] = 0
	b.regs[core.RTCCRL] &^= core.CRL_ALRF | core.CRL_SECF | core.CRL_OWF
	b.prescaler = 0x8000
	b.alarm = 0xFFFFFFFF
	b.pending = b.pending[:0]
	b.busy = 0
	b.setCounter(0)
}
