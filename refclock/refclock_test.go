package refclock

import (
	"errors"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"bluepill/core"
)

// fakeDS3231 emulates the DS3231 register file behind an I2C bus.
// A write sets the register pointer from the first byte and stores the rest;
// a read returns registers starting at the pointer.
type fakeDS3231 struct {
	regs  [0x13]byte
	addrs []uint16
}

var _ drivers.I2C = (*fakeDS3231)(nil)

func (f *fakeDS3231) Tx(addr uint16, w, r []byte) error {
	f.addrs = append(f.addrs, addr)
	if len(w) == 0 {
		return errors.New("no register pointer")
	}
	reg := int(w[0])
	for i, b := range w[1:] {
		if reg+i < len(f.regs) {
			f.regs[reg+i] = b
		}
	}
	for i := range r {
		r[i] = 0
		if reg+i < len(f.regs) {
			r[i] = f.regs[reg+i]
		}
	}
	return nil
}

func bcd(v int) byte {
	return byte(v/10<<4 | v%10)
}

// setTime loads t into the time registers in 24-hour mode
func (f *fakeDS3231) setTime(ts uint32) {
	t := time.Unix(int64(ts), 0).UTC()
	f.regs[0] = bcd(t.Second())
	f.regs[1] = bcd(t.Minute())
	f.regs[2] = bcd(t.Hour())
	f.regs[3] = bcd(int(t.Weekday()) + 1)
	f.regs[4] = bcd(t.Day())
	f.regs[5] = bcd(int(t.Month()))
	f.regs[6] = bcd(t.Year() - 2000)
}

// loseTime sets the oscillator stop flag
func (f *fakeDS3231) loseTime() {
	f.regs[0x0F] |= 0x80
}

func TestReferenceReadsSeededTime(t *testing.T) {
	bus := &fakeDS3231{}
	bus.setTime(core.SeedTimestamp)
	ref := New(bus)

	got, err := ref.Now()
	if err != nil {
		t.Fatalf("Now failed: %v", err)
	}
	if got != core.SeedTimestamp {
		t.Errorf("Now = %d, want %d", got, core.SeedTimestamp)
	}
	for _, a := range bus.addrs {
		if a != 0x68 {
			t.Errorf("transaction to address %#x, want 0x68", a)
		}
	}
}

func TestReferenceSync(t *testing.T) {
	bus := &fakeDS3231{}
	ref := New(bus)

	for _, ts := range []uint32{core.SeedTimestamp, 1577836800, 1609459199} {
		if err := ref.Sync(ts); err != nil {
			t.Fatalf("Sync(%d) failed: %v", ts, err)
		}
		got, err := ref.Now()
		if err != nil {
			t.Fatalf("Now failed: %v", err)
		}
		if got != ts {
			t.Errorf("Now after Sync(%d) = %d", ts, got)
		}
	}
}

func TestReferenceValid(t *testing.T) {
	bus := &fakeDS3231{}
	ref := New(bus)

	bus.loseTime()
	if ref.Valid() {
		t.Fatal("Valid with oscillator stop flag set")
	}
	if err := ref.Sync(core.SeedTimestamp); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !ref.Valid() {
		t.Error("Sync should clear the oscillator stop flag")
	}
}

func TestMeasure(t *testing.T) {
	const t0 = core.SeedTimestamp
	tests := []struct {
		name   string
		first  Sample
		last   Sample
		offset int64
		ppm    float64
		cal    uint8
		err    error
	}{
		{"exact", Sample{t0, t0}, Sample{t0 + 86400, t0 + 86400}, 0, 0, 0, nil},
		{"fast 5s/day", Sample{t0, t0}, Sample{t0 + 86405, t0 + 86400}, 5, 57.87, 61, nil},
		{"slow", Sample{t0, t0}, Sample{t0 + 86395, t0 + 86400}, -5, -57.87, 0, nil},
		{"offset kept", Sample{t0 + 10, t0}, Sample{t0 + 3610, t0 + 3600}, 10, 0, 0, nil},
		{"short", Sample{t0, t0}, Sample{t0 + 60, t0 + 59}, 1, 0, 0, ErrShortSpan},
		{"backwards", Sample{t0, t0}, Sample{t0, t0 - 1}, 0, 0, 0, ErrBackwards},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Measure(tt.first, tt.last)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if d.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", d.Offset, tt.offset)
			}
			if diff := d.PPM - tt.ppm; diff > 0.01 || diff < -0.01 {
				t.Errorf("PPM = %.3f, want %.2f", d.PPM, tt.ppm)
			}
			if d.Calibration != tt.cal {
				t.Errorf("Calibration = %d, want %d", d.Calibration, tt.cal)
			}
		})
	}
}

func TestTracker(t *testing.T) {
	bus := &fakeDS3231{}
	bus.setTime(core.SeedTimestamp)
	tr := NewTracker(New(bus))

	if _, err := tr.Sample(core.SeedTimestamp + 2); !errors.Is(err, ErrShortSpan) {
		t.Fatalf("first Sample err = %v, want ErrShortSpan", err)
	}

	bus.setTime(core.SeedTimestamp + 600)
	if _, err := tr.Sample(core.SeedTimestamp + 602); !errors.Is(err, ErrShortSpan) {
		t.Errorf("Sample after 600 s err = %v, want ErrShortSpan", err)
	}

	bus.setTime(core.SeedTimestamp + 86400)
	d, err := tr.Sample(core.SeedTimestamp + 86400 + 7)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if d.Offset != 7 || d.Span != 86400 {
		t.Errorf("Offset=%d Span=%d, want 7 and 86400", d.Offset, d.Span)
	}
	if s := d.SecondsPerDay(); s < 4.99 || s > 5.01 {
		t.Errorf("SecondsPerDay = %.3f, want 5", s)
	}

	tr.Reset()
	if _, err := tr.Sample(core.SeedTimestamp + 86407); !errors.Is(err, ErrShortSpan) {
		t.Errorf("Sample after Reset err = %v, want ErrShortSpan", err)
	}

	bus.loseTime()
	if _, err := tr.Sample(0); !errors.Is(err, ErrNotValid) {
		t.Errorf("Sample with stopped oscillator err = %v, want ErrNotValid", err)
	}
}
