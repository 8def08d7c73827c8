// Package refclock measures RTC drift against a DS3231 on I2C.
//
// The DS3231 is a TCXO-based clock good to about 2 ppm, an order of
// magnitude better than a typical 32.768 kHz crystal on a Blue Pill. Reading
// both clocks over a long enough span gives the drift in ppm and from that
// the BKP_RTCCR.CAL value that trims the STM32 RTC.
//
// Both clocks only resolve whole seconds, so a measurement is refused until
// the reference has advanced MinSpan seconds.
package refclock

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"

	"bluepill/core"
)

// MinSpan is the shortest reference interval accepted for a measurement.
// One second of quantisation over an hour is about 280 ppm of noise,
// so an hour is the bare minimum; a day gives ~12 ppm.
const MinSpan = 3600

var (
	// ErrNotValid indicates the DS3231 lost power and its time is unusable
	ErrNotValid = errors.New("refclock: reference time not valid")

	// ErrShortSpan indicates too little reference time has passed
	ErrShortSpan = errors.New("refclock: measurement span too short")

	// ErrBackwards indicates the reference went backwards between samples
	ErrBackwards = errors.New("refclock: reference went backwards")
)

// Reference is a DS3231 used as a time reference
type Reference struct {
	dev ds3231.Device
}

// New creates a Reference on an already configured I2C bus
func New(bus drivers.I2C) *Reference {
	r := &Reference{dev: ds3231.New(bus)}
	r.dev.Configure()
	return r
}

// Valid reports whether the DS3231 oscillator kept running since it was set
func (r *Reference) Valid() bool {
	return r.dev.IsTimeValid()
}

// Now returns the reference time as Unix seconds
func (r *Reference) Now() (uint32, error) {
	t, err := r.dev.ReadTime()
	if err != nil {
		return 0, err
	}
	return uint32(t.Unix()), nil
}

// Sync sets the reference to ts (Unix seconds, UTC)
func (r *Reference) Sync(ts uint32) error {
	return r.dev.SetTime(time.Unix(int64(ts), 0).UTC())
}

// Sample is a pair of readings taken back to back
type Sample struct {
	RTC uint32
	Ref uint32
}

// Drift is the result of comparing two samples
type Drift struct {
	// Offset is RTC minus reference at the last sample, in seconds
	Offset int64

	// Span is the reference interval between the samples, in seconds
	Span uint32

	// PPM is positive when the RTC runs fast
	PPM float64

	// Calibration is the CAL value that would correct PPM
	Calibration uint8
}

// SecondsPerDay returns the drift expressed in seconds per day
func (d Drift) SecondsPerDay() float64 {
	return core.SecondsPerDay(d.PPM)
}

// Measure compares two samples
func Measure(first, last Sample) (Drift, error) {
	if last.Ref < first.Ref {
		return Drift{}, ErrBackwards
	}
	d := Drift{
		Offset: int64(last.RTC) - int64(last.Ref),
		Span:   last.Ref - first.Ref,
	}
	if d.Span < MinSpan {
		return d, ErrShortSpan
	}
	rtcSpan := float64(int64(last.RTC) - int64(first.RTC))
	d.PPM = core.DriftPPM(rtcSpan, float64(d.Span))
	d.Calibration = core.CalibrationFromDrift(d.PPM)
	return d, nil
}

// Tracker keeps the first sample and measures every later one against it
type Tracker struct {
	ref   *Reference
	first Sample
	have  bool
}

// NewTracker creates a Tracker reading ref
func NewTracker(ref *Reference) *Tracker {
	return &Tracker{ref: ref}
}

// Sample reads the reference next to the given RTC value. The first call
// only records; later calls return the drift since then. ErrShortSpan is
// returned until MinSpan has passed.
func (t *Tracker) Sample(rtc uint32) (Drift, error) {
	if !t.ref.Valid() {
		return Drift{}, ErrNotValid
	}
	ref, err := t.ref.Now()
	if err != nil {
		return Drift{}, err
	}
	s := Sample{RTC: rtc, Ref: ref}
	if !t.have {
		t.first, t.have = s, true
		return Drift{Offset: int64(rtc) - int64(ref)}, ErrShortSpan
	}
	return Measure(t.first, s)
}

// Reset forgets the first sample, e.g. after the RTC was set
func (t *Tracker) Reset() {
	t.have = false
}
