// Package monitor reads the board's serial console from the host and checks
// what the rtctest and usbtest firmware print.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bluepill/console"
	"bluepill/core"
)

var (
	// ErrNoStart indicates no start line arrived before the context ended
	ErrNoStart = errors.New("monitor: no start line")

	// ErrIncomplete indicates the capture ended before enough time lines
	ErrIncomplete = errors.New("monitor: capture incomplete")

	// ErrTimeWentBackwards indicates a time line earlier than its predecessor
	ErrTimeWentBackwards = errors.New("monitor: time went backwards")

	// ErrAlarmMismatch indicates the announced alarm is not start plus the
	// sleep delay
	ErrAlarmMismatch = errors.New("monitor: alarm time mismatch")
)

const (
	// SleepDelay is how long after its start time rtctest sets the alarm
	SleepDelay = 20 * time.Second

	// DSTShift is the largest daylight saving step back Check tolerates
	DSTShift = time.Hour

	// IdleBackoff is the pause after a read that returned no data
	IdleBackoff = 5 * time.Millisecond
)

// lineReader splits a serial stream into lines. Reads are expected to
// return periodically (tarm/serial read timeout) so the context is checked
// between them; io.EOF counts as "nothing yet".
type lineReader struct {
	r     io.Reader
	split *console.LineSplitter
	buf   [64]byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, split: console.NewLineSplitter()}
}

func (l *lineReader) next(ctx context.Context) (string, error) {
	for {
		if line, ok := l.split.Next(); ok {
			return line, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := l.r.Read(l.buf[:])
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			l.idle(ctx)
			continue
		}
		if ferr := l.split.Feed(l.buf[:n]); ferr != nil {
			logWarn(ComponentSerial, "line framing", "err", ferr)
		}
	}
}

// idle waits IdleBackoff or until ctx ends. It keeps a reader without a
// read timeout from spinning.
func (l *lineReader) idle(ctx context.Context) {
	t := time.NewTimer(IdleBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Capture is one boot of the rtctest firmware as seen on the console
type Capture struct {
	Start      console.Event
	Reset      bool
	Times      []console.Event
	References []console.Event
	Sleep      *console.Event

	// Skipped counts lines that were not rtctest output
	Skipped int
}

// WokeByAlarm reports whether the board said it came out of standby
func (c *Capture) WokeByAlarm() bool {
	return c.Start.Reason == core.ReasonWake
}

// Check verifies the captured times are consistent: time lines never go
// backwards and the announced alarm is SleepDelay after the start time.
// The board prints local wall-clock time without a zone, so one step back
// of just under DSTShift is accepted as a daylight saving fall-back.
func (c *Capture) Check() error {
	prev := c.Start.Time
	fellBack := false
	for _, ev := range c.Times {
		if ev.Time.Before(prev) {
			back := prev.Sub(ev.Time)
			if fellBack || back > DSTShift || back < DSTShift-time.Minute {
				return fmt.Errorf("%w: %q after %s", ErrTimeWentBackwards, ev.Line, prev.Format(core.TimeLayout))
			}
			fellBack = true
		}
		prev = ev.Time
	}
	if c.Sleep != nil {
		want := c.Start.Time.Add(SleepDelay)
		if !c.Sleep.Time.Equal(want) && !c.Sleep.Time.Equal(want.Add(-DSTShift)) {
			return fmt.Errorf("%w: sleep until %s, want %s", ErrAlarmMismatch,
				c.Sleep.Time.Format(core.TimeLayout), want.Format(core.TimeLayout))
		}
	}
	return nil
}

// CaptureBoot reads r until a start line followed by n time lines, or until
// the board announces standby. Lines before the start line are skipped.
// When ctx ends first the partial capture is returned with ErrNoStart or
// ErrIncomplete.
func CaptureBoot(ctx context.Context, r io.Reader, n int) (*Capture, error) {
	lr := newLineReader(r)
	c := &Capture{}
	started := false

	for !started || c.Sleep == nil && len(c.Times) < n {
		line, err := lr.next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				return c, err
			}
			if !started {
				return c, fmt.Errorf("%w: %w", ErrNoStart, err)
			}
			return c, fmt.Errorf("%w: %d of %d time lines: %w", ErrIncomplete, len(c.Times), n, err)
		}

		ev, ok := console.ParseLine(line)
		if !ok || !started && ev.Kind != console.KindStart {
			c.Skipped++
			logDebug(ComponentCapture, "skip", "line", line)
			continue
		}
		logInfo(ComponentCapture, ev.Kind.String(), "line", ev.Line)

		switch ev.Kind {
		case console.KindStart:
			// A second start line means the board rebooted; start over
			*c = Capture{Start: ev, Skipped: c.Skipped}
			started = true
		case console.KindReset:
			c.Reset = true
		case console.KindTime:
			c.Times = append(c.Times, ev)
		case console.KindReference:
			c.References = append(c.References, ev)
		case console.KindSleep:
			c.Sleep = &ev
		}
	}
	return c, nil
}

// ProbeEcho sends one byte to the usbtest firmware and waits for its reply.
// It returns the round-trip time.
func ProbeEcho(ctx context.Context, rw io.ReadWriter) (time.Duration, error) {
	lr := newLineReader(rw)
	begin := time.Now()
	if _, err := rw.Write([]byte{'?'}); err != nil {
		return 0, fmt.Errorf("write probe: %w", err)
	}
	for {
		line, err := lr.next(ctx)
		if err != nil {
			return time.Since(begin), err
		}
		if line == console.Reply {
			rtt := time.Since(begin)
			logInfo(ComponentEcho, "reply", "rtt", rtt)
			return rtt, nil
		}
		logDebug(ComponentEcho, "skip", "line", line)
	}
}
