package console

import (
	"fmt"
	"strings"
	"time"

	"bluepill/core"
)

// rtctest log wording
const (
	startPrefix = "Starting RTC test at "
	startBy     = " by "
	resetLine   = "RTC invalid, reset!"
	timePrefix  = "Time is: "
	sleepPrefix = "Sleep until : "
	sleepSuffix = "..."
	refPrefix   = "Reference: "
)

// StartLine announces a boot and why it happened
func StartLine(ts uint32, loc *time.Location, reason string) string {
	return startPrefix + core.FormatTime(ts, loc) + startBy + reason
}

// ResetLine reports that the backup domain had been lost
func ResetLine() string {
	return resetLine
}

// TimeLine is the periodic status line
func TimeLine(ts uint32, loc *time.Location) string {
	return timePrefix + core.FormatTime(ts, loc)
}

// SleepLine announces standby until the alarm time
func SleepLine(ts uint32, loc *time.Location) string {
	return sleepPrefix + core.FormatTime(ts, loc) + sleepSuffix
}

// ReferenceLine reports a drift measurement against a reference clock
func ReferenceLine(offset int64, ppm float64, cal uint8) string {
	return fmt.Sprintf("%soffset %ds drift %.2f ppm cal %d", refPrefix, offset, ppm, cal)
}

// Kind identifies a parsed log line
type Kind uint8

const (
	KindUnknown Kind = iota
	KindStart
	KindReset
	KindTime
	KindSleep
	KindReference
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindReset:
		return "reset"
	case KindTime:
		return "time"
	case KindSleep:
		return "sleep"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Event is one recognised rtctest log line
type Event struct {
	Kind Kind

	// Time is the local wall clock printed by the board. It carries no
	// zone; the board formats in its own configured timezone.
	Time time.Time

	// Reason is the startup reason of a KindStart event
	Reason string

	// Offset, PPM and Calibration are set for KindReference
	Offset      int64
	PPM         float64
	Calibration uint8

	Line string
}

// ParseLine recognises one line of rtctest output. Leading and trailing
// whitespace is ignored.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	ev := Event{Line: line}

	switch {
	case strings.HasPrefix(line, startPrefix):
		rest := line[len(startPrefix):]
		i := strings.Index(rest, startBy)
		if i < 0 {
			return ev, false
		}
		t, err := time.Parse(core.TimeLayout, rest[:i])
		if err != nil {
			return ev, false
		}
		ev.Kind, ev.Time, ev.Reason = KindStart, t, rest[i+len(startBy):]

	case line == resetLine:
		ev.Kind = KindReset

	case strings.HasPrefix(line, timePrefix):
		t, err := time.Parse(core.TimeLayout, line[len(timePrefix):])
		if err != nil {
			return ev, false
		}
		ev.Kind, ev.Time = KindTime, t

	case strings.HasPrefix(line, sleepPrefix):
		s := strings.TrimSuffix(line[len(sleepPrefix):], sleepSuffix)
		t, err := time.Parse(core.TimeLayout, s)
		if err != nil {
			return ev, false
		}
		ev.Kind, ev.Time = KindSleep, t

	case strings.HasPrefix(line, refPrefix):
		var cal int
		_, err := fmt.Sscanf(line[len(refPrefix):], "offset %ds drift %f ppm cal %d", &ev.Offset, &ev.PPM, &cal)
		if err != nil {
			return ev, false
		}
		ev.Kind, ev.Calibration = KindReference, uint8(cal)

	default:
		return ev, false
	}
	return ev, true
}
