package core

import (
	"encoding/binary"
	"time"
)

// TimeLayout is the fixed-width layout used in diagnostic output
const TimeLayout = "2006-01-02 15:04:05"

// Common POSIX TZ rules for the boards in use
const (
	ZoneAmsterdam  = "CET-1CEST-2,M3.5.0/02:00:00,M10.5.0/03:00:00"
	ZoneNewZealand = "NZST-12NZDT-13,M10.1.0/02:00:00,M3.3.0/03:00:00"
)

// FormatTime renders a counter value in loc. A nil loc means UTC.
func FormatTime(ts uint32, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(int64(ts), 0).In(loc).Format(TimeLayout)
}

// placeholderZone names the zone reported when the rule string is rejected
const placeholderZone = "-00"

// LoadPOSIXZone builds a Location from a POSIX TZ rule such as
// "CET-1CEST-2,M3.5.0/02:00:00,M10.5.0/03:00:00". The firmware has no
// zoneinfo database, so the rule is wrapped in a minimal TZif v2 image
// (one placeholder zone, no transitions) whose footer carries the rule.
func LoadPOSIXZone(rule string) (*time.Location, error) {
	if rule == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocationFromTZData(rule, tzif(rule))
	if err != nil {
		return nil, err
	}
	// An unparseable rule silently falls back to the placeholder zone
	for _, probe := range []int64{0, 15552000} {
		if name, _ := time.Unix(probe, 0).In(loc).Zone(); name == placeholderZone {
			return nil, ErrInvalidZone
		}
	}
	return loc, nil
}

// tzif encodes a TZif v2 image with an empty v1 block and a single zone
func tzif(rule string) []byte {
	abbrev := append([]byte(placeholderZone), 0)

	header := func(buf []byte, typecnt, charcnt uint32) []byte {
		buf = append(buf, "TZif2"...)
		buf = append(buf, make([]byte, 15)...)
		// isutcnt, isstdcnt, leapcnt, timecnt, typecnt, charcnt
		for _, n := range []uint32{0, 0, 0, 0, typecnt, charcnt} {
			buf = binary.BigEndian.AppendUint32(buf, n)
		}
		return buf
	}
	zone := func(buf []byte) []byte {
		buf = binary.BigEndian.AppendUint32(buf, 0) // utoff
		buf = append(buf, 0, 0)                     // isdst, desigidx
		return append(buf, abbrev...)
	}

	var buf []byte
	buf = header(buf, 1, uint32(len(abbrev)))
	buf = zone(buf)
	buf = header(buf, 1, uint32(len(abbrev)))
	buf = zone(buf)
	buf = append(buf, '\n')
	buf = append(buf, rule...)
	return append(buf, '\n')
}
