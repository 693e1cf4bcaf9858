// Package timestamp holds the clock's value object and its display
// formatting.
package timestamp

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone rules must not depend on the host image
)

// Timestamp is an immutable wall-clock reading tagged with an IANA zone.
// The zero value is not valid; use New or FromTime.
type Timestamp struct {
	t    time.Time
	zone string
}

// Fields is the wall-clock breakdown a Timestamp is built from. Month is
// 1-indexed.
type Fields struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
}

// New builds a Timestamp from wall-clock fields in zone. Fields outside
// their natural ranges are rejected rather than normalized.
func New(f Fields, zone string) (Timestamp, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Timestamp{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	if f.Month < 1 || f.Month > 12 {
		return Timestamp{}, fmt.Errorf("month out of range: %d", f.Month)
	}
	if f.Day < 1 || f.Day > daysIn(time.Month(f.Month), f.Year) {
		return Timestamp{}, fmt.Errorf("day out of range: %04d-%02d-%02d", f.Year, f.Month, f.Day)
	}
	if f.Hour < 0 || f.Hour > 23 || f.Minute < 0 || f.Minute > 59 ||
		f.Second < 0 || f.Second > 59 || f.Millisecond < 0 || f.Millisecond > 999 {
		return Timestamp{}, fmt.Errorf("time out of range: %02d:%02d:%02d.%03d",
			f.Hour, f.Minute, f.Second, f.Millisecond)
	}
	t := time.Date(f.Year, time.Month(f.Month), f.Day, f.Hour, f.Minute, f.Second,
		f.Millisecond*int(time.Millisecond), loc)
	return Timestamp{t: t, zone: zone}, nil
}

// FromTime re-expresses t in zone.
func FromTime(t time.Time, zone string) (Timestamp, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Timestamp{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	return Timestamp{t: t.In(loc), zone: zone}, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(f Fields, zone string) Timestamp {
	ts, err := New(f, zone)
	if err != nil {
		panic(err)
	}
	return ts
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsZero reports whether ts was never constructed.
func (ts Timestamp) IsZero() bool { return ts.zone == "" }

// Zone returns the IANA identifier the timestamp is attached to.
func (ts Timestamp) Zone() string { return ts.zone }

// Time returns the instant in the timestamp's location.
func (ts Timestamp) Time() time.Time { return ts.t }

// Fields returns the wall-clock breakdown.
func (ts Timestamp) Fields() Fields {
	return Fields{
		Year:        ts.t.Year(),
		Month:       int(ts.t.Month()),
		Day:         ts.t.Day(),
		Hour:        ts.t.Hour(),
		Minute:      ts.t.Minute(),
		Second:      ts.t.Second(),
		Millisecond: ts.t.Nanosecond() / int(time.Millisecond),
	}
}

// Weekday is derived from the wall-clock date.
func (ts Timestamp) Weekday() time.Weekday { return ts.t.Weekday() }

// DST reports whether daylight saving time is in effect at this instant.
func (ts Timestamp) DST() bool { return ts.t.IsDST() }

// Add returns ts advanced by d. Carries across day, month, year and DST
// boundaries follow the zone's rules.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{t: ts.t.Add(d), zone: ts.zone}
}

// AddSeconds is Add in whole seconds.
func (ts Timestamp) AddSeconds(n int) Timestamp {
	return ts.Add(time.Duration(n) * time.Second)
}

// Equal compares instant and zone.
func (ts Timestamp) Equal(o Timestamp) bool {
	return ts.zone == o.zone && ts.t.Equal(o.t)
}

func (ts Timestamp) String() string {
	return ts.t.Format("2006-01-02T15:04:05.000") + " " + ts.zone
}
