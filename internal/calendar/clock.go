package calendar

import (
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

// Clock is a time of day in minutes since midnight. Values at or past
// MinutesPerDay only appear as the end of an interval that runs to midnight.
//
// Input must be zero-padded "HH:MM"; lexicographic comparison of such strings
// matches numeric order, but all arithmetic happens on Clock.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	return NewClock(h, m), nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// On places c on day d in loc.
func (c Clock) On(d Date, loc *time.Location) time.Time {
	return d.In(loc).Add(time.Duration(c) * time.Minute)
}

func (c Clock) String() string {
	wrapped := int(c) % MinutesPerDay
	if wrapped < 0 {
		wrapped += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", wrapped/60, wrapped%60)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

func NewInterval(start Clock, minutes int) Interval {
	return Interval{Start: start, End: start.Add(minutes)}
}

func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
