package calendar

import (
	"fmt"
	"strings"
	"time"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var byTimeWeekday = [...]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

func WeekdayOf(w time.Weekday) Weekday {
	return byTimeWeekday[w]
}

// ParseWeekday accepts full lowercase names and three-letter abbreviations.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range byTimeWeekday {
		if s == string(w) || (len(s) == 3 && strings.HasPrefix(string(w), s)) {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

func (w Weekday) String() string { return string(w) }
