package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, NewClock(9, 5), c)
	assert.Equal(t, "09:05", c.String())

	for _, bad := range []string{"9:05", "24:00", "12:60", "ab:cd", "12-30", ""} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockAddPastMidnight(t *testing.T) {
	c := NewClock(23, 45).Add(30)
	assert.Equal(t, Clock(MinutesPerDay+15), c)
	assert.Equal(t, "00:15", c.String())
}

func TestIntervalOverlaps(t *testing.T) {
	ten := NewInterval(NewClock(10, 0), 30)

	assert.True(t, ten.Overlaps(NewInterval(NewClock(10, 15), 30)))
	assert.True(t, ten.Overlaps(NewInterval(NewClock(9, 45), 30)))
	assert.True(t, ten.Overlaps(NewInterval(NewClock(9, 0), 120)))
	assert.False(t, ten.Overlaps(NewInterval(NewClock(10, 30), 30)), "back-to-back")
	assert.False(t, ten.Overlaps(NewInterval(NewClock(9, 30), 30)), "ends as we start")
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2026-01-31")
	require.NoError(t, err)

	assert.Equal(t, "2026-02-01", d.AddDays(1).String())
	assert.Equal(t, "2026-03-03", d.AddMonths(1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.True(t, d.Equal(Date{Year: 2026, Month: time.January, Day: 31}))
}

func TestDateWeekday(t *testing.T) {
	d, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, Monday, d.Weekday())
	assert.Equal(t, Sunday, d.AddDays(6).Weekday())
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	instant := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-01", DateOf(instant).String())
	assert.Equal(t, "2026-03-02", DateOf(instant.In(loc)).String())
}

func TestClockOn(t *testing.T) {
	d := Date{Year: 2026, Month: time.May, Day: 4}
	got := NewClock(14, 30).On(d, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 4, 14, 30, 0, 0, time.UTC), got)
}

func TestParseWeekday(t *testing.T) {
	w, err := ParseWeekday("Tue")
	require.NoError(t, err)
	assert.Equal(t, Tuesday, w)

	w, err = ParseWeekday("saturday")
	require.NoError(t, err)
	assert.Equal(t, Saturday, w)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestDateTextRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2026-12-25")))
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2026-12-25", string(b))
}
