package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Day is one calendar day in a fixed location: [Start, End).
type Day struct {
	Date  string
	Start time.Time
	End   time.Time
}

func DayOf(t time.Time, loc *time.Location) Day {
	start := dateOf(t, loc)
	return Day{
		Date:  start.Format(DateLayout),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}

// ParseDay parses YYYY-MM-DD in loc.
func ParseDay(date string, loc *time.Location) (Day, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Day{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return DayOf(t, loc), nil
}

// At combines the day with the wall clock of clock, read in the day's location.
func (d Day) At(clock time.Time) time.Time {
	loc := d.Start.Location()
	c := clock.In(loc)
	y, m, dd := d.Start.Date()
	return time.Date(y, m, dd, c.Hour(), c.Minute(), c.Second(), 0, loc)
}

func (d Day) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}
