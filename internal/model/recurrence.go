package model

import (
	"errors"
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

var (
	ErrInvalidFrequency = errors.New("model: invalid recurrence frequency")
	ErrInvalidInterval  = errors.New("model: invalid recurrence interval")
)

// Recurrence is stored inline on every recurring record. An empty Frequency
// means the record carries no pattern.
type Recurrence struct {
	Frequency Frequency  `gorm:"size:16" json:"frequency,omitempty"`
	Interval  int        `json:"interval,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (r Recurrence) IsSet() bool { return r.Frequency != "" }

func (r Recurrence) OrNil() *Recurrence {
	if !r.IsSet() {
		return nil
	}
	return &r
}

func (r Recurrence) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	return nil
}

func (r Recurrence) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// RecurringItem is the read-only view the materializer needs from each kind.
type RecurringItem interface {
	Kind() ItemKind
	Owner() string
	Pattern() *Recurrence
	AnchorTime() time.Time
	AnchorDate(loc *time.Location) time.Time
}

// DayScheduled is implemented by kinds that can override the pattern with a
// per-weekday schedule.
type DayScheduled interface {
	Schedule() []MealSchedule
}

// Evaluator decides whether a recurring item is due on a given day.
//
// By default only the frequency gates recurrence: interval and end date are
// stored but not consulted. EnforceInterval turns both on.
type Evaluator struct {
	EnforceInterval bool
}

// ShouldMaterialize reports whether pattern, anchored at anchorDate, is due
// on today. Both dates are compared by calendar components in their own
// location. A zero anchor (a task without a deadline) is never due.
func (e Evaluator) ShouldMaterialize(anchorDate time.Time, pattern *Recurrence, today time.Time) bool {
	if pattern == nil || anchorDate.IsZero() {
		return false
	}

	var due bool
	switch pattern.Frequency {
	case FrequencyDaily:
		due = true
	case FrequencyWeekly:
		due = anchorDate.Weekday() == today.Weekday()
	case FrequencyMonthly:
		// Day 31 never matches a 30-day month; that is the documented behaviour.
		due = anchorDate.Day() == today.Day()
	default:
		return false
	}
	if !due || !e.EnforceInterval {
		return due
	}
	return e.withinInterval(anchorDate, pattern, today)
}

// ShouldMaterializeItem applies a day schedule when the item has one,
// otherwise falls back to the recurrence pattern.
func (e Evaluator) ShouldMaterializeItem(item RecurringItem, today time.Time) bool {
	if scheduled, ok := item.(DayScheduled); ok {
		if schedule := scheduled.Schedule(); len(schedule) > 0 {
			return scheduleEnabled(schedule, today.Weekday())
		}
	}
	return e.ShouldMaterialize(item.AnchorDate(today.Location()), item.Pattern(), today)
}

func (e Evaluator) withinInterval(anchorDate time.Time, pattern *Recurrence, today time.Time) bool {
	anchorDay := dateOf(anchorDate, today.Location())
	todayDay := dateOf(today, today.Location())
	if todayDay.Before(anchorDay) {
		return false
	}
	if pattern.EndDate != nil && todayDay.After(dateOf(*pattern.EndDate, today.Location())) {
		return false
	}

	step := pattern.interval()
	switch pattern.Frequency {
	case FrequencyDaily:
		return daysBetween(anchorDay, todayDay)%step == 0
	case FrequencyWeekly:
		return (daysBetween(anchorDay, todayDay)/7)%step == 0
	case FrequencyMonthly:
		months := (todayDay.Year()-anchorDay.Year())*12 + int(todayDay.Month()-anchorDay.Month())
		return months%step == 0
	default:
		return false
	}
}

func scheduleEnabled(schedule []MealSchedule, weekday time.Weekday) bool {
	name := WeekdayName(weekday)
	for _, entry := range schedule {
		if entry.DayOfWeek == name {
			return entry.Enabled
		}
	}
	return false
}

// daysBetween counts calendar days, immune to DST shifts.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
