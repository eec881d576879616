package model

import "time"

type MealType string

const (
	MealTypeRegular    MealType = "regular"
	MealTypeSupplement MealType = "supplement"
)

type MealSchedule struct {
	DayOfWeek string `json:"dayOfWeek"`
	Enabled   bool   `json:"enabled"`
}

// Meal is a planned meal or supplement. A non-empty DaySchedule overrides
// the recurrence pattern.
type Meal struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	UserID      string         `gorm:"index;size:64;not null" json:"userId"`
	Title       string         `gorm:"index;not null" json:"title"`
	Description string         `json:"description"`
	Calories    int            `json:"calories,omitempty"`
	Time        time.Time      `json:"time"`
	Date        string         `gorm:"size:10;index" json:"date"`
	MealType    MealType       `gorm:"size:16;default:regular" json:"mealType"`
	IsRecurring bool           `gorm:"index;default:false" json:"isRecurring"`
	Recurrence  Recurrence     `gorm:"embedded;embeddedPrefix:recur_" json:"recurrencePattern"`
	DaySchedule []MealSchedule `gorm:"serializer:json" json:"daySchedule,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (Meal) TableName() string { return CollectionMeals }

func (m Meal) Kind() ItemKind           { return KindMeal }
func (m Meal) Owner() string            { return m.UserID }
func (m Meal) Pattern() *Recurrence     { return m.Recurrence.OrNil() }
func (m Meal) AnchorTime() time.Time    { return m.Time }
func (m Meal) Schedule() []MealSchedule { return m.DaySchedule }
func (m Meal) IsSupplement() bool       { return m.MealType == MealTypeSupplement }
func (m Meal) AnchorDate(loc *time.Location) time.Time {
	return anchorDate(m.Date, m.Time, loc)
}

// Sleep is a bedtime/wake-up plan for one night.
type Sleep struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"index;size:64;not null" json:"userId"`
	BedTime     time.Time  `json:"bedTime"`
	WakeTime    time.Time  `json:"wakeTime"`
	Date        string     `gorm:"size:10;index" json:"date"`
	Quality     string     `gorm:"size:16" json:"quality,omitempty"`
	IsRecurring bool       `gorm:"index;default:false" json:"isRecurring"`
	Recurrence  Recurrence `gorm:"embedded;embeddedPrefix:recur_" json:"recurrencePattern"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (Sleep) TableName() string { return CollectionSleep }

func (s Sleep) Kind() ItemKind        { return KindSleep }
func (s Sleep) Owner() string         { return s.UserID }
func (s Sleep) Pattern() *Recurrence  { return s.Recurrence.OrNil() }
func (s Sleep) AnchorTime() time.Time { return s.BedTime }
func (s Sleep) AnchorDate(loc *time.Location) time.Time {
	return anchorDate(s.Date, s.BedTime, loc)
}

// WaterIntake is a hydration reminder; Amount is in millilitres.
type WaterIntake struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"index;size:64;not null" json:"userId"`
	Amount      int        `json:"amount"`
	Time        time.Time  `json:"time"`
	Date        string     `gorm:"size:10;index" json:"date"`
	IsRecurring bool       `gorm:"index;default:false" json:"isRecurring"`
	Recurrence  Recurrence `gorm:"embedded;embeddedPrefix:recur_" json:"recurrencePattern"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (WaterIntake) TableName() string { return CollectionWater }

func (w WaterIntake) Kind() ItemKind        { return KindWater }
func (w WaterIntake) Owner() string         { return w.UserID }
func (w WaterIntake) Pattern() *Recurrence  { return w.Recurrence.OrNil() }
func (w WaterIntake) AnchorTime() time.Time { return w.Time }
func (w WaterIntake) AnchorDate(loc *time.Location) time.Time {
	return anchorDate(w.Date, w.Time, loc)
}

// ScheduleItem is a calendar event.
type ScheduleItem struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"index;size:64;not null" json:"userId"`
	Title       string     `gorm:"index;not null" json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Date        string     `gorm:"size:10;index" json:"date"`
	Location    string     `json:"location,omitempty"`
	IsRecurring bool       `gorm:"index;default:false" json:"isRecurring"`
	Recurrence  Recurrence `gorm:"embedded;embeddedPrefix:recur_" json:"recurrencePattern"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (ScheduleItem) TableName() string { return CollectionSchedules }

func (s ScheduleItem) Kind() ItemKind        { return KindSchedule }
func (s ScheduleItem) Owner() string         { return s.UserID }
func (s ScheduleItem) Pattern() *Recurrence  { return s.Recurrence.OrNil() }
func (s ScheduleItem) AnchorTime() time.Time { return s.StartTime }
func (s ScheduleItem) AnchorDate(loc *time.Location) time.Time {
	return anchorDate(s.Date, s.StartTime, loc)
}

// anchorDate prefers the record's own date and falls back to the anchor instant.
func anchorDate(date string, instant time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if date != "" {
		if t, err := time.ParseInLocation(DateLayout, date, loc); err == nil {
			return t
		}
	}
	return dateOf(instant, loc)
}
