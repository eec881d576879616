package model

import "time"

// ItemKind tags both recurring records and the tasks spawned from them.
type ItemKind string

const (
	KindTask     ItemKind = "task"
	KindMeal     ItemKind = "meal"
	KindSleep    ItemKind = "sleep"
	KindWater    ItemKind = "water"
	KindSchedule ItemKind = "schedule"
)

func (k ItemKind) IsValid() bool {
	switch k {
	case KindTask, KindMeal, KindSleep, KindWater, KindSchedule:
		return true
	default:
		return false
	}
}

// Collection (table) names.
const (
	CollectionTasks     = "tasks"
	CollectionMeals     = "meals"
	CollectionSleep     = "sleep"
	CollectionWater     = "water_intake"
	CollectionSchedules = "schedules"
	CollectionDailyLogs = "daily_logs"
	CollectionUsers     = "users"
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

func IsWeekdayName(name string) bool {
	for _, n := range weekdayNames {
		if n == name {
			return true
		}
	}
	return false
}
