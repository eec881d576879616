package model

import "time"

// DailyLog collects one user's logged events for one calendar day.
type DailyLog struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"size:64;not null;uniqueIndex:uidx_daily_log_user_date" json:"userId"`
	Date           string     `gorm:"size:10;not null;uniqueIndex:uidx_daily_log_user_date" json:"date"`
	WakeUpTime     *time.Time `json:"wakeUpTime,omitempty"`
	SleepTime      *time.Time `json:"sleepTime,omitempty"`
	WorkStartTime  *time.Time `json:"workStartTime,omitempty"`
	WorkEndTime    *time.Time `json:"workEndTime,omitempty"`
	TotalWorkTime  int        `json:"totalWorkTime"`  // minutes
	TotalBreakTime int        `json:"totalBreakTime"` // minutes
	TasksCompleted int        `json:"tasksCompleted"`
	Performance    *float64   `json:"performance,omitempty"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (DailyLog) TableName() string { return CollectionDailyLogs }

// PerformanceMetrics is computed per query and never stored.
type PerformanceMetrics struct {
	TotalTasksCreated        int               `json:"totalTasksCreated"`
	TotalTasksCompleted      int               `json:"totalTasksCompleted"`
	CompletionRate           float64           `json:"completionRate"`
	AvgCompletionTime        float64           `json:"avgCompletionTime"`
	TasksCompletedByPriority PriorityBreakdown `json:"tasksCompletedByPriority"`
	DeadlinesMissed          int               `json:"deadlinesMissed"`
	AvgSleepDuration         *float64          `json:"avgSleepDuration,omitempty"`
	AvgWorkDuration          *float64          `json:"avgWorkDuration,omitempty"`
}

type PriorityBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}
