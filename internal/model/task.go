package model

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a single card on the kanban board. Type tags tasks spawned for
// meals, sleep, water and schedule items.
type Task struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	UserID      string       `gorm:"index;size:64;not null" json:"userId"`
	Title       string       `gorm:"index;not null" json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `gorm:"size:16;index;not null;default:todo" json:"status"`
	Priority    TaskPriority `gorm:"size:8;not null;default:medium" json:"priority"`
	Type        ItemKind     `gorm:"size:16;not null;default:task" json:"type"`
	Location    string       `json:"location,omitempty"`
	Deadline    *time.Time   `gorm:"index" json:"deadline,omitempty"`
	CompletedAt *time.Time   `gorm:"index" json:"completedAt,omitempty"`
	IsRecurring bool         `gorm:"default:false" json:"isRecurring"`
	IsActive    bool         `gorm:"default:false" json:"isActive"`
	Recurrence  Recurrence   `gorm:"embedded;embeddedPrefix:recur_" json:"recurrencePattern"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (Task) TableName() string { return CollectionTasks }

func (t Task) IsCompleted() bool { return t.Status == TaskStatusCompleted }

func (t Task) Kind() ItemKind { return KindTask }

func (t Task) Owner() string { return t.UserID }

func (t Task) Pattern() *Recurrence { return t.Recurrence.OrNil() }

// AnchorTime is the deadline; recurring tasks without one never materialize.
func (t Task) AnchorTime() time.Time {
	if t.Deadline == nil {
		return time.Time{}
	}
	return *t.Deadline
}

func (t Task) AnchorDate(loc *time.Location) time.Time {
	return dateOf(t.AnchorTime(), loc)
}
