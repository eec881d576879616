package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// DocumentStore is the part of repository.Store the engine works against.
type DocumentStore interface {
	Query(ctx context.Context, collection string, filters []repository.Filter, orderBy string, dest any) error
	Add(ctx context.Context, collection string, doc any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Exists(ctx context.Context, collection, id string) (bool, error)
}

var instanceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("daily-tracker/materialized"))

// InstanceID is the id of the instance materialized for (user, kind, key) on
// date. Two runs racing on the same instance collide on the primary key.
func InstanceID(userID string, kind model.ItemKind, key, date string) string {
	name := strings.Join([]string{userID, string(kind), key, date}, "|")
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

// CompanionID is the id of the board task that accompanies an instance.
func CompanionID(instanceID string) string {
	return uuid.NewSHA1(instanceNamespace, []byte(instanceID+"|companion")).String()
}

// kindConfig is everything that differs between recurring kinds.
type kindConfig[T model.RecurringItem] struct {
	kind       model.ItemKind
	collection string
	// templates narrows the user's recurring rows beyond is_recurring.
	templates []repository.Filter
	// dedup returns the natural key of today's instance and the filters that
	// find an existing one.
	dedup func(item T, day model.Day) (string, []repository.Filter)
	// instance builds today's copy of item; ID and CreatedAt are set by the caller.
	instance func(item T, day model.Day) T
	setMeta  func(inst *T, id string, createdAt time.Time)
	// companion is nil for kinds that are tasks already.
	companion func(inst T) model.Task
	// reissue gives the instance a random id when the deterministic one is held
	// by a row dedup no longer matches, such as a completed task.
	reissue bool
}

type materializer struct {
	store     DocumentStore
	evaluator model.Evaluator
	now       func() time.Time
	log       *zap.Logger
}

// run materializes every due template of one kind. The first store error
// aborts the run.
func run[T model.RecurringItem](ctx context.Context, m *materializer, cfg kindConfig[T], userID string, day model.Day) (int, error) {
	filters := append([]repository.Filter{
		repository.Eq("user_id", userID),
		repository.Eq("is_recurring", true),
	}, cfg.templates...)

	var items []T
	if err := m.store.Query(ctx, cfg.collection, filters, "created_at", &items); err != nil {
		return 0, fmt.Errorf("load recurring %s: %w", cfg.kind, err)
	}

	created := 0
	for _, item := range items {
		ok, err := materialize(ctx, m, cfg, item, day)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func materialize[T model.RecurringItem](ctx context.Context, m *materializer, cfg kindConfig[T], item T, day model.Day) (bool, error) {
	if !m.evaluator.ShouldMaterializeItem(item, day.Start) {
		return false, nil
	}

	key, filters := cfg.dedup(item, day)
	var existing []T
	if err := m.store.Query(ctx, cfg.collection, filters, "", &existing); err != nil {
		return false, fmt.Errorf("check existing %s: %w", cfg.kind, err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	id := InstanceID(item.Owner(), cfg.kind, key, day.Date)
	taken, err := m.store.Exists(ctx, cfg.collection, id)
	if err != nil {
		return false, fmt.Errorf("check existing %s: %w", cfg.kind, err)
	}
	if taken {
		if !cfg.reissue {
			m.log.Debug("instance id already taken", zap.String("kind", string(cfg.kind)), zap.String("id", id))
			return false, nil
		}
		id = uuid.NewString()
	}

	now := m.now().UTC()
	inst := cfg.instance(item, day)
	cfg.setMeta(&inst, id, now)
	if err := m.store.Add(ctx, cfg.collection, &inst); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("materialize %s: %w", cfg.kind, err)
	}

	if cfg.companion == nil {
		return true, nil
	}
	task := cfg.companion(inst)
	stampCompanion(&task, CompanionID(id), item.Owner(), cfg.kind, now)
	if err := m.store.Add(ctx, model.CollectionTasks, &task); err != nil && !errors.Is(err, repository.ErrDuplicateKey) {
		return true, fmt.Errorf("companion task for %s %s: %w", cfg.kind, id, err)
	}
	return true, nil
}

// clockOn places the wall clock of clock on day; results not after from are
// pushed to the following day.
func clockOn(day model.Day, clock time.Time, from time.Time) time.Time {
	t := day.At(clock)
	if !from.IsZero() && !t.After(from) {
		t = t.AddDate(0, 0, 1)
	}
	return t.UTC()
}

var taskKind = kindConfig[model.Task]{
	kind:       model.KindTask,
	collection: model.CollectionTasks,
	templates:  []repository.Filter{repository.Eq("is_active", true)},
	dedup: func(t model.Task, day model.Day) (string, []repository.Filter) {
		return t.Title, []repository.Filter{
			repository.Eq("user_id", t.UserID),
			repository.Eq("title", t.Title),
			repository.Eq("status", model.TaskStatusTodo),
			repository.Eq("is_recurring", false),
			repository.Gte("deadline", day.Start),
			repository.Lt("deadline", day.End),
		}
	},
	instance: func(t model.Task, day model.Day) model.Task {
		deadline := clockOn(day, *t.Deadline, time.Time{})
		return model.Task{
			UserID:      t.UserID,
			Title:       t.Title,
			Description: t.Description,
			Status:      model.TaskStatusTodo,
			Priority:    t.Priority,
			Type:        model.KindTask,
			Location:    t.Location,
			Deadline:    &deadline,
		}
	},
	setMeta: func(t *model.Task, id string, at time.Time) {
		t.ID, t.CreatedAt, t.UpdatedAt = id, at, at
	},
	reissue: true,
}

var mealKind = kindConfig[model.Meal]{
	kind:       model.KindMeal,
	collection: model.CollectionMeals,
	dedup: func(m model.Meal, day model.Day) (string, []repository.Filter) {
		return m.Title, []repository.Filter{
			repository.Eq("user_id", m.UserID),
			repository.Eq("title", m.Title),
			repository.Eq("date", day.Date),
		}
	},
	instance: func(m model.Meal, day model.Day) model.Meal {
		return model.Meal{
			UserID:      m.UserID,
			Title:       m.Title,
			Description: m.Description,
			Calories:    m.Calories,
			Time:        clockOn(day, m.Time, time.Time{}),
			Date:        day.Date,
			MealType:    m.MealType,
		}
	},
	setMeta: func(m *model.Meal, id string, at time.Time) {
		m.ID, m.CreatedAt = id, at
	},
	companion: mealCompanion,
}

var sleepKind = kindConfig[model.Sleep]{
	kind:       model.KindSleep,
	collection: model.CollectionSleep,
	dedup: func(s model.Sleep, day model.Day) (string, []repository.Filter) {
		return "", []repository.Filter{
			repository.Eq("user_id", s.UserID),
			repository.Eq("date", day.Date),
		}
	},
	instance: func(s model.Sleep, day model.Day) model.Sleep {
		bed := clockOn(day, s.BedTime, time.Time{})
		return model.Sleep{
			UserID:   s.UserID,
			BedTime:  bed,
			WakeTime: clockOn(day, s.WakeTime, bed),
			Date:     day.Date,
		}
	},
	setMeta: func(s *model.Sleep, id string, at time.Time) {
		s.ID, s.CreatedAt = id, at
	},
	companion: sleepCompanion,
}

var waterKind = kindConfig[model.WaterIntake]{
	kind:       model.KindWater,
	collection: model.CollectionWater,
	dedup: func(w model.WaterIntake, day model.Day) (string, []repository.Filter) {
		at := clockOn(day, w.Time, time.Time{})
		return at.Format(time.RFC3339), []repository.Filter{
			repository.Eq("user_id", w.UserID),
			repository.Eq("date", day.Date),
			repository.Eq("time", at),
		}
	},
	instance: func(w model.WaterIntake, day model.Day) model.WaterIntake {
		return model.WaterIntake{
			UserID: w.UserID,
			Amount: w.Amount,
			Time:   clockOn(day, w.Time, time.Time{}),
			Date:   day.Date,
		}
	},
	setMeta: func(w *model.WaterIntake, id string, at time.Time) {
		w.ID, w.CreatedAt = id, at
	},
	companion: waterCompanion,
}

var scheduleKind = kindConfig[model.ScheduleItem]{
	kind:       model.KindSchedule,
	collection: model.CollectionSchedules,
	dedup: func(s model.ScheduleItem, day model.Day) (string, []repository.Filter) {
		return s.Title, []repository.Filter{
			repository.Eq("user_id", s.UserID),
			repository.Eq("title", s.Title),
			repository.Eq("date", day.Date),
		}
	},
	instance: func(s model.ScheduleItem, day model.Day) model.ScheduleItem {
		start := clockOn(day, s.StartTime, time.Time{})
		end := start
		if !s.EndTime.IsZero() {
			end = clockOn(day, s.EndTime, start)
		}
		return model.ScheduleItem{
			UserID:      s.UserID,
			Title:       s.Title,
			Description: s.Description,
			StartTime:   start,
			EndTime:     end,
			Date:        day.Date,
			Location:    s.Location,
		}
	},
	setMeta: func(s *model.ScheduleItem, id string, at time.Time) {
		s.ID, s.CreatedAt = id, at
	},
	companion: scheduleCompanion,
}

func stampCompanion(task *model.Task, id, userID string, kind model.ItemKind, now time.Time) {
	task.ID = id
	task.UserID = userID
	task.Type = kind
	task.Status = model.TaskStatusTodo
	task.CreatedAt = now
	task.UpdatedAt = now
}

func mealCompanion(m model.Meal) model.Task {
	title, priority := "Meal: "+m.Title, model.PriorityHigh
	if m.IsSupplement() {
		title, priority = "Supplement: "+m.Title, model.PriorityMedium
	}
	deadline := m.Time
	return model.Task{
		Title:       title,
		Description: m.Description,
		Priority:    priority,
		Deadline:    &deadline,
	}
}

func sleepCompanion(s model.Sleep) model.Task {
	deadline := s.BedTime
	return model.Task{
		Title:       "Bedtime",
		Description: "Time to sleep",
		Priority:    model.PriorityHigh,
		Deadline:    &deadline,
	}
}

func waterCompanion(w model.WaterIntake) model.Task {
	deadline := w.Time
	return model.Task{
		Title:       fmt.Sprintf("Drink Water (%dml)", w.Amount),
		Description: "Remember to stay hydrated!",
		Priority:    model.PriorityMedium,
		Deadline:    &deadline,
	}
}

func scheduleCompanion(s model.ScheduleItem) model.Task {
	description := s.Description
	if s.Location != "" {
		description = strings.TrimSpace(description + " @ " + s.Location)
	}
	deadline := s.StartTime
	return model.Task{
		Title:       s.Title,
		Description: description,
		Priority:    model.PriorityMedium,
		Location:    s.Location,
		Deadline:    &deadline,
	}
}
