package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/cache"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/testutil"
)

func newRecurringService(store DocumentStore, locker cache.Locker) *RecurringService {
	svc := NewRecurringService(store, locker, testConfig(), zap.NewNop())
	svc.now = fixedClock(testNow)
	return svc
}

func seedTemplates(t *testing.T, db *gorm.DB) {
	t.Helper()
	seed(t, db,
		&model.Task{
			ID: "tpl-standup", UserID: "u1", Title: "Standup", Priority: model.PriorityHigh,
			Deadline: ptr(at(2024, 1, 3, 9, 30)), IsRecurring: true, IsActive: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyWeekly},
			CreatedAt:  at(2024, 1, 1, 0, 0),
		},
		&model.Task{
			ID: "tpl-paused", UserID: "u1", Title: "Paused", Deadline: ptr(at(2024, 1, 3, 9, 0)),
			IsRecurring: true, Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
			CreatedAt: at(2024, 1, 1, 0, 1),
		},
		&model.Meal{
			ID: "tpl-oats", UserID: "u1", Title: "Oatmeal", Description: "with berries", Calories: 350,
			Time: at(2024, 1, 1, 7, 30), Date: "2024-01-01", IsRecurring: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
			CreatedAt:  at(2024, 1, 1, 0, 2),
		},
		&model.Meal{
			ID: "tpl-vitd", UserID: "u1", Title: "Vitamin D", MealType: model.MealTypeSupplement,
			Time: at(2024, 1, 1, 9, 0), Date: "2024-01-01", IsRecurring: true,
			DaySchedule: []model.MealSchedule{{DayOfWeek: "wednesday", Enabled: true}},
			CreatedAt:   at(2024, 1, 1, 0, 3),
		},
		&model.Meal{
			ID: "tpl-fish", UserID: "u1", Title: "Fish oil", MealType: model.MealTypeSupplement,
			Time: at(2024, 1, 1, 9, 0), Date: "2024-01-01", IsRecurring: true,
			DaySchedule: []model.MealSchedule{{DayOfWeek: "wednesday", Enabled: false}, {DayOfWeek: "friday", Enabled: true}},
			Recurrence:  model.Recurrence{Frequency: model.FrequencyDaily},
			CreatedAt:   at(2024, 1, 1, 0, 4),
		},
		&model.Sleep{
			ID: "tpl-sleep", UserID: "u1", BedTime: at(2024, 1, 1, 22, 30), WakeTime: at(2024, 1, 2, 6, 30),
			Date: "2024-01-01", IsRecurring: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
			CreatedAt:  at(2024, 1, 1, 0, 5),
		},
		&model.WaterIntake{
			ID: "tpl-water", UserID: "u1", Amount: 250, Time: at(2024, 1, 1, 10, 0),
			Date: "2024-01-01", IsRecurring: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
			CreatedAt:  at(2024, 1, 1, 0, 6),
		},
		&model.ScheduleItem{
			ID: "tpl-gym", UserID: "u1", Title: "Gym", Description: "Leg day",
			StartTime: at(2024, 1, 3, 18, 0), EndTime: at(2024, 1, 3, 19, 0), Date: "2024-01-03",
			Location: "Downtown", IsRecurring: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyWeekly},
			CreatedAt:  at(2024, 1, 1, 0, 7),
		},
		&model.ScheduleItem{
			ID: "tpl-piano", UserID: "u1", Title: "Piano",
			StartTime: at(2024, 1, 4, 17, 0), EndTime: at(2024, 1, 4, 18, 0), Date: "2024-01-04",
			IsRecurring: true, Recurrence: model.Recurrence{Frequency: model.FrequencyWeekly},
			CreatedAt: at(2024, 1, 1, 0, 8),
		},
		// another user's template is never touched
		&model.Meal{
			ID: "tpl-other", UserID: "u2", Title: "Oatmeal", Time: at(2024, 1, 1, 7, 30),
			Date: "2024-01-01", IsRecurring: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
			CreatedAt:  at(2024, 1, 1, 0, 9),
		},
	)
}

func instanceTasks(t *testing.T, db *gorm.DB, userID string) map[string]model.Task {
	t.Helper()
	var tasks []model.Task
	if err := db.Where("user_id = ? AND is_recurring = ?", userID, false).Find(&tasks).Error; err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	byTitle := make(map[string]model.Task, len(tasks))
	for _, task := range tasks {
		if _, dup := byTitle[task.Title]; dup {
			t.Fatalf("task %q materialized twice", task.Title)
		}
		byTitle[task.Title] = task
	}
	return byTitle
}

func count(t *testing.T, db *gorm.DB, dest any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(dest).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", dest, err)
	}
	return n
}

func TestProcessRecurringTasksMaterializesEveryKind(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedTemplates(t, db)
	svc := newRecurringService(repository.NewStore(db), nil)

	if err := svc.ProcessRecurringTasks(context.Background(), "u1"); err != nil {
		t.Fatalf("ProcessRecurringTasks: %v", err)
	}

	tasks := instanceTasks(t, db, "u1")
	want := []struct {
		title       string
		kind        model.ItemKind
		priority    model.TaskPriority
		deadline    time.Time
		description string
	}{
		{"Standup", model.KindTask, model.PriorityHigh, at(2024, 1, 10, 9, 30), ""},
		{"Meal: Oatmeal", model.KindMeal, model.PriorityHigh, at(2024, 1, 10, 7, 30), "with berries"},
		{"Supplement: Vitamin D", model.KindMeal, model.PriorityMedium, at(2024, 1, 10, 9, 0), ""},
		{"Bedtime", model.KindSleep, model.PriorityHigh, at(2024, 1, 10, 22, 30), "Time to sleep"},
		{"Drink Water (250ml)", model.KindWater, model.PriorityMedium, at(2024, 1, 10, 10, 0), "Remember to stay hydrated!"},
		{"Gym", model.KindSchedule, model.PriorityMedium, at(2024, 1, 10, 18, 0), "Leg day @ Downtown"},
	}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d: %v", len(want), len(tasks), tasks)
	}
	for _, w := range want {
		task, ok := tasks[w.title]
		if !ok {
			t.Errorf("missing task %q", w.title)
			continue
		}
		if task.Type != w.kind || task.Priority != w.priority || task.Status != model.TaskStatusTodo {
			t.Errorf("%q: got type=%s priority=%s status=%s", w.title, task.Type, task.Priority, task.Status)
		}
		if task.Deadline == nil || !task.Deadline.Equal(w.deadline) {
			t.Errorf("%q: expected deadline %v, got %v", w.title, w.deadline, task.Deadline)
		}
		if task.Description != w.description {
			t.Errorf("%q: expected description %q, got %q", w.title, w.description, task.Description)
		}
		if task.IsActive {
			t.Errorf("%q: instance must not be an active template", w.title)
		}
	}
	if tasks["Gym"].Location != "Downtown" {
		t.Errorf("expected schedule task location, got %q", tasks["Gym"].Location)
	}

	if n := count(t, db, &model.Meal{}, "user_id = ? AND date = ?", "u1", "2024-01-10"); n != 2 {
		t.Errorf("expected 2 meal instances, got %d", n)
	}
	if n := count(t, db, &model.Meal{}, "user_id = ? AND date = ?", "u2", "2024-01-10"); n != 0 {
		t.Errorf("expected no instances for u2, got %d", n)
	}

	var sleep model.Sleep
	if err := db.Where("user_id = ? AND date = ?", "u1", "2024-01-10").First(&sleep).Error; err != nil {
		t.Fatalf("load sleep instance: %v", err)
	}
	if sleep.IsRecurring || !sleep.BedTime.Equal(at(2024, 1, 10, 22, 30)) || !sleep.WakeTime.Equal(at(2024, 1, 11, 6, 30)) {
		t.Errorf("unexpected sleep instance: %+v", sleep)
	}

	var gym model.ScheduleItem
	if err := db.Where("user_id = ? AND date = ?", "u1", "2024-01-10").First(&gym).Error; err != nil {
		t.Fatalf("load schedule instance: %v", err)
	}
	if gym.Title != "Gym" || !gym.EndTime.Equal(at(2024, 1, 10, 19, 0)) {
		t.Errorf("unexpected schedule instance: %+v", gym)
	}
	if want := InstanceID("u1", model.KindSchedule, "Gym", "2024-01-10"); gym.ID != want {
		t.Errorf("expected deterministic id %s, got %s", want, gym.ID)
	}
	if tasks["Gym"].ID != CompanionID(gym.ID) {
		t.Errorf("expected companion id %s, got %s", CompanionID(gym.ID), tasks["Gym"].ID)
	}
}

func TestProcessRecurringTasksIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedTemplates(t, db)
	svc := newRecurringService(repository.NewStore(db), nil)

	for i := 0; i < 2; i++ {
		if err := svc.ProcessRecurringTasks(context.Background(), "u1"); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	if got := len(instanceTasks(t, db, "u1")); got != 6 {
		t.Errorf("expected 6 tasks after two runs, got %d", got)
	}
	if n := count(t, db, &model.WaterIntake{}, "user_id = ? AND is_recurring = ?", "u1", false); n != 1 {
		t.Errorf("expected 1 water instance, got %d", n)
	}
	if n := count(t, db, &model.Sleep{}, "user_id = ? AND is_recurring = ?", "u1", false); n != 1 {
		t.Errorf("expected 1 sleep instance, got %d", n)
	}
}

func TestProcessRecurringTasksSkipsExistingOpenInstance(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedTemplates(t, db)
	// created by hand earlier today
	seed(t, db, &model.Task{
		ID: "manual", UserID: "u1", Title: "Standup", Deadline: ptr(at(2024, 1, 10, 11, 0)),
		CreatedAt: at(2024, 1, 10, 7, 0),
	})
	svc := newRecurringService(repository.NewStore(db), nil)

	if err := svc.ProcessRecurringTasks(context.Background(), "u1"); err != nil {
		t.Fatalf("ProcessRecurringTasks: %v", err)
	}
	if n := count(t, db, &model.Task{}, "user_id = ? AND title = ? AND is_recurring = ?", "u1", "Standup", false); n != 1 {
		t.Errorf("expected the manual task only, got %d", n)
	}
}

func TestProcessRecurringTasksRecreatesCompletedTaskInstance(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seed(t, db, &model.Task{
		ID: "tpl-standup", UserID: "u1", Title: "Standup", Deadline: ptr(at(2024, 1, 3, 9, 30)),
		IsRecurring: true, IsActive: true,
		Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
		CreatedAt:  at(2024, 1, 1, 0, 0),
	})
	svc := newRecurringService(repository.NewStore(db), nil)
	ctx := context.Background()

	if err := svc.ProcessRecurringTasks(ctx, "u1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := InstanceID("u1", model.KindTask, "Standup", "2024-01-10")
	if err := db.Model(&model.Task{}).Where("id = ?", first).Update("status", model.TaskStatusCompleted).Error; err != nil {
		t.Fatalf("complete instance: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.ProcessRecurringTasks(ctx, "u1"); err != nil {
			t.Fatalf("rerun %d: %v", i+1, err)
		}
	}

	standup := "user_id = ? AND title = ? AND is_recurring = ? AND status = ?"
	if n := count(t, db, &model.Task{}, standup, "u1", "Standup", false, model.TaskStatusTodo); n != 1 {
		t.Errorf("expected 1 todo instance, got %d", n)
	}
	if n := count(t, db, &model.Task{}, standup, "u1", "Standup", false, model.TaskStatusCompleted); n != 1 {
		t.Errorf("expected the completed instance to stay, got %d", n)
	}
}

func TestProcessRecurringTasksSkipsCompanionOnIDCollision(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seed(t, db,
		&model.Meal{
			ID: "tpl-oats", UserID: "u1", Title: "Oatmeal", Time: at(2024, 1, 1, 7, 30),
			Date: "2024-01-01", IsRecurring: true,
			Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
		},
		// holds the id today's instance would get but does not match the dedup query
		&model.Meal{
			ID: InstanceID("u1", model.KindMeal, "Oatmeal", "2024-01-10"), UserID: "u1",
			Title: "Renamed", Time: at(2024, 1, 10, 7, 30), Date: "2024-01-09",
		},
	)
	svc := newRecurringService(repository.NewStore(db), nil)

	if err := svc.ProcessRecurringTasks(context.Background(), "u1"); err != nil {
		t.Fatalf("ProcessRecurringTasks: %v", err)
	}
	if n := count(t, db, &model.Meal{}, "date = ?", "2024-01-10"); n != 0 {
		t.Errorf("expected no new meal instance, got %d", n)
	}
	if tasks := instanceTasks(t, db, "u1"); len(tasks) != 0 {
		t.Errorf("expected no companion task, got %v", tasks)
	}
}

func TestProcessRecurringTasksIgnoresTaskWithoutDeadline(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seed(t, db, &model.Task{
		ID: "tpl", UserID: "u1", Title: "Someday", IsRecurring: true, IsActive: true,
		Recurrence: model.Recurrence{Frequency: model.FrequencyDaily},
	})
	svc := newRecurringService(repository.NewStore(db), nil)

	if err := svc.ProcessRecurringTasks(context.Background(), "u1"); err != nil {
		t.Fatalf("ProcessRecurringTasks: %v", err)
	}
	if tasks := instanceTasks(t, db, "u1"); len(tasks) != 0 {
		t.Errorf("expected nothing materialized, got %v", tasks)
	}
}

type failingStore struct {
	*repository.Store
	failOn string
}

func (s failingStore) Add(ctx context.Context, collection string, doc any) error {
	if collection == s.failOn {
		return errors.New("disk full")
	}
	return s.Store.Add(ctx, collection, doc)
}

func TestProcessRecurringTasksStopsOnFirstError(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedTemplates(t, db)
	svc := newRecurringService(failingStore{Store: repository.NewStore(db), failOn: model.CollectionMeals}, nil)

	err := svc.ProcessRecurringTasks(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.Kind(err) != "INTERNAL_ERROR" {
		t.Errorf("expected an internal error, got %v", err)
	}

	tasks := instanceTasks(t, db, "u1")
	if _, ok := tasks["Standup"]; !ok || len(tasks) != 1 {
		t.Errorf("expected only the task step to have run, got %v", tasks)
	}
	if n := count(t, db, &model.Sleep{}, "is_recurring = ?", false); n != 0 {
		t.Errorf("expected later kinds to be skipped, got %d sleep instances", n)
	}
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (bool, error) { return false, nil }
func (busyLocker) Unlock(context.Context, string) error                         { return nil }

type recordingLocker struct {
	keys     []string
	released []string
}

func (l *recordingLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return true, nil
}

func (l *recordingLocker) Unlock(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

func TestProcessRecurringTasksLocking(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedTemplates(t, db)

	busy := newRecurringService(repository.NewStore(db), busyLocker{})
	if err := busy.ProcessRecurringTasks(context.Background(), "u1"); !errors.Is(err, apperr.ProcessingInProgress) {
		t.Fatalf("expected ProcessingInProgress, got %v", err)
	}
	if tasks := instanceTasks(t, db, "u1"); len(tasks) != 0 {
		t.Errorf("expected nothing materialized while locked, got %d tasks", len(tasks))
	}

	locker := &recordingLocker{}
	svc := newRecurringService(repository.NewStore(db), locker)
	if err := svc.ProcessRecurringTasks(context.Background(), "u1"); err != nil {
		t.Fatalf("ProcessRecurringTasks: %v", err)
	}
	if len(locker.keys) != 1 || locker.keys[0] != "process:u1:2024-01-10" {
		t.Errorf("unexpected lock keys %v", locker.keys)
	}
	if len(locker.released) != 1 {
		t.Errorf("expected the lock to be released once, got %v", locker.released)
	}
}

func TestProcessRecurringTasksRequiresUser(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newRecurringService(repository.NewStore(db), nil)

	if err := svc.ProcessRecurringTasks(context.Background(), ""); !errors.Is(err, apperr.UserIDRequired) {
		t.Fatalf("expected UserIDRequired, got %v", err)
	}
}

func TestInstanceIDIsDeterministic(t *testing.T) {
	a := InstanceID("u1", model.KindMeal, "Oatmeal", "2024-01-10")
	if a != InstanceID("u1", model.KindMeal, "Oatmeal", "2024-01-10") {
		t.Fatal("expected identical ids for identical input")
	}
	for _, other := range []string{
		InstanceID("u2", model.KindMeal, "Oatmeal", "2024-01-10"),
		InstanceID("u1", model.KindSchedule, "Oatmeal", "2024-01-10"),
		InstanceID("u1", model.KindMeal, "Oatmeal", "2024-01-11"),
		CompanionID(a),
	} {
		if other == a {
			t.Errorf("unexpected id collision for %s", other)
		}
	}
}
