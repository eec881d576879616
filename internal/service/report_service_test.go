package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/testutil"
)

type sentMessage struct {
	chatID int64
	text   string
}

type recordingNotifier struct {
	sent []sentMessage
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func newReportService(t *testing.T, extra ...TaskInput) (*ReportService, *LogService) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	cfg := testConfig()
	log := zap.NewNop()

	taskSvc := NewTaskService(repository.NewTaskRepository(db), cfg, log)
	taskSvc.now = fixedClock(testNow)
	logSvc := NewLogService(repository.NewDailyLogRepository(db), cfg, log)
	logSvc.now = fixedClock(at(2024, 1, 10, 7, 15))
	perfSvc := NewPerformanceService(repository.NewStore(db), cfg, log)
	perfSvc.now = fixedClock(testNow)
	items := repository.NewLifestyleRepository(db)
	lifestyleSvc := NewLifestyleService(items, repository.NewTaskRepository(db), cfg, log)
	lifestyleSvc.now = fixedClock(testNow)

	ctx := context.Background()
	if _, err := logSvc.LogWakeUp(ctx, "u1"); err != nil {
		t.Fatalf("LogWakeUp: %v", err)
	}
	for _, input := range append([]TaskInput{
		{Title: "Pay <rent>", Priority: model.PriorityHigh, Deadline: ptr(at(2024, 1, 10, 9, 0))},
		{Title: "Call mom"},
		{Title: "Done already", Status: model.TaskStatusCompleted},
	}, extra...) {
		if _, err := taskSvc.CreateTask(ctx, "u1", input); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	if err := items.CreateMeal(ctx, &model.Meal{ID: "m1", UserID: "u1", Title: "Lunch", Time: at(2024, 1, 10, 12, 30), Date: "2024-01-10"}); err != nil {
		t.Fatalf("CreateMeal: %v", err)
	}
	if err := items.CreateSchedule(ctx, &model.ScheduleItem{
		ID: "s1", UserID: "u1", Title: "Gym", Date: "2024-01-10",
		StartTime: at(2024, 1, 10, 18, 0), EndTime: at(2024, 1, 10, 19, 0),
	}); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	return NewReportService(taskSvc, logSvc, perfSvc, lifestyleSvc, cfg, log), logSvc
}

func TestDailySummary(t *testing.T) {
	svc, _ := newReportService(t)

	text, err := svc.DailySummary(context.Background(), "u1", at(2024, 1, 10, 21, 0))
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	for _, want := range []string{
		"10.01.2024",
		// the only task due today is open: 50 + 2 for the wake-up
		"Score: <b>52</b>/100",
		"Woke up: 07:15",
		"Work start: —",
		"• 12:30 Lunch",
		"• 18:00-19:00 Gym",
		"Pay &lt;rent&gt;",
		"<b>overdue</b>",
		"Call mom",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary misses %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Done already") {
		t.Errorf("completed task listed as open:\n%s", text)
	}
	if strings.Index(text, "Pay &lt;rent&gt;") > strings.Index(text, "Call mom") {
		t.Errorf("expected tasks with a deadline first:\n%s", text)
	}
}

func TestDailySummaryLeavesOutTemplates(t *testing.T) {
	svc, _ := newReportService(t, TaskInput{
		Title: "Weekly review", IsRecurring: true, Deadline: ptr(at(2024, 1, 3, 17, 0)),
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly},
	})

	text, err := svc.DailySummary(context.Background(), "u1", at(2024, 1, 10, 21, 0))
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if strings.Contains(text, "Weekly review") {
		t.Errorf("recurring template listed as open:\n%s", text)
	}
	if !strings.Contains(text, "Call mom") {
		t.Errorf("summary misses open tasks:\n%s", text)
	}
}

func TestDailySummaryWithoutLog(t *testing.T) {
	svc, _ := newReportService(t)

	text, err := svc.DailySummary(context.Background(), "u1", at(2024, 1, 11, 21, 0))
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if !strings.Contains(text, "nothing logged yet") {
		t.Errorf("expected empty day marker:\n%s", text)
	}
}

func TestSendDailyReports(t *testing.T) {
	svc, _ := newReportService(t)
	notifier := &recordingNotifier{}
	users := []model.User{
		{ID: "u1", ChatID: 42},
		{ID: "u2"},
	}

	if err := svc.SendDailyReports(context.Background(), users, notifier, at(2024, 1, 10, 21, 0)); err != nil {
		t.Fatalf("SendDailyReports: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].chatID != 42 {
		t.Fatalf("expected one report to chat 42, got %+v", notifier.sent)
	}

	// scoring still runs without a notifier
	if err := svc.SendDailyReports(context.Background(), users, nil, at(2024, 1, 10, 21, 0)); err != nil {
		t.Fatalf("SendDailyReports without notifier: %v", err)
	}
}

func TestStatsSummary(t *testing.T) {
	svc, _ := newReportService(t)

	text, err := svc.StatsSummary(context.Background(), "u1", 7)
	if err != nil {
		t.Fatalf("StatsSummary: %v", err)
	}
	for _, want := range []string{"Last 7 days", "Tasks created: 3", "Tasks completed: 1 (33%)", "Deadlines missed: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats miss %q:\n%s", want, text)
		}
	}
}

func TestFormatTask(t *testing.T) {
	now := at(2024, 1, 10, 8, 0)
	soon := FormatTask(model.Task{ID: "t1", Title: "Standup", Priority: model.PriorityHigh, Deadline: ptr(now.Add(time.Hour))}, now)
	if !strings.HasPrefix(soon, "⏳❗ Standup") || strings.Contains(soon, "overdue") {
		t.Errorf("unexpected line for a task due soon: %q", soon)
	}
	later := FormatTask(model.Task{ID: "t2", Title: "Taxes", Status: model.TaskStatusInProgress, Deadline: ptr(now.AddDate(0, 0, 3))}, now)
	if !strings.HasPrefix(later, "🟢 Taxes <i>(in progress)</i>") {
		t.Errorf("unexpected line for a later task: %q", later)
	}
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("21:05")
	if err != nil {
		t.Fatalf("buildDailySpec: %v", err)
	}
	if spec != "0 5 21 * * *" {
		t.Errorf("unexpected spec %q", spec)
	}
	if _, err := buildDailySpec("25:00"); err == nil {
		t.Error("expected error for an invalid hour")
	}

	scheduler := NewSchedulerService(time.UTC, zap.NewNop())
	if _, err := scheduler.ScheduleDaily("report", "9:30", func() {}); err != nil {
		t.Errorf("ScheduleDaily: %v", err)
	}
	if _, err := scheduler.ScheduleDaily("report", "noon", func() {}); err == nil {
		t.Error("expected error for an unparsable time")
	}
}
