package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"daily-tracker/internal/config"
	"daily-tracker/internal/model"
)

// Notifier delivers a rendered report to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReportService builds human-readable summaries for the bot and the evening job.
type ReportService struct {
	taskSvc      *TaskService
	logSvc       *LogService
	perfSvc      *PerformanceService
	lifestyleSvc *LifestyleService
	loc          *time.Location
	log          *zap.Logger
}

func NewReportService(taskSvc *TaskService, logSvc *LogService, perfSvc *PerformanceService, lifestyleSvc *LifestyleService, cfg config.Config, log *zap.Logger) *ReportService {
	return &ReportService{
		taskSvc:      taskSvc,
		logSvc:       logSvc,
		perfSvc:      perfSvc,
		lifestyleSvc: lifestyleSvc,
		loc:          cfg.Location(),
		log:          log.Named("report"),
	}
}

// SendDailyReports scores the day of every user and, when notify is not nil,
// delivers the summary. A failing user is logged and skipped.
func (s *ReportService) SendDailyReports(ctx context.Context, users []model.User, notify Notifier, now time.Time) error {
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := s.DailySummary(ctx, user.ID, now)
		if err != nil {
			s.log.Warn("build summary", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		if notify == nil || user.ChatID == 0 {
			continue
		}
		if err := notify.Notify(ctx, user.ChatID, text); err != nil {
			s.log.Warn("send summary", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// DailySummary scores today (storing the score on today's log) and lists
// what is still open.
func (s *ReportService) DailySummary(ctx context.Context, userID string, now time.Time) (string, error) {
	now = now.In(s.loc)
	day := model.DayOf(now, s.loc)

	score, err := s.perfSvc.CalculateDailyPerformance(ctx, userID, day.Date)
	if err != nil {
		return "", err
	}
	dayLog, err := s.logSvc.GetDailyLog(ctx, userID, day.Date)
	if err != nil {
		return "", err
	}
	plan, err := s.lifestyleSvc.DayPlan(ctx, userID, day.Date)
	if err != nil {
		return "", err
	}
	pending, err := s.taskSvc.ListOpen(ctx, userID)
	if err != nil {
		return "", err
	}
	sortByDeadline(pending)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("02.01.2006")))
	builder.WriteString(fmt.Sprintf("📈 Score: <b>%.0f</b>/100\n\n", score))

	builder.WriteString("🕒 <b>Today</b>\n")
	builder.WriteString(formatEvents(dayLog, s.loc))

	if len(plan.Meals) > 0 || len(plan.Schedule) > 0 {
		builder.WriteString("\n🍽 <b>Planned</b>\n")
		builder.WriteString(formatPlan(plan, s.loc))
	}

	builder.WriteString("\n🔥 <b>Open tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, task := range pending {
			builder.WriteString(FormatTask(task, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// StatsSummary renders the metrics of the last days.
func (s *ReportService) StatsSummary(ctx context.Context, userID string, days int) (string, error) {
	m, err := s.perfSvc.CalculatePerformanceMetrics(ctx, userID, days)
	if err != nil {
		return "", err
	}
	if days <= 0 {
		days = s.perfSvc.windowDays
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 <b>Last %d days</b>\n", days))
	sb.WriteString(fmt.Sprintf("• Tasks created: %d\n", m.TotalTasksCreated))
	sb.WriteString(fmt.Sprintf("• Tasks completed: %d (%.0f%%)\n", m.TotalTasksCompleted, m.CompletionRate))
	sb.WriteString(fmt.Sprintf("• By priority: high %d · medium %d · low %d\n",
		m.TasksCompletedByPriority.High, m.TasksCompletedByPriority.Medium, m.TasksCompletedByPriority.Low))
	sb.WriteString(fmt.Sprintf("• Avg completion time: %.1f h\n", m.AvgCompletionTime))
	sb.WriteString(fmt.Sprintf("• Deadlines missed: %d\n", m.DeadlinesMissed))
	if m.AvgSleepDuration != nil {
		sb.WriteString(fmt.Sprintf("• Avg awake time: %.1f h\n", *m.AvgSleepDuration))
	}
	if m.AvgWorkDuration != nil {
		sb.WriteString(fmt.Sprintf("• Avg work time: %.1f h\n", *m.AvgWorkDuration))
	}
	return strings.TrimSpace(sb.String()), nil
}

// FormatTask renders one task line with a deadline marker.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.Deadline != nil {
		d := task.Deadline.In(now.Location())
		switch {
		case now.After(d):
			icon = "⚠️"
		case d.Sub(now) <= 2*time.Hour:
			icon = "⏳"
		}
	}
	if task.Priority == model.PriorityHigh {
		icon += "❗"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	if task.Status == model.TaskStatusInProgress {
		sb.WriteString(" <i>(in progress)</i>")
	}

	if task.Deadline != nil {
		d := task.Deadline.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>overdue</b>", d.Format("2006-01-02 15:04")))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s", d.Format("2006-01-02 15:04")))
		}
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}
	sb.WriteString(fmt.Sprintf("\n   <code>%s</code>\n", task.ID))
	return sb.String()
}

func formatEvents(l *model.DailyLog, loc *time.Location) string {
	if l == nil {
		return "— nothing logged yet\n"
	}
	var sb strings.Builder
	for _, event := range []struct {
		label string
		at    *time.Time
	}{
		{"Woke up", l.WakeUpTime},
		{"Work start", l.WorkStartTime},
		{"Work end", l.WorkEndTime},
		{"Sleep", l.SleepTime},
	} {
		value := "—"
		if event.at != nil {
			value = event.at.In(loc).Format("15:04")
		}
		sb.WriteString(fmt.Sprintf("• %s: %s\n", event.label, value))
	}
	return sb.String()
}

func formatPlan(plan *DayPlan, loc *time.Location) string {
	var sb strings.Builder
	for _, meal := range plan.Meals {
		sb.WriteString(fmt.Sprintf("• %s %s\n", meal.Time.In(loc).Format("15:04"), html.EscapeString(meal.Title)))
	}
	for _, item := range plan.Schedule {
		span := item.StartTime.In(loc).Format("15:04")
		if item.EndTime.After(item.StartTime) {
			span += "-" + item.EndTime.In(loc).Format("15:04")
		}
		sb.WriteString(fmt.Sprintf("• %s %s\n", span, html.EscapeString(item.Title)))
	}
	return sb.String()
}

func sortByDeadline(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].Deadline == nil && tasks[j].Deadline == nil:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		case tasks[i].Deadline == nil:
			return false
		case tasks[j].Deadline == nil:
			return true
		default:
			return tasks[i].Deadline.Before(*tasks[j].Deadline)
		}
	})
}
