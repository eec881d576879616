package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/config"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

const (
	baseScore        = 50.0
	completionWeight = 30.0
	priorityWeight   = 10.0
	wellnessPerEvent = 2.0
	workBonus        = 2.0
	minWorkHours     = 6
	maxWorkHours     = 10
)

// PerformanceService aggregates tasks and daily logs into metrics and a
// daily 0-100 score.
type PerformanceService struct {
	store      DocumentStore
	loc        *time.Location
	windowDays int
	now        func() time.Time
	log        *zap.Logger
}

func NewPerformanceService(store DocumentStore, cfg config.Config, log *zap.Logger) *PerformanceService {
	return &PerformanceService{
		store:      store,
		loc:        cfg.Location(),
		windowDays: cfg.MetricsWindowDays,
		now:        time.Now,
		log:        log.Named("performance"),
	}
}

// CalculatePerformanceMetrics aggregates the tasks created and the logs kept
// during the last windowDays days. windowDays <= 0 uses the configured window.
func (s *PerformanceService) CalculatePerformanceMetrics(ctx context.Context, userID string, windowDays int) (model.PerformanceMetrics, error) {
	var metrics model.PerformanceMetrics
	if userID == "" {
		return metrics, apperr.UserIDRequired
	}
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	end := s.now()
	start := end.AddDate(0, 0, -windowDays)

	var tasks []model.Task
	if err := s.store.Query(ctx, model.CollectionTasks, []repository.Filter{
		repository.Eq("user_id", userID),
		repository.Gte("created_at", start),
		repository.Lte("created_at", end),
	}, "", &tasks); err != nil {
		return metrics, err
	}

	var logs []model.DailyLog
	if err := s.store.Query(ctx, model.CollectionDailyLogs, []repository.Filter{
		repository.Eq("user_id", userID),
		repository.Gte("date", model.DayOf(start, s.loc).Date),
		repository.Lte("date", model.DayOf(end, s.loc).Date),
	}, "date asc", &logs); err != nil {
		return metrics, err
	}

	metrics.TotalTasksCreated = len(tasks)
	var completionHours, timedTasks int
	for _, task := range tasks {
		if deadlineMissed(task) {
			metrics.DeadlinesMissed++
		}
		if !task.IsCompleted() {
			continue
		}
		metrics.TotalTasksCompleted++
		countPriority(&metrics.TasksCompletedByPriority, task.Priority)
		if task.CompletedAt != nil {
			if h := wholeHours(task.CreatedAt, *task.CompletedAt); h > 0 {
				completionHours += h
				timedTasks++
			}
		}
	}
	if metrics.TotalTasksCreated > 0 {
		metrics.CompletionRate = float64(metrics.TotalTasksCompleted) / float64(metrics.TotalTasksCreated) * 100
	}
	if timedTasks > 0 {
		metrics.AvgCompletionTime = float64(completionHours) / float64(timedTasks)
	}

	var sleep, work durationMean
	for _, log := range logs {
		sleep.add(log.WakeUpTime, log.SleepTime)
		work.add(log.WorkStartTime, log.WorkEndTime)
	}
	metrics.AvgSleepDuration = sleep.mean()
	metrics.AvgWorkDuration = work.mean()
	return metrics, nil
}

// CalculateDailyPerformance scores one day (YYYY-MM-DD, empty for today).
// The score and the number of tasks completed that day are written to the
// day's log when it exists; otherwise the score is only returned.
func (s *PerformanceService) CalculateDailyPerformance(ctx context.Context, userID, date string) (float64, error) {
	if userID == "" {
		return 0, apperr.UserIDRequired
	}
	day := model.DayOf(s.now(), s.loc)
	if date != "" {
		parsed, err := model.ParseDay(date, s.loc)
		if err != nil {
			return 0, apperr.InvalidRequest.WithMessage(err.Error())
		}
		day = parsed
	}

	var logs []model.DailyLog
	if err := s.store.Query(ctx, model.CollectionDailyLogs, []repository.Filter{
		repository.Eq("user_id", userID),
		repository.Eq("date", day.Date),
	}, "", &logs); err != nil {
		return 0, err
	}
	var log *model.DailyLog
	if len(logs) > 0 {
		log = &logs[0]
	}

	var due, completed []model.Task
	if err := s.store.Query(ctx, model.CollectionTasks, []repository.Filter{
		repository.Eq("user_id", userID),
		repository.Gte("deadline", day.Start),
		repository.Lt("deadline", day.End),
	}, "", &due); err != nil {
		return 0, err
	}
	if err := s.store.Query(ctx, model.CollectionTasks, []repository.Filter{
		repository.Eq("user_id", userID),
		repository.Gte("completed_at", day.Start),
		repository.Lt("completed_at", day.End),
	}, "", &completed); err != nil {
		return 0, err
	}

	score := DailyScore(due, completed, log)

	if log != nil {
		if err := s.store.Update(ctx, model.CollectionDailyLogs, log.ID, map[string]any{
			"performance":     score,
			"tasks_completed": len(completed),
		}); err != nil {
			return 0, fmt.Errorf("store daily performance: %w", err)
		}
	} else {
		s.log.Debug("no daily log, score not stored", zap.String("user_id", userID), zap.String("date", day.Date))
	}
	return score, nil
}

// DailyScore is the 0-100 score of a day given the tasks due that day, the
// tasks completed that day and the day's log (nil when nothing was logged).
func DailyScore(due, completed []model.Task, log *model.DailyLog) float64 {
	score := baseScore

	completedDue := 0
	highDue := 0
	for _, task := range due {
		if task.IsCompleted() {
			completedDue++
		}
		if task.Priority == model.PriorityHigh {
			highDue++
		}
	}
	highCompleted := 0
	for _, task := range completed {
		if task.Priority == model.PriorityHigh {
			highCompleted++
		}
	}

	switch {
	case len(due) > 0:
		score += math.Min(completionWeight, completionWeight*float64(completedDue)/float64(len(due)))
	case len(completed) > 0:
		score += completionWeight / 2
	}

	switch {
	case highDue > 0:
		score += math.Min(priorityWeight, priorityWeight*float64(highCompleted)/float64(highDue))
	case highCompleted > 0:
		score += priorityWeight / 2
	}

	if log != nil {
		for _, event := range []*time.Time{log.WakeUpTime, log.SleepTime, log.WorkStartTime, log.WorkEndTime} {
			if event != nil {
				score += wellnessPerEvent
			}
		}
		if log.WorkStartTime != nil && log.WorkEndTime != nil {
			if h := wholeHours(*log.WorkStartTime, *log.WorkEndTime); h >= minWorkHours && h <= maxWorkHours {
				score += workBonus
			}
		}
	}

	return math.Max(0, math.Min(100, score))
}

// deadlineMissed: an open task with a deadline, or one finished after it.
// A task marked completed without a completion time is not counted.
func deadlineMissed(task model.Task) bool {
	if task.Deadline == nil {
		return false
	}
	if task.CompletedAt == nil {
		return !task.IsCompleted()
	}
	return task.CompletedAt.After(*task.Deadline)
}

func countPriority(b *model.PriorityBreakdown, p model.TaskPriority) {
	switch p {
	case model.PriorityHigh:
		b.High++
	case model.PriorityMedium:
		b.Medium++
	case model.PriorityLow:
		b.Low++
	}
}

// wholeHours truncates toward zero.
func wholeHours(from, to time.Time) int {
	return int(to.Sub(from) / time.Hour)
}

// durationMean averages whole-hour spans whose end is after their start.
type durationMean struct {
	hours   int
	samples int
}

func (d *durationMean) add(start, end *time.Time) {
	if start == nil || end == nil || !end.After(*start) {
		return
	}
	d.hours += wholeHours(*start, *end)
	d.samples++
}

func (d durationMean) mean() *float64 {
	if d.samples == 0 {
		return nil
	}
	v := float64(d.hours) / float64(d.samples)
	return &v
}
