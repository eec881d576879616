package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/cache"
	"daily-tracker/internal/config"
	"daily-tracker/internal/model"
)

// RecurringService turns due recurring templates into today's instances.
// It only runs when triggered.
type RecurringService struct {
	store   DocumentStore
	locker  cache.Locker
	lockTTL time.Duration
	loc     *time.Location
	eval    model.Evaluator
	now     func() time.Time
	log     *zap.Logger
}

func NewRecurringService(store DocumentStore, locker cache.Locker, cfg config.Config, log *zap.Logger) *RecurringService {
	if locker == nil {
		locker = cache.NopLocker{}
	}
	return &RecurringService{
		store:   store,
		locker:  locker,
		lockTTL: cfg.ProcessLockTTL,
		loc:     cfg.Location(),
		eval:    model.Evaluator{EnforceInterval: cfg.EnforceInterval},
		now:     time.Now,
		log:     log.Named("recurring"),
	}
}

// ProcessRecurringTasks materializes today's instances of every kind for
// userID: tasks, meals, sleep, water, then schedule items. The first error
// stops the run; instances written before it are kept.
func (s *RecurringService) ProcessRecurringTasks(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.UserIDRequired
	}
	day := model.DayOf(s.now(), s.loc)

	lockKey := "process:" + userID + ":" + day.Date
	ok, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ProcessingInProgress
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			s.log.Warn("release processing lock", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	m := &materializer{store: s.store, evaluator: s.eval, now: s.now, log: s.log}
	steps := []struct {
		kind model.ItemKind
		run  func() (int, error)
	}{
		{model.KindTask, func() (int, error) { return run(ctx, m, taskKind, userID, day) }},
		{model.KindMeal, func() (int, error) { return run(ctx, m, mealKind, userID, day) }},
		{model.KindSleep, func() (int, error) { return run(ctx, m, sleepKind, userID, day) }},
		{model.KindWater, func() (int, error) { return run(ctx, m, waterKind, userID, day) }},
		{model.KindSchedule, func() (int, error) { return run(ctx, m, scheduleKind, userID, day) }},
	}

	fields := []zap.Field{zap.String("user_id", userID), zap.String("date", day.Date)}
	for _, step := range steps {
		created, err := step.run()
		if created > 0 {
			fields = append(fields, zap.Int(string(step.kind), created))
		}
		if err != nil {
			s.log.Error("recurring processing failed", append(fields, zap.Error(err))...)
			return fmt.Errorf("process recurring items: %w", err)
		}
	}
	s.log.Info("recurring items processed", fields...)
	return nil
}
