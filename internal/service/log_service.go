package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/config"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// LogService records the day's wake-up, sleep and work events.
type LogService struct {
	logs *repository.DailyLogRepository
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

func NewLogService(logs *repository.DailyLogRepository, cfg config.Config, log *zap.Logger) *LogService {
	return &LogService{
		logs: logs,
		loc:  cfg.Location(),
		now:  time.Now,
		log:  log.Named("daily_log"),
	}
}

func (s *LogService) LogWakeUp(ctx context.Context, userID string) (*model.DailyLog, error) {
	return s.record(ctx, userID, func(l *model.DailyLog, at time.Time) { l.WakeUpTime = &at })
}

func (s *LogService) LogSleep(ctx context.Context, userID string) (*model.DailyLog, error) {
	return s.record(ctx, userID, func(l *model.DailyLog, at time.Time) { l.SleepTime = &at })
}

func (s *LogService) LogWorkStart(ctx context.Context, userID string) (*model.DailyLog, error) {
	return s.record(ctx, userID, func(l *model.DailyLog, at time.Time) { l.WorkStartTime = &at })
}

func (s *LogService) LogWorkEnd(ctx context.Context, userID string) (*model.DailyLog, error) {
	return s.record(ctx, userID, func(l *model.DailyLog, at time.Time) { l.WorkEndTime = &at })
}

// GetDailyLog returns the log for date (YYYY-MM-DD, empty for today), or nil
// when nothing was logged that day.
func (s *LogService) GetDailyLog(ctx context.Context, userID, date string) (*model.DailyLog, error) {
	if userID == "" {
		return nil, apperr.UserIDRequired
	}
	if date == "" {
		date = model.DayOf(s.now(), s.loc).Date
	} else if _, err := model.ParseDay(date, s.loc); err != nil {
		return nil, apperr.InvalidRequest.WithMessage(err.Error())
	}
	l, err := s.logs.FindByDate(ctx, userID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return l, err
}

// record applies set to today's log, creating the log on the first event of
// the day.
func (s *LogService) record(ctx context.Context, userID string, set func(*model.DailyLog, time.Time)) (*model.DailyLog, error) {
	if userID == "" {
		return nil, apperr.UserIDRequired
	}
	now := s.now().UTC()
	day := model.DayOf(now, s.loc)

	existing, err := s.logs.FindByDate(ctx, userID, day.Date)
	switch {
	case err == nil:
		return s.update(ctx, existing, set, now)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	entry := &model.DailyLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      day.Date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	set(entry, now)
	err = s.logs.Create(ctx, entry)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// another request created today's log in between
		existing, err := s.logs.FindByDate(ctx, userID, day.Date)
		if err != nil {
			return nil, err
		}
		return s.update(ctx, existing, set, now)
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("daily log created", zap.String("user_id", userID), zap.String("date", day.Date))
	return entry, nil
}

func (s *LogService) update(ctx context.Context, entry *model.DailyLog, set func(*model.DailyLog, time.Time), now time.Time) (*model.DailyLog, error) {
	set(entry, now)
	if entry.WorkStartTime != nil && entry.WorkEndTime != nil && entry.WorkEndTime.After(*entry.WorkStartTime) {
		entry.TotalWorkTime = int(entry.WorkEndTime.Sub(*entry.WorkStartTime) / time.Minute)
	}
	if err := s.logs.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
