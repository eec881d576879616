package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/config"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// DayPlan is what a user has planned for one day.
type DayPlan struct {
	Date     string               `json:"date"`
	Meals    []model.Meal         `json:"meals"`
	Schedule []model.ScheduleItem `json:"schedule"`
}

// LifestyleService creates meals, sleep plans, water reminders and schedule
// items. Items for a concrete day get their board task right away; recurring
// ones get it when they are processed.
type LifestyleService struct {
	items    *repository.LifestyleRepository
	taskRepo *repository.TaskRepository
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

func NewLifestyleService(items *repository.LifestyleRepository, taskRepo *repository.TaskRepository, cfg config.Config, log *zap.Logger) *LifestyleService {
	return &LifestyleService{
		items:    items,
		taskRepo: taskRepo,
		loc:      cfg.Location(),
		now:      time.Now,
		log:      log.Named("lifestyle"),
	}
}

// CreateMeal also creates the meal's task when the meal is one-off or its
// day schedule enables today.
func (s *LifestyleService) CreateMeal(ctx context.Context, meal model.Meal) (*model.Meal, error) {
	if strings.TrimSpace(meal.Title) == "" {
		return nil, apperr.InvalidRequest.WithMessage("Title is required")
	}
	if meal.MealType == "" {
		meal.MealType = model.MealTypeRegular
	}
	if meal.MealType != model.MealTypeRegular && meal.MealType != model.MealTypeSupplement {
		return nil, apperr.InvalidRequest.WithMessage("Unknown meal type " + string(meal.MealType))
	}
	for _, entry := range meal.DaySchedule {
		if !model.IsWeekdayName(entry.DayOfWeek) {
			return nil, apperr.InvalidRequest.WithMessage("Unknown day of week " + entry.DayOfWeek)
		}
	}
	if !meal.IsRecurring {
		meal.DaySchedule = nil
	}
	day, now, err := s.prepare(meal.UserID, &meal.Date, meal.IsRecurring, &meal.Recurrence, len(meal.DaySchedule) > 0)
	if err != nil {
		return nil, err
	}
	meal.Title = strings.TrimSpace(meal.Title)
	meal.ID, meal.CreatedAt, meal.Time = uuid.NewString(), now, meal.Time.UTC()

	if err := s.items.CreateMeal(ctx, &meal); err != nil {
		return nil, err
	}

	today := model.WeekdayName(model.DayOf(now, s.loc).Start.Weekday())
	withTask := !meal.IsRecurring
	for _, entry := range meal.DaySchedule {
		if entry.DayOfWeek == today && entry.Enabled {
			withTask = true
		}
	}
	if withTask {
		planned := meal
		planned.Time = day.At(meal.Time).UTC()
		if err := s.addCompanion(ctx, mealCompanion(planned), meal.ID, meal.UserID, model.KindMeal, now); err != nil {
			return nil, err
		}
	}
	return &meal, nil
}

func (s *LifestyleService) CreateSleep(ctx context.Context, sleep model.Sleep) (*model.Sleep, error) {
	day, now, err := s.prepare(sleep.UserID, &sleep.Date, sleep.IsRecurring, &sleep.Recurrence, false)
	if err != nil {
		return nil, err
	}
	sleep.ID, sleep.CreatedAt = uuid.NewString(), now
	sleep.BedTime, sleep.WakeTime = sleep.BedTime.UTC(), sleep.WakeTime.UTC()

	if err := s.items.CreateSleep(ctx, &sleep); err != nil {
		return nil, err
	}
	if !sleep.IsRecurring {
		planned := sleep
		planned.BedTime = day.At(sleep.BedTime).UTC()
		if err := s.addCompanion(ctx, sleepCompanion(planned), sleep.ID, sleep.UserID, model.KindSleep, now); err != nil {
			return nil, err
		}
	}
	return &sleep, nil
}

func (s *LifestyleService) CreateWater(ctx context.Context, water model.WaterIntake) (*model.WaterIntake, error) {
	if water.Amount <= 0 {
		return nil, apperr.InvalidRequest.WithMessage("Amount must be positive")
	}
	day, now, err := s.prepare(water.UserID, &water.Date, water.IsRecurring, &water.Recurrence, false)
	if err != nil {
		return nil, err
	}
	water.ID, water.CreatedAt, water.Time = uuid.NewString(), now, water.Time.UTC()

	if err := s.items.CreateWater(ctx, &water); err != nil {
		return nil, err
	}
	if !water.IsRecurring {
		planned := water
		planned.Time = day.At(water.Time).UTC()
		if err := s.addCompanion(ctx, waterCompanion(planned), water.ID, water.UserID, model.KindWater, now); err != nil {
			return nil, err
		}
	}
	return &water, nil
}

func (s *LifestyleService) CreateSchedule(ctx context.Context, item model.ScheduleItem) (*model.ScheduleItem, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, apperr.InvalidRequest.WithMessage("Title is required")
	}
	if !item.EndTime.IsZero() && item.EndTime.Before(item.StartTime) {
		return nil, apperr.InvalidRequest.WithMessage("End time is before start time")
	}
	day, now, err := s.prepare(item.UserID, &item.Date, item.IsRecurring, &item.Recurrence, false)
	if err != nil {
		return nil, err
	}
	item.Title = strings.TrimSpace(item.Title)
	item.ID, item.CreatedAt = uuid.NewString(), now
	item.StartTime, item.EndTime = item.StartTime.UTC(), item.EndTime.UTC()

	if err := s.items.CreateSchedule(ctx, &item); err != nil {
		return nil, err
	}
	if !item.IsRecurring {
		planned := item
		planned.StartTime = day.At(item.StartTime).UTC()
		if err := s.addCompanion(ctx, scheduleCompanion(planned), item.ID, item.UserID, model.KindSchedule, now); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

// DayPlan lists the meals and schedule items dated date (YYYY-MM-DD, empty
// for today).
func (s *LifestyleService) DayPlan(ctx context.Context, userID, date string) (*DayPlan, error) {
	if userID == "" {
		return nil, apperr.UserIDRequired
	}
	day := model.DayOf(s.now(), s.loc)
	if date != "" {
		parsed, err := model.ParseDay(date, s.loc)
		if err != nil {
			return nil, apperr.InvalidRequest.WithMessage(err.Error())
		}
		day = parsed
	}

	meals, err := s.items.MealsOn(ctx, userID, day.Date)
	if err != nil {
		return nil, err
	}
	schedule, err := s.items.SchedulesOn(ctx, userID, day.Date)
	if err != nil {
		return nil, err
	}
	return &DayPlan{Date: day.Date, Meals: meals, Schedule: schedule}, nil
}

// prepare validates the fields every kind shares. An empty date means today.
// A recurring item needs a valid pattern unless it has a day schedule.
func (s *LifestyleService) prepare(userID string, date *string, recurring bool, pattern *model.Recurrence, scheduled bool) (model.Day, time.Time, error) {
	now := s.now().UTC()
	if userID == "" {
		return model.Day{}, now, apperr.UserIDRequired
	}

	day := model.DayOf(now, s.loc)
	if *date != "" {
		parsed, err := model.ParseDay(*date, s.loc)
		if err != nil {
			return model.Day{}, now, apperr.InvalidRequest.WithMessage(err.Error())
		}
		day = parsed
	}
	*date = day.Date

	switch {
	case !recurring:
		*pattern = model.Recurrence{}
	case pattern.IsSet():
		if err := pattern.Validate(); err != nil {
			return model.Day{}, now, apperr.InvalidRequest.WithMessage(err.Error())
		}
	case !scheduled:
		return model.Day{}, now, apperr.InvalidRequest.WithMessage("Recurring item needs a recurrence pattern")
	}
	return day, now, nil
}

func (s *LifestyleService) addCompanion(ctx context.Context, task model.Task, itemID, userID string, kind model.ItemKind, now time.Time) error {
	stampCompanion(&task, CompanionID(itemID), userID, kind, now)
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return fmt.Errorf("task for %s %s: %w", kind, itemID, err)
	}
	s.log.Debug("companion task created", zap.String("kind", string(kind)), zap.String("task_id", task.ID))
	return nil
}
