package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-tracker/internal/model"
)

// LifestyleRepository stores meals, sleep plans, water reminders and
// schedule items.
type LifestyleRepository struct {
	db *gorm.DB
}

func NewLifestyleRepository(db *gorm.DB) *LifestyleRepository {
	return &LifestyleRepository{db: db}
}

func (r *LifestyleRepository) CreateMeal(ctx context.Context, meal *model.Meal) error {
	return r.create(ctx, "meal", meal)
}

func (r *LifestyleRepository) CreateSleep(ctx context.Context, sleep *model.Sleep) error {
	return r.create(ctx, "sleep", sleep)
}

func (r *LifestyleRepository) CreateWater(ctx context.Context, water *model.WaterIntake) error {
	return r.create(ctx, "water intake", water)
}

func (r *LifestyleRepository) CreateSchedule(ctx context.Context, item *model.ScheduleItem) error {
	return r.create(ctx, "schedule item", item)
}

// MealsOn returns the day's dated meals ordered by time.
func (r *LifestyleRepository) MealsOn(ctx context.Context, userID, date string) ([]model.Meal, error) {
	var meals []model.Meal
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("time").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

// SchedulesOn returns the day's dated schedule items ordered by start.
func (r *LifestyleRepository) SchedulesOn(ctx context.Context, userID, date string) ([]model.ScheduleItem, error) {
	var items []model.ScheduleItem
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("start_time").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list schedule items: %w", err)
	}
	return items, nil
}

func (r *LifestyleRepository) create(ctx context.Context, what string, doc any) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create %s: %w", what, err)
	}
	return nil
}
