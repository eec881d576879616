package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"daily-tracker/internal/model"
)

// DailyLogRepository stores one log per user and calendar day.
type DailyLogRepository struct {
	db *gorm.DB
}

func NewDailyLogRepository(db *gorm.DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// FindByDate returns ErrNotFound when the user has not logged anything that day.
func (r *DailyLogRepository) FindByDate(ctx context.Context, userID, date string) (*model.DailyLog, error) {
	var log model.DailyLog
	err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("Daily log not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find daily log: %w", err)
	}
	return &log, nil
}

// Create fails with ErrDuplicateKey when another writer created the same
// (user, date) log first.
func (r *DailyLogRepository) Create(ctx context.Context, log *model.DailyLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create daily log: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("create daily log: %w", err)
	}
	return nil
}

func (r *DailyLogRepository) Save(ctx context.Context, log *model.DailyLog) error {
	if err := r.db.WithContext(ctx).Save(log).Error; err != nil {
		return fmt.Errorf("save daily log: %w", err)
	}
	return nil
}
