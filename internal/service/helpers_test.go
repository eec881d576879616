package service

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"daily-tracker/internal/config"
)

// testNow is a Wednesday morning.
var testNow = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Timezone:          "UTC",
		ProcessLockTTL:    time.Second,
		MetricsWindowDays: 30,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func seed(t *testing.T, db *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}
