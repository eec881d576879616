package model

import "time"

// User is a tracker account. Telegram fields are set once the user talks
// to the bot.
type User struct {
	ID         string `gorm:"primaryKey;size:64"`
	TelegramID *int64 `gorm:"uniqueIndex"`
	ChatID     int64
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string { return CollectionUsers }
