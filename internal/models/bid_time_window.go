package models

import "time"

// BidTimeWindow is a named duration preset ("1 Hour", "1 Day") sizing a
// harvest's bidding period.
type BidTimeWindow struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:100;not null"`
	DurationMinutes int    `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
