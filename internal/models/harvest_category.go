package models

import "time"

type HarvestCategory struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"` // husked, unhusked, scraped
	Unit        string `gorm:"size:50;not null"`  // per_nut, per_kg
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
