package models

import "time"

// FarmerProfile and BuyerProfile are role-exclusive: a user owns exactly one of
// the two, matching User.Role. The matching row is created at registration.
type FarmerProfile struct {
	ID              uint `gorm:"primaryKey"`
	UserID          uint `gorm:"uniqueIndex;not null"`
	User            User `gorm:"constraint:OnDelete:CASCADE"`
	Bio             string
	FarmName        string  `gorm:"size:255"`
	FarmSize        float64 `gorm:"type:decimal(10,2)"` // acres
	YearsExperience int
	Location        string  `gorm:"size:255"`
	AverageRating   float64 `gorm:"type:decimal(3,2);default:0"`
	TotalRatings    int     `gorm:"default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type BuyerProfile struct {
	ID            uint `gorm:"primaryKey"`
	UserID        uint `gorm:"uniqueIndex;not null"`
	User          User `gorm:"constraint:OnDelete:CASCADE"`
	Bio           string
	CompanyName   string  `gorm:"size:255"`
	BusinessType  string  `gorm:"size:100"`
	AverageRating float64 `gorm:"type:decimal(3,2);default:0"`
	TotalRatings  int     `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
