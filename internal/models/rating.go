package models

import "time"

// RatableType tags the polymorphic target of a rating.
type RatableType string

const (
	RatableHarvest      RatableType = "harvest"
	RatableProductBid   RatableType = "product_bid"
	RatableByproductBid RatableType = "byproduct_bid"
)

// Rating is a 1-5 score from one user to another, attached to a completed
// transaction. At most one rating per (rater, ratable) pair.
type Rating struct {
	ID          uint        `gorm:"primaryKey"`
	RaterID     uint        `gorm:"not null;uniqueIndex:idx_ratings_rater_ratable"`
	Rater       User        `gorm:"foreignKey:RaterID;constraint:OnDelete:CASCADE"`
	RatedID     uint        `gorm:"index;not null"`
	Rated       User        `gorm:"foreignKey:RatedID;constraint:OnDelete:CASCADE"`
	RatableType RatableType `gorm:"size:30;not null;uniqueIndex:idx_ratings_rater_ratable"`
	RatableID   uint        `gorm:"not null;uniqueIndex:idx_ratings_rater_ratable"`
	Rating      int         `gorm:"not null"` // 1-5
	Review      string      `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
