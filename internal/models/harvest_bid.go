package models

import "time"

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidWon       BidStatus = "won"
	BidLost      BidStatus = "lost"
	BidCancelled BidStatus = "cancelled"
)

// CategoryBid is one line of a harvest bid: an offer for a single produce
// category.
type CategoryBid struct {
	CategoryID   uint     `json:"category_id"`
	Quantity     float64  `json:"quantity"`
	PricePerUnit float64  `json:"price_per_unit"`
	MinBid       *float64 `json:"min_bid,omitempty"`
}

type HarvestBid struct {
	ID           uint          `gorm:"primaryKey"`
	HarvestID    uint          `gorm:"index;not null"`
	BuyerID      uint          `gorm:"index;not null"`
	Buyer        User          `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
	CategoryBids []CategoryBid `gorm:"serializer:json;not null"`
	TotalAmount  float64       `gorm:"type:decimal(12,2);not null"`
	Status       BidStatus     `gorm:"size:20;not null;default:pending;index"`
	Notes        string        `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
