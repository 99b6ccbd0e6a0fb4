package models

import "time"

// Byproduct is a farmer-listed secondary good (husks, shells, coir, ...).
// Unlike Product it is not tied to a specific harvest.
type Byproduct struct {
	ID           uint          `gorm:"primaryKey"`
	FarmerID     uint          `gorm:"index;not null"`
	Farmer       User          `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE"`
	Name         string        `gorm:"size:255;not null"`
	Description  string        `gorm:"type:text"`
	Quantity     float64       `gorm:"type:decimal(10,2);not null"`
	Unit         string        `gorm:"size:50;not null"` // kg, pieces, bundles
	PricePerUnit float64       `gorm:"type:decimal(10,2);not null"`
	Status       ListingStatus `gorm:"size:20;not null;default:available"`
	Bids         []ByproductBid `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b *Byproduct) OwnerID() uint {
	return b.FarmerID
}
