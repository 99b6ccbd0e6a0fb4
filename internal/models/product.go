package models

import "time"

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingSold      ListingStatus = "sold"
	ListingReserved  ListingStatus = "reserved"
)

// Product is a farmer-listed sellable item derived from a completed harvest
// (oil, desiccated coconut, ...).
type Product struct {
	ID           uint          `gorm:"primaryKey"`
	FarmerID     uint          `gorm:"index;not null"`
	Farmer       User          `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE"`
	HarvestID    uint          `gorm:"index;not null"`
	Harvest      Harvest
	Name         string        `gorm:"size:255;not null"`
	Description  string        `gorm:"type:text"`
	Quantity     float64       `gorm:"type:decimal(10,2);not null"`
	Unit         string        `gorm:"size:50;not null"` // kg, liters, ...
	PricePerUnit float64       `gorm:"type:decimal(10,2);not null"`
	Status       ListingStatus `gorm:"size:20;not null;default:available"`
	Bids         []ProductBid  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Product) OwnerID() uint {
	return p.FarmerID
}
