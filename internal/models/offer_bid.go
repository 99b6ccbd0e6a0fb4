package models

import "time"

// OfferStatus covers the single-offer product/byproduct negotiations. These
// never transition to won/lost; the farmer accepts or rejects each offer
// independently, or the buyer cancels a pending one.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCancelled OfferStatus = "cancelled"
)

type ProductBid struct {
	ID         uint        `gorm:"primaryKey"`
	ProductID  uint        `gorm:"index;not null"`
	Product    Product
	BuyerID    uint        `gorm:"index;not null"`
	Buyer      User        `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
	BidAmount  float64     `gorm:"type:decimal(10,2);not null"`
	Quantity   float64     `gorm:"type:decimal(10,2);not null"`
	Status     OfferStatus `gorm:"size:20;not null;default:pending"`
	Notes      string      `gorm:"type:text"`
	BidEndTime *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ByproductBid struct {
	ID          uint        `gorm:"primaryKey"`
	ByproductID uint        `gorm:"index;not null"`
	Byproduct   Byproduct
	BuyerID     uint        `gorm:"index;not null"`
	Buyer       User        `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE"`
	BidAmount   float64     `gorm:"type:decimal(10,2);not null"`
	Quantity    float64     `gorm:"type:decimal(10,2);not null"`
	Status      OfferStatus `gorm:"size:20;not null;default:pending"`
	Notes       string      `gorm:"type:text"`
	BidEndTime  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
