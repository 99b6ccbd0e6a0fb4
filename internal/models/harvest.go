package models

import "time"

type HarvestStatus string

const (
	HarvestScheduled HarvestStatus = "scheduled"
	HarvestActive    HarvestStatus = "active"
	HarvestCompleted HarvestStatus = "completed"
	HarvestCancelled HarvestStatus = "cancelled"
)

type Harvest struct {
	ID              uint          `gorm:"primaryKey"`
	PlotID          uint          `gorm:"index;not null"`
	Plot            Plot          `gorm:"constraint:OnDelete:CASCADE"`
	FarmerID        uint          `gorm:"index;not null"`
	Farmer          User          `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE"`
	HarvestDate     time.Time     `gorm:"not null"`
	TotalQuantity   int           `gorm:"not null"` // total nuts or kg
	Notes           string        `gorm:"type:text"`
	Status          HarvestStatus `gorm:"size:20;not null;default:scheduled;index"`
	BidTimeWindowID *uint
	BidTimeWindow   *BidTimeWindow
	BidStartTime    *time.Time
	BidEndTime      *time.Time
	WinningBidID    *uint
	WinnerID        *uint
	Winner          *User        `gorm:"foreignKey:WinnerID"`
	Bids            []HarvestBid `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (h *Harvest) OwnerID() uint {
	return h.FarmerID
}

// IsBiddable reports whether bids are currently accepted. Expiry is lazy:
// the stored status stays "active" after the window lapses, so activity is
// always computed against the clock, never read from the enum alone.
func (h *Harvest) IsBiddable(now time.Time) bool {
	return h.Status == HarvestActive && h.BidEndTime != nil && now.Before(*h.BidEndTime)
}
