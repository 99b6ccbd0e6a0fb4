package models

import (
	"time"

	"gorm.io/datatypes"
)

type HarvestFrequency string

const (
	FrequencyWeekly   HarvestFrequency = "weekly"
	FrequencyBiweekly HarvestFrequency = "biweekly"
	FrequencyMonthly  HarvestFrequency = "monthly"
	FrequencyCustom   HarvestFrequency = "custom"
)

type Plot struct {
	ID               uint             `gorm:"primaryKey"`
	FarmerID         uint             `gorm:"index;not null"`
	Farmer           User             `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE"`
	Name             string           `gorm:"size:255;not null"`
	Description      string           `gorm:"type:text"`
	Size             float64          `gorm:"type:decimal(10,2);not null"` // acres
	Location         string           `gorm:"size:255;not null"`
	TreeCount        *int
	PotentialHarvest *int             // estimated nuts per harvest
	HarvestFrequency HarvestFrequency `gorm:"size:20;not null;default:monthly"`
	CustomFrequency  string           `gorm:"size:255"`
	IsHarvestSold    bool             `gorm:"not null;default:true"`
	CanDeliver       bool             `gorm:"not null;default:false"`
	// JSON array of category names, e.g. ["husked","scraped"]
	AvailableCategories datatypes.JSON
	Images              []PlotImage `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (p *Plot) OwnerID() uint {
	return p.FarmerID
}

type PlotImage struct {
	ID        uint   `gorm:"primaryKey"`
	PlotID    uint   `gorm:"index;not null"`
	ImagePath string `gorm:"size:255;not null"`
	Caption   string `gorm:"size:255"`
	Order     int    `gorm:"column:display_order;not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
