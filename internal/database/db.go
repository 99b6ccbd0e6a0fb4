package database

import (
	"log"

	"harvestmarket-backend/internal/config"
	"harvestmarket-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	if err := Seed(DB); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	log.Println("Database connected. Migration complete.")
}

// Migrate is separate from Init so tests can run the same schema against an
// in-memory sqlite handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.FarmerProfile{},
		&models.BuyerProfile{},
		&models.Plot{},
		&models.PlotImage{},
		&models.BidTimeWindow{},
		&models.HarvestCategory{},
		&models.Harvest{},
		&models.HarvestBid{},
		&models.Product{},
		&models.ProductBid{},
		&models.Byproduct{},
		&models.ByproductBid{},
		&models.Rating{},
	)
}

// Seed inserts the fixed bid time window and harvest category rows. Inserts
// only when the tables are empty, so restarts are safe.
func Seed(db *gorm.DB) error {
	var windowCount int64
	if err := db.Model(&models.BidTimeWindow{}).Count(&windowCount).Error; err != nil {
		return err
	}
	if windowCount == 0 {
		windows := []models.BidTimeWindow{
			{Name: "1 Hour", DurationMinutes: 60},
			{Name: "6 Hours", DurationMinutes: 360},
			{Name: "1 Day", DurationMinutes: 1440},
			{Name: "3 Days", DurationMinutes: 4320},
			{Name: "1 Week", DurationMinutes: 10080},
		}
		if err := db.Create(&windows).Error; err != nil {
			return err
		}
	}

	var categoryCount int64
	if err := db.Model(&models.HarvestCategory{}).Count(&categoryCount).Error; err != nil {
		return err
	}
	if categoryCount == 0 {
		categories := []models.HarvestCategory{
			{Name: "husked", Unit: "per_nut", Description: "Husked coconuts (per nut)"},
			{Name: "unhusked", Unit: "per_nut", Description: "Unhusked coconuts (per nut)"},
			{Name: "scraped", Unit: "per_kg", Description: "Scraped coconut (per kg)"},
		}
		if err := db.Create(&categories).Error; err != nil {
			return err
		}
	}

	return nil
}
