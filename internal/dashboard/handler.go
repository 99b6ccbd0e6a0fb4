package dashboard

import (
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard - role-dependent summary, mirroring what the farmer and
// buyer landing pages show.
func DashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		role, err := auth.Role(c)
		if err != nil {
			return err
		}

		if role == models.RoleFarmer {
			return farmerDashboard(c, userID)
		}
		return buyerDashboard(c, userID)
	}
}

func farmerDashboard(c *fiber.Ctx, userID uint) error {
	var plotCount int64
	database.DB.Model(&models.Plot{}).Where("farmer_id = ?", userID).Count(&plotCount)

	var activeHarvests []models.Harvest
	database.DB.Preload("Plot").Preload("Bids").
		Where("farmer_id = ? AND status = ?", userID, models.HarvestActive).
		Find(&activeHarvests)

	var scheduledHarvests []models.Harvest
	database.DB.Preload("Plot").
		Where("farmer_id = ? AND status = ?", userID, models.HarvestScheduled).
		Order("harvest_date asc").
		Limit(5).
		Find(&scheduledHarvests)

	var productCount, byproductCount int64
	database.DB.Model(&models.Product{}).
		Where("farmer_id = ? AND status = ?", userID, models.ListingAvailable).
		Count(&productCount)
	database.DB.Model(&models.Byproduct{}).
		Where("farmer_id = ? AND status = ?", userID, models.ListingAvailable).
		Count(&byproductCount)

	now := time.Now()
	active := make([]fiber.Map, 0, len(activeHarvests))
	for i := range activeHarvests {
		h := &activeHarvests[i]
		active = append(active, fiber.Map{
			"id":        h.ID,
			"plot_name": h.Plot.Name,
			"bid_count": len(h.Bids),
			"biddable":  h.IsBiddable(now),
		})
	}
	scheduled := make([]fiber.Map, 0, len(scheduledHarvests))
	for i := range scheduledHarvests {
		h := &scheduledHarvests[i]
		scheduled = append(scheduled, fiber.Map{
			"id":           h.ID,
			"plot_name":    h.Plot.Name,
			"harvest_date": h.HarvestDate.Format("2006-01-02"),
		})
	}

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"plots":           plotCount,
			"active_harvests": len(activeHarvests),
			"products":        productCount,
			"byproducts":      byproductCount,
		},
		"active_harvests":    active,
		"scheduled_harvests": scheduled,
	})
}

func buyerDashboard(c *fiber.Ctx, userID uint) error {
	var pendingBids int64
	database.DB.Model(&models.HarvestBid{}).
		Where("buyer_id = ? AND status = ?", userID, models.BidPending).
		Count(&pendingBids)

	var wonBids int64
	database.DB.Model(&models.HarvestBid{}).
		Where("buyer_id = ? AND status = ?", userID, models.BidWon).
		Count(&wonBids)

	// Stored status alone over-counts lapsed auctions; filter on the window.
	var openHarvests int64
	database.DB.Model(&models.Harvest{}).
		Where("status = ? AND bid_end_time > ?", models.HarvestActive, time.Now()).
		Count(&openHarvests)

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"pending_bids":  pendingBids,
			"won_bids":      wonBids,
			"open_harvests": openHarvests,
		},
	})
}
