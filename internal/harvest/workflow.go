package harvest

import (
	"errors"
	"fmt"
	"time"

	"harvestmarket-backend/internal/models"

	"gorm.io/gorm"
)

// State rule violations surfaced by the workflow. Handlers map these onto
// HTTP statuses; nothing here mutates the database when one is returned.
var (
	ErrWindowNotFound = errors.New("bid time window not found")
	ErrNotStartable   = errors.New("bidding cannot be started on a completed or cancelled harvest")
	ErrAlreadyActive  = errors.New("bidding is already running for this harvest")
	ErrNotBiddable    = errors.New("harvest is not open for bidding")
	ErrOwnHarvest     = errors.New("farmers cannot bid on their own harvest")
	ErrNotActive      = errors.New("harvest is not in active bidding")
	ErrBidNotFound    = errors.New("bid not found")
	ErrBidMismatch    = errors.New("bid does not belong to this harvest")
)

// StartBidding moves a harvest into active bidding against the given time
// window: bid_end_time is always bid_start_time plus the window duration.
//
// A harvest already inside a running window cannot be restarted; a lapsed
// "active" harvest can (lazy expiry keeps the stored status at active, and
// the farmer may want a fresh round if the previous one drew no winner).
func StartBidding(db *gorm.DB, h *models.Harvest, windowID uint, now time.Time) error {
	if h.Status == models.HarvestCompleted || h.Status == models.HarvestCancelled {
		return ErrNotStartable
	}
	if h.IsBiddable(now) {
		return ErrAlreadyActive
	}

	var window models.BidTimeWindow
	if err := db.First(&window, windowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWindowNotFound
		}
		return err
	}

	start := now
	end := start.Add(time.Duration(window.DurationMinutes) * time.Minute)

	return db.Model(h).Updates(map[string]any{
		"status":             models.HarvestActive,
		"bid_time_window_id": window.ID,
		"bid_start_time":     start,
		"bid_end_time":       end,
	}).Error
}

// PlaceBid records a buyer's offer against an active harvest. Buyers may bid
// more than once; every call inserts an independent pending row.
func PlaceBid(db *gorm.DB, h *models.Harvest, buyerID uint, categoryBids []models.CategoryBid, totalAmount float64, notes string, now time.Time) (*models.HarvestBid, error) {
	if buyerID == h.FarmerID {
		return nil, ErrOwnHarvest
	}
	if !h.IsBiddable(now) {
		return nil, ErrNotBiddable
	}

	bid := models.HarvestBid{
		HarvestID:    h.ID,
		BuyerID:      buyerID,
		CategoryBids: categoryBids,
		TotalAmount:  totalAmount,
		Status:       models.BidPending,
		Notes:        notes,
	}
	if err := db.Create(&bid).Error; err != nil {
		return nil, fmt.Errorf("could not save bid: %w", err)
	}
	return &bid, nil
}

// SelectWinner completes the auction: the chosen bid becomes won, every other
// bid on the harvest becomes lost, and the harvest records the winner. The
// whole step is one transaction; the status re-read inside it rejects a
// concurrent second selection on the same harvest.
func SelectWinner(db *gorm.DB, harvestID, bidID uint) (*models.HarvestBid, error) {
	var winner models.HarvestBid

	err := db.Transaction(func(tx *gorm.DB) error {
		var h models.Harvest
		if err := tx.First(&h, harvestID).Error; err != nil {
			return err
		}
		if h.Status != models.HarvestActive {
			return ErrNotActive
		}

		if err := tx.First(&winner, bidID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return err
		}
		if winner.HarvestID != h.ID {
			return ErrBidMismatch
		}

		if err := tx.Model(&h).Updates(map[string]any{
			"status":         models.HarvestCompleted,
			"winning_bid_id": winner.ID,
			"winner_id":      winner.BuyerID,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.HarvestBid{}).
			Where("harvest_id = ? AND id <> ?", h.ID, winner.ID).
			Update("status", models.BidLost).Error; err != nil {
			return err
		}

		winner.Status = models.BidWon
		return tx.Model(&winner).Update("status", models.BidWon).Error
	})
	if err != nil {
		return nil, err
	}
	return &winner, nil
}
