package harvest

import (
	"errors"
	"testing"
	"time"

	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, role models.UserRole, email string) *models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := models.User{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func createPlot(t *testing.T, db *gorm.DB, farmerID uint) *models.Plot {
	t.Helper()
	plot := models.Plot{
		FarmerID:         farmerID,
		Name:             "North grove",
		Size:             2.5,
		Location:         "Kurunegala",
		HarvestFrequency: models.FrequencyMonthly,
		IsHarvestSold:    true,
	}
	if err := db.Create(&plot).Error; err != nil {
		t.Fatalf("create plot: %v", err)
	}
	return &plot
}

func createHarvest(t *testing.T, db *gorm.DB, plot *models.Plot, quantity int) *models.Harvest {
	t.Helper()
	h := models.Harvest{
		PlotID:        plot.ID,
		FarmerID:      plot.FarmerID,
		HarvestDate:   time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		TotalQuantity: quantity,
		Status:        models.HarvestScheduled,
	}
	if err := db.Create(&h).Error; err != nil {
		t.Fatalf("create harvest: %v", err)
	}
	return &h
}

func windowByName(t *testing.T, db *gorm.DB, name string) *models.BidTimeWindow {
	t.Helper()
	var w models.BidTimeWindow
	if err := db.Where("name = ?", name).First(&w).Error; err != nil {
		t.Fatalf("seeded window %q missing: %v", name, err)
	}
	return &w
}

func TestCreateStaysScheduledWithoutWindow(t *testing.T) {
	db := setupDB(t)
	farmer := createUser(t, db, models.RoleFarmer, "farmer@example.com")
	plot := createPlot(t, db, farmer.ID)

	h := createHarvest(t, db, plot, 500)

	if h.Status != models.HarvestScheduled {
		t.Errorf("status = %q, want scheduled", h.Status)
	}
	if h.BidEndTime != nil {
		t.Errorf("bid_end_time = %v, want nil", h.BidEndTime)
	}
}

func TestStartBidding(t *testing.T) {
	db := setupDB(t)
	farmer := createUser(t, db, models.RoleFarmer, "farmer@example.com")
	plot := createPlot(t, db, farmer.ID)
	window := windowByName(t, db, "1 Hour")

	t.Run("sets window exactly", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

		if err := StartBidding(db, h, window.ID, now); err != nil {
			t.Fatalf("StartBidding: %v", err)
		}

		var got models.Harvest
		if err := db.First(&got, h.ID).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		if got.Status != models.HarvestActive {
			t.Errorf("status = %q, want active", got.Status)
		}
		if got.BidStartTime == nil || got.BidEndTime == nil {
			t.Fatalf("bid window not set: start=%v end=%v", got.BidStartTime, got.BidEndTime)
		}
		wantEnd := now.Add(60 * time.Minute)
		if !got.BidEndTime.Equal(wantEnd) {
			t.Errorf("bid_end_time = %v, want %v", got.BidEndTime, wantEnd)
		}
		if got.BidEndTime.Sub(*got.BidStartTime) != time.Duration(window.DurationMinutes)*time.Minute {
			t.Errorf("window length = %v, want %d minutes", got.BidEndTime.Sub(*got.BidStartTime), window.DurationMinutes)
		}
	})

	t.Run("already active is rejected", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		now := time.Now()
		if err := StartBidding(db, h, window.ID, now); err != nil {
			t.Fatalf("first start: %v", err)
		}
		db.First(h, h.ID)

		err := StartBidding(db, h, window.ID, now.Add(time.Minute))
		if !errors.Is(err, ErrAlreadyActive) {
			t.Errorf("err = %v, want ErrAlreadyActive", err)
		}
	})

	t.Run("lapsed active can be restarted", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		start := time.Now().Add(-2 * time.Hour)
		if err := StartBidding(db, h, window.ID, start); err != nil {
			t.Fatalf("first start: %v", err)
		}
		db.First(h, h.ID)

		if err := StartBidding(db, h, window.ID, time.Now()); err != nil {
			t.Errorf("restart after lapse: %v", err)
		}
	})

	t.Run("completed is rejected", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		db.Model(h).Update("status", models.HarvestCompleted)
		db.First(h, h.ID)

		err := StartBidding(db, h, window.ID, time.Now())
		if !errors.Is(err, ErrNotStartable) {
			t.Errorf("err = %v, want ErrNotStartable", err)
		}
	})

	t.Run("unknown window", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		err := StartBidding(db, h, 9999, time.Now())
		if !errors.Is(err, ErrWindowNotFound) {
			t.Errorf("err = %v, want ErrWindowNotFound", err)
		}
	})
}

func TestPlaceBid(t *testing.T) {
	db := setupDB(t)
	farmer := createUser(t, db, models.RoleFarmer, "farmer@example.com")
	buyer := createUser(t, db, models.RoleBuyer, "buyer@example.com")
	plot := createPlot(t, db, farmer.ID)
	window := windowByName(t, db, "1 Hour")

	categoryBids := []models.CategoryBid{
		{CategoryID: 1, Quantity: 100, PricePerUnit: 10},
	}

	t.Run("within window", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		t0 := time.Now()
		if err := StartBidding(db, h, window.ID, t0); err != nil {
			t.Fatalf("start: %v", err)
		}
		db.First(h, h.ID)

		bid, err := PlaceBid(db, h, buyer.ID, categoryBids, 1000, "", t0.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("PlaceBid: %v", err)
		}
		if bid.Status != models.BidPending {
			t.Errorf("status = %q, want pending", bid.Status)
		}
		if bid.TotalAmount != 1000 {
			t.Errorf("total = %v, want 1000", bid.TotalAmount)
		}
		if len(bid.CategoryBids) != 1 || bid.CategoryBids[0].Quantity != 100 {
			t.Errorf("category bids not persisted: %+v", bid.CategoryBids)
		}
	})

	t.Run("after window lapses", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		t0 := time.Now()
		if err := StartBidding(db, h, window.ID, t0); err != nil {
			t.Fatalf("start: %v", err)
		}
		db.First(h, h.ID)

		_, err := PlaceBid(db, h, buyer.ID, categoryBids, 1000, "", t0.Add(61*time.Minute))
		if !errors.Is(err, ErrNotBiddable) {
			t.Errorf("err = %v, want ErrNotBiddable", err)
		}
	})

	t.Run("scheduled harvest", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		_, err := PlaceBid(db, h, buyer.ID, categoryBids, 1000, "", time.Now())
		if !errors.Is(err, ErrNotBiddable) {
			t.Errorf("err = %v, want ErrNotBiddable", err)
		}
	})

	t.Run("own harvest", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		if err := StartBidding(db, h, window.ID, time.Now()); err != nil {
			t.Fatalf("start: %v", err)
		}
		db.First(h, h.ID)

		_, err := PlaceBid(db, h, farmer.ID, categoryBids, 1000, "", time.Now())
		if !errors.Is(err, ErrOwnHarvest) {
			t.Errorf("err = %v, want ErrOwnHarvest", err)
		}
	})

	t.Run("multiple bids from one buyer", func(t *testing.T) {
		h := createHarvest(t, db, plot, 500)
		if err := StartBidding(db, h, window.ID, time.Now()); err != nil {
			t.Fatalf("start: %v", err)
		}
		db.First(h, h.ID)

		for i := 0; i < 2; i++ {
			if _, err := PlaceBid(db, h, buyer.ID, categoryBids, 1000, "", time.Now()); err != nil {
				t.Fatalf("bid %d: %v", i, err)
			}
		}
		var count int64
		db.Model(&models.HarvestBid{}).Where("harvest_id = ?", h.ID).Count(&count)
		if count != 2 {
			t.Errorf("bid count = %d, want 2", count)
		}
	})
}

func TestSelectWinner(t *testing.T) {
	db := setupDB(t)
	farmer := createUser(t, db, models.RoleFarmer, "farmer@example.com")
	buyerA := createUser(t, db, models.RoleBuyer, "a@example.com")
	buyerB := createUser(t, db, models.RoleBuyer, "b@example.com")
	plot := createPlot(t, db, farmer.ID)
	window := windowByName(t, db, "1 Hour")

	categoryBids := []models.CategoryBid{{CategoryID: 1, Quantity: 100, PricePerUnit: 10}}

	newAuction := func(t *testing.T) (*models.Harvest, *models.HarvestBid, *models.HarvestBid) {
		h := createHarvest(t, db, plot, 500)
		if err := StartBidding(db, h, window.ID, time.Now()); err != nil {
			t.Fatalf("start: %v", err)
		}
		db.First(h, h.ID)
		bidA, err := PlaceBid(db, h, buyerA.ID, categoryBids, 1000, "", time.Now())
		if err != nil {
			t.Fatalf("bid A: %v", err)
		}
		bidB, err := PlaceBid(db, h, buyerB.ID, categoryBids, 1200, "", time.Now())
		if err != nil {
			t.Fatalf("bid B: %v", err)
		}
		return h, bidA, bidB
	}

	t.Run("marks winner and losers atomically", func(t *testing.T) {
		h, bidA, bidB := newAuction(t)

		// The farmer picks the lower offer: selection is a manual choice,
		// never an auto-award to the highest bid.
		winner, err := SelectWinner(db, h.ID, bidA.ID)
		if err != nil {
			t.Fatalf("SelectWinner: %v", err)
		}
		if winner.Status != models.BidWon {
			t.Errorf("winner status = %q, want won", winner.Status)
		}

		var got models.Harvest
		db.First(&got, h.ID)
		if got.Status != models.HarvestCompleted {
			t.Errorf("harvest status = %q, want completed", got.Status)
		}
		if got.WinningBidID == nil || *got.WinningBidID != bidA.ID {
			t.Errorf("winning_bid_id = %v, want %d", got.WinningBidID, bidA.ID)
		}
		if got.WinnerID == nil || *got.WinnerID != buyerA.ID {
			t.Errorf("winner_id = %v, want %d", got.WinnerID, buyerA.ID)
		}

		var loser models.HarvestBid
		db.First(&loser, bidB.ID)
		if loser.Status != models.BidLost {
			t.Errorf("loser status = %q, want lost", loser.Status)
		}

		var wonCount int64
		db.Model(&models.HarvestBid{}).Where("harvest_id = ? AND status = ?", h.ID, models.BidWon).Count(&wonCount)
		if wonCount != 1 {
			t.Errorf("won count = %d, want exactly 1", wonCount)
		}
		var pendingCount int64
		db.Model(&models.HarvestBid{}).Where("harvest_id = ? AND status = ?", h.ID, models.BidPending).Count(&pendingCount)
		if pendingCount != 0 {
			t.Errorf("pending count = %d, want 0 after completion", pendingCount)
		}
	})

	t.Run("second selection is rejected", func(t *testing.T) {
		h, bidA, bidB := newAuction(t)
		if _, err := SelectWinner(db, h.ID, bidA.ID); err != nil {
			t.Fatalf("first selection: %v", err)
		}
		_, err := SelectWinner(db, h.ID, bidB.ID)
		if !errors.Is(err, ErrNotActive) {
			t.Errorf("err = %v, want ErrNotActive", err)
		}
	})

	t.Run("bid from another harvest", func(t *testing.T) {
		h1, _, _ := newAuction(t)
		_, otherBid, _ := newAuction(t)
		_, err := SelectWinner(db, h1.ID, otherBid.ID)
		if !errors.Is(err, ErrBidMismatch) {
			t.Errorf("err = %v, want ErrBidMismatch", err)
		}
	})

	t.Run("unknown bid", func(t *testing.T) {
		h, _, _ := newAuction(t)
		_, err := SelectWinner(db, h.ID, 99999)
		if !errors.Is(err, ErrBidNotFound) {
			t.Errorf("err = %v, want ErrBidNotFound", err)
		}
	})

	t.Run("completed iff winning bid set", func(t *testing.T) {
		var harvests []models.Harvest
		db.Find(&harvests)
		for _, h := range harvests {
			completed := h.Status == models.HarvestCompleted
			hasWinner := h.WinningBidID != nil
			if completed != hasWinner {
				t.Errorf("harvest %d: completed=%v but winning_bid set=%v", h.ID, completed, hasWinner)
			}
		}
	})
}
