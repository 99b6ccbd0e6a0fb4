package harvest

import (
	"errors"
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/authz"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateHarvestRequest struct {
	PlotID          uint   `json:"plot_id"`
	HarvestDate     string `json:"harvest_date"` // "2025-12-09"
	TotalQuantity   int    `json:"total_quantity"`
	Notes           string `json:"notes"`
	BidTimeWindowID *uint  `json:"bid_time_window_id"`
	BidStartTime    string `json:"bid_start_time"` // RFC3339, optional
}

type StartBidRequest struct {
	BidTimeWindowID uint `json:"bid_time_window_id"`
}

type SelectWinnerRequest struct {
	BidID uint `json:"bid_id"`
}

type PlaceBidRequest struct {
	CategoryBids []models.CategoryBid `json:"category_bids"`
	TotalAmount  float64              `json:"total_amount"`
	Notes        string               `json:"notes"`
}

type BidResponse struct {
	ID           uint                 `json:"id"`
	HarvestID    uint                 `json:"harvest_id"`
	BuyerID      uint                 `json:"buyer_id"`
	BuyerName    string               `json:"buyer_name,omitempty"`
	CategoryBids []models.CategoryBid `json:"category_bids"`
	TotalAmount  float64              `json:"total_amount"`
	Status       models.BidStatus     `json:"status"`
	Notes        string               `json:"notes"`
	CreatedAt    string               `json:"created_at"`
}

type HarvestResponse struct {
	ID              uint                 `json:"id"`
	PlotID          uint                 `json:"plot_id"`
	PlotName        string               `json:"plot_name,omitempty"`
	FarmerID        uint                 `json:"farmer_id"`
	HarvestDate     string               `json:"harvest_date"`
	TotalQuantity   int                  `json:"total_quantity"`
	Notes           string               `json:"notes"`
	Status          models.HarvestStatus `json:"status"`
	BidTimeWindowID *uint                `json:"bid_time_window_id"`
	BidStartTime    *string              `json:"bid_start_time"`
	BidEndTime      *string              `json:"bid_end_time"`
	WinningBidID    *uint                `json:"winning_bid_id"`
	WinnerID        *uint                `json:"winner_id"`
	Biddable        bool                 `json:"biddable"`
	Bids            []BidResponse        `json:"bids,omitempty"`
}

func toBidResponse(b *models.HarvestBid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		HarvestID:    b.HarvestID,
		BuyerID:      b.BuyerID,
		BuyerName:    b.Buyer.Name,
		CategoryBids: b.CategoryBids,
		TotalAmount:  b.TotalAmount,
		Status:       b.Status,
		Notes:        b.Notes,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}

func toHarvestResponse(h *models.Harvest, now time.Time, includeBids bool) HarvestResponse {
	resp := HarvestResponse{
		ID:              h.ID,
		PlotID:          h.PlotID,
		PlotName:        h.Plot.Name,
		FarmerID:        h.FarmerID,
		HarvestDate:     h.HarvestDate.Format("2006-01-02"),
		TotalQuantity:   h.TotalQuantity,
		Notes:           h.Notes,
		Status:          h.Status,
		BidTimeWindowID: h.BidTimeWindowID,
		WinningBidID:    h.WinningBidID,
		WinnerID:        h.WinnerID,
		Biddable:        h.IsBiddable(now),
	}
	if h.BidStartTime != nil {
		s := h.BidStartTime.Format(time.RFC3339)
		resp.BidStartTime = &s
	}
	if h.BidEndTime != nil {
		s := h.BidEndTime.Format(time.RFC3339)
		resp.BidEndTime = &s
	}
	if includeBids {
		resp.Bids = make([]BidResponse, 0, len(h.Bids))
		for i := range h.Bids {
			resp.Bids = append(resp.Bids, toBidResponse(&h.Bids[i]))
		}
	}
	return resp
}

// GET /api/bid-time-windows
// The duration presets a farmer picks from when starting bidding.
func ListBidTimeWindowsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var windows []models.BidTimeWindow
		if err := database.DB.Order("duration_minutes asc").Find(&windows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load bid time windows")
		}
		return c.JSON(windows)
	}
}

// GET /api/harvests
// Farmers see their own harvests, buyers see all of them.
func ListHarvestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		role, err := auth.Role(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 15)
		if limit < 1 || limit > 100 {
			limit = 15
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		query := database.DB.Preload("Plot").Preload("Bids").Preload("Bids.Buyer")
		if role == models.RoleFarmer {
			query = query.Where("farmer_id = ?", userID)
		}

		var harvests []models.Harvest
		if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&harvests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list harvests")
		}

		now := time.Now()
		out := make([]HarvestResponse, 0, len(harvests))
		for i := range harvests {
			out = append(out, toHarvestResponse(&harvests[i], now, true))
		}
		return c.JSON(out)
	}
}

// POST /api/harvests (farmer)
// Always creates in scheduled state. Supplying a bid time window only
// pre-selects it; bidding starts with an explicit start-bid call.
func CreateHarvestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateHarvestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.PlotID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "plot_id is required")
		}
		if body.TotalQuantity < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "total_quantity must be at least 1")
		}
		harvestDate, err := time.Parse("2006-01-02", body.HarvestDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "harvest_date must be in YYYY-MM-DD format")
		}

		var plot models.Plot
		if err := database.DB.First(&plot, body.PlotID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Plot not found")
		}
		if plot.FarmerID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Plot does not belong to you")
		}

		harvest := models.Harvest{
			PlotID:        plot.ID,
			FarmerID:      userID,
			HarvestDate:   harvestDate,
			TotalQuantity: body.TotalQuantity,
			Notes:         body.Notes,
			Status:        models.HarvestScheduled,
		}

		if body.BidTimeWindowID != nil {
			var window models.BidTimeWindow
			if err := database.DB.First(&window, *body.BidTimeWindowID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Bid time window not found")
			}
			harvest.BidTimeWindowID = &window.ID
		}
		if body.BidStartTime != "" {
			start, err := time.Parse(time.RFC3339, body.BidStartTime)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "bid_start_time must be RFC3339")
			}
			harvest.BidStartTime = &start
		}

		if err := database.DB.Create(&harvest).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create harvest")
		}

		return c.Status(fiber.StatusCreated).JSON(toHarvestResponse(&harvest, time.Now(), false))
	}
}

// GET /api/harvests/:id - open to any authenticated user.
func GetHarvestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid harvest id")
		}

		var harvest models.Harvest
		if err := database.DB.
			Preload("Plot").Preload("Bids").Preload("Bids.Buyer").Preload("BidTimeWindow").
			First(&harvest, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Harvest not found")
		}

		return c.JSON(toHarvestResponse(&harvest, time.Now(), true))
	}
}

// POST /api/harvests/:id/start-bid (owning farmer)
func StartBidHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid harvest id")
		}

		var body StartBidRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.BidTimeWindowID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "bid_time_window_id is required")
		}

		var harvest models.Harvest
		if err := database.DB.First(&harvest, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Harvest not found")
		}
		if err := authz.RequireOwner(c, &harvest); err != nil {
			return err
		}

		if err := StartBidding(database.DB, &harvest, body.BidTimeWindowID, time.Now()); err != nil {
			switch {
			case errors.Is(err, ErrWindowNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrNotStartable), errors.Is(err, ErrAlreadyActive):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not start bidding")
		}

		if err := database.DB.Preload("Plot").First(&harvest, harvest.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not reload harvest")
		}
		return c.JSON(toHarvestResponse(&harvest, time.Now(), false))
	}
}

// POST /api/harvests/:id/bids (buyer, not the harvest's own farmer)
func PlaceBidHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid harvest id")
		}

		var body PlaceBidRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.CategoryBids) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_bids must not be empty")
		}
		for _, cb := range body.CategoryBids {
			if cb.CategoryID == 0 || cb.Quantity <= 0 || cb.PricePerUnit <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Each category bid needs a category, a positive quantity and a positive price")
			}
		}
		if body.TotalAmount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "total_amount must be positive")
		}

		var harvest models.Harvest
		if err := database.DB.First(&harvest, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Harvest not found")
		}

		bid, err := PlaceBid(database.DB, &harvest, userID, body.CategoryBids, body.TotalAmount, body.Notes, time.Now())
		if err != nil {
			switch {
			case errors.Is(err, ErrOwnHarvest):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			case errors.Is(err, ErrNotBiddable):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not place bid")
		}

		return c.Status(fiber.StatusCreated).JSON(toBidResponse(bid))
	}
}

// POST /api/harvests/:id/select-winner (owning farmer)
func SelectWinnerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid harvest id")
		}

		var body SelectWinnerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.BidID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "bid_id is required")
		}

		var harvest models.Harvest
		if err := database.DB.First(&harvest, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Harvest not found")
		}
		if err := authz.RequireOwner(c, &harvest); err != nil {
			return err
		}

		winner, err := SelectWinner(database.DB, harvest.ID, body.BidID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotActive):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, ErrBidNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrBidMismatch):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not select winner")
		}

		if err := database.DB.Preload("Plot").Preload("Bids").Preload("Bids.Buyer").First(&harvest, harvest.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not reload harvest")
		}
		return c.JSON(fiber.Map{
			"harvest":     toHarvestResponse(&harvest, time.Now(), true),
			"winning_bid": toBidResponse(winner),
		})
	}
}

// GET /api/harvest-bids (buyer) - the caller's own bids, newest first.
func ListMyBidsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var bids []models.HarvestBid
		if err := database.DB.
			Where("buyer_id = ?", userID).
			Order("created_at desc").
			Find(&bids).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list bids")
		}

		out := make([]BidResponse, 0, len(bids))
		for i := range bids {
			out = append(out, toBidResponse(&bids[i]))
		}
		return c.JSON(out)
	}
}
