package byproduct

import (
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Byproduct bids mirror product bids: single pending offers decided by the
// farmer or cancelled by the buyer.

type OfferRequest struct {
	BidAmount  float64 `json:"bid_amount"`
	Quantity   float64 `json:"quantity"`
	Notes      string  `json:"notes"`
	BidEndTime string  `json:"bid_end_time"` // RFC3339, optional
}

type OfferResponse struct {
	ID          uint    `json:"id"`
	ByproductID uint    `json:"byproduct_id"`
	BuyerID     uint    `json:"buyer_id"`
	BidAmount   float64 `json:"bid_amount"`
	Quantity    float64 `json:"quantity"`
	Status      string  `json:"status"`
	Notes       string  `json:"notes"`
	BidEndTime  *string `json:"bid_end_time"`
	CreatedAt   string  `json:"created_at"`
}

func toOfferResponse(b *models.ByproductBid) OfferResponse {
	resp := OfferResponse{
		ID:          b.ID,
		ByproductID: b.ByproductID,
		BuyerID:     b.BuyerID,
		BidAmount:   b.BidAmount,
		Quantity:    b.Quantity,
		Status:      string(b.Status),
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	if b.BidEndTime != nil {
		s := b.BidEndTime.Format(time.RFC3339)
		resp.BidEndTime = &s
	}
	return resp
}

// POST /api/byproducts/:id/bids (buyer)
func PlaceOfferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid byproduct id")
		}

		var body OfferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.BidAmount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "bid_amount must be positive")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}

		var byproduct models.Byproduct
		if err := database.DB.First(&byproduct, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Byproduct not found")
		}
		if byproduct.FarmerID == userID {
			return fiber.NewError(fiber.StatusForbidden, "You cannot bid on your own byproduct")
		}
		if byproduct.Status != models.ListingAvailable {
			return fiber.NewError(fiber.StatusConflict, "Byproduct is not available")
		}

		bid := models.ByproductBid{
			ByproductID: byproduct.ID,
			BuyerID:     userID,
			BidAmount:   body.BidAmount,
			Quantity:    body.Quantity,
			Status:      models.OfferPending,
			Notes:       body.Notes,
		}
		if body.BidEndTime != "" {
			end, err := time.Parse(time.RFC3339, body.BidEndTime)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "bid_end_time must be RFC3339")
			}
			bid.BidEndTime = &end
		}

		if err := database.DB.Create(&bid).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not place bid")
		}
		return c.Status(fiber.StatusCreated).JSON(toOfferResponse(&bid))
	}
}

// GET /api/byproduct-bids (buyer) - the caller's own offers.
func ListMyOffersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var bids []models.ByproductBid
		if err := database.DB.
			Where("buyer_id = ?", userID).
			Order("created_at desc").
			Find(&bids).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list bids")
		}

		out := make([]OfferResponse, 0, len(bids))
		for i := range bids {
			out = append(out, toOfferResponse(&bids[i]))
		}
		return c.JSON(out)
	}
}

func resolveOffer(c *fiber.Ctx) (*models.ByproductBid, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid bid id")
	}
	var bid models.ByproductBid
	if err := database.DB.Preload("Byproduct").First(&bid, id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Bid not found")
	}
	return &bid, nil
}

func decideOffer(c *fiber.Ctx, decision models.OfferStatus) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	bid, err := resolveOffer(c)
	if err != nil {
		return err
	}
	if bid.Byproduct.FarmerID != userID {
		return fiber.NewError(fiber.StatusForbidden, "You do not own this byproduct")
	}
	if bid.Status != models.OfferPending {
		return fiber.NewError(fiber.StatusConflict, "Bid has already been decided")
	}

	bid.Status = decision
	if err := database.DB.Model(bid).Update("status", decision).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not update bid")
	}
	return c.JSON(toOfferResponse(bid))
}

// POST /api/byproduct-bids/:id/accept (owning farmer)
func AcceptOfferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return decideOffer(c, models.OfferAccepted)
	}
}

// POST /api/byproduct-bids/:id/reject (owning farmer)
func RejectOfferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return decideOffer(c, models.OfferRejected)
	}
}

// POST /api/byproduct-bids/:id/cancel (bidding buyer, while pending)
func CancelOfferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		bid, err := resolveOffer(c)
		if err != nil {
			return err
		}
		if bid.BuyerID != userID {
			return fiber.NewError(fiber.StatusForbidden, "This is not your bid")
		}
		if bid.Status != models.OfferPending {
			return fiber.NewError(fiber.StatusConflict, "Only pending bids can be cancelled")
		}

		bid.Status = models.OfferCancelled
		if err := database.DB.Model(bid).Update("status", models.OfferCancelled).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not cancel bid")
		}
		return c.JSON(toOfferResponse(bid))
	}
}
