package rating

import (
	"errors"
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateRatingRequest struct {
	RatableType string `json:"ratable_type"` // harvest, product_bid, byproduct_bid
	RatableID   uint   `json:"ratable_id"`
	RatedID     uint   `json:"rated_id"`
	Rating      int    `json:"rating"` // 1-5
	Review      string `json:"review"`
}

type RatingResponse struct {
	ID          uint   `json:"id"`
	RaterID     uint   `json:"rater_id"`
	RatedID     uint   `json:"rated_id"`
	RatableType string `json:"ratable_type"`
	RatableID   uint   `json:"ratable_id"`
	Rating      int    `json:"rating"`
	Review      string `json:"review"`
	CreatedAt   string `json:"created_at"`
}

func toResponse(r *models.Rating) RatingResponse {
	return RatingResponse{
		ID:          r.ID,
		RaterID:     r.RaterID,
		RatedID:     r.RatedID,
		RatableType: string(r.RatableType),
		RatableID:   r.RatableID,
		Rating:      r.Rating,
		Review:      r.Review,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

// ratableExists resolves the tagged union {kind, id} against the table the
// kind names.
func ratableExists(db *gorm.DB, kind models.RatableType, id uint) (bool, error) {
	var count int64
	var err error
	switch kind {
	case models.RatableHarvest:
		err = db.Model(&models.Harvest{}).Where("id = ?", id).Count(&count).Error
	case models.RatableProductBid:
		err = db.Model(&models.ProductBid{}).Where("id = ?", id).Count(&count).Error
	case models.RatableByproductBid:
		err = db.Model(&models.ByproductBid{}).Where("id = ?", id).Count(&count).Error
	default:
		return false, nil
	}
	return count > 0, err
}

// refreshProfileAggregates recomputes the rated user's stored average inside
// the same transaction that inserted the rating.
func refreshProfileAggregates(tx *gorm.DB, ratedID uint) error {
	var stats struct {
		Avg   float64
		Count int64
	}
	if err := tx.Model(&models.Rating{}).
		Where("rated_id = ?", ratedID).
		Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
		Scan(&stats).Error; err != nil {
		return err
	}

	var user models.User
	if err := tx.First(&user, ratedID).Error; err != nil {
		return err
	}

	updates := map[string]any{"average_rating": stats.Avg, "total_ratings": stats.Count}
	if user.Role == models.RoleFarmer {
		return tx.Model(&models.FarmerProfile{}).Where("user_id = ?", ratedID).Updates(updates).Error
	}
	return tx.Model(&models.BuyerProfile{}).Where("user_id = ?", ratedID).Updates(updates).Error
}

// POST /api/ratings - one rating per (rater, ratable) pair.
func CreateRatingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateRatingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Rating < 1 || body.Rating > 5 {
			return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
		}

		kind := models.RatableType(body.RatableType)
		switch kind {
		case models.RatableHarvest, models.RatableProductBid, models.RatableByproductBid:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "ratable_type must be harvest, product_bid or byproduct_bid")
		}

		if body.RatedID == userID {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot rate yourself")
		}

		var rated models.User
		if err := database.DB.First(&rated, body.RatedID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rated user not found")
		}

		exists, err := ratableExists(database.DB, kind, body.RatableID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not verify rating target")
		}
		if !exists {
			return fiber.NewError(fiber.StatusNotFound, "Rating target not found")
		}

		var count int64
		database.DB.Model(&models.Rating{}).
			Where("rater_id = ? AND ratable_type = ? AND ratable_id = ?", userID, kind, body.RatableID).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "You have already rated this transaction")
		}

		rating := models.Rating{
			RaterID:     userID,
			RatedID:     rated.ID,
			RatableType: kind,
			RatableID:   body.RatableID,
			Rating:      body.Rating,
			Review:      body.Review,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
			return refreshProfileAggregates(tx, rated.ID)
		})
		if err != nil {
			// The unique index is the backstop for two concurrent submissions.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "You have already rated this transaction")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save rating")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&rating))
	}
}

// GET /api/users/:id/ratings - ratings a user has received.
func ListUserRatingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
		}

		var user models.User
		if err := database.DB.First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var ratings []models.Rating
		if err := database.DB.
			Where("rated_id = ?", user.ID).
			Order("created_at desc").
			Find(&ratings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list ratings")
		}

		out := make([]RatingResponse, 0, len(ratings))
		for i := range ratings {
			out = append(out, toResponse(&ratings[i]))
		}
		return c.JSON(out)
	}
}
