package byproduct

import (
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/authz"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ByproductRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Status       string  `json:"status"`
}

type ByproductResponse struct {
	ID           uint    `json:"id"`
	FarmerID     uint    `json:"farmer_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

func validStatus(s string) bool {
	switch models.ListingStatus(s) {
	case models.ListingAvailable, models.ListingSold, models.ListingReserved:
		return true
	}
	return false
}

func toResponse(b *models.Byproduct) ByproductResponse {
	return ByproductResponse{
		ID:           b.ID,
		FarmerID:     b.FarmerID,
		Name:         b.Name,
		Description:  b.Description,
		Quantity:     b.Quantity,
		Unit:         b.Unit,
		PricePerUnit: b.PricePerUnit,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}

func validate(body *ByproductRequest) error {
	if body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if body.Unit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "unit is required")
	}
	if body.Quantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must not be negative")
	}
	if body.PricePerUnit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price_per_unit must not be negative")
	}
	if !validStatus(body.Status) {
		return fiber.NewError(fiber.StatusBadRequest, "status must be available, sold or reserved")
	}
	return nil
}

// GET /api/byproducts - farmers see their own listings, buyers see all.
func ListByproductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		role, err := auth.Role(c)
		if err != nil {
			return err
		}

		query := database.DB.Order("created_at desc")
		if role == models.RoleFarmer {
			query = query.Where("farmer_id = ?", userID)
		}

		var byproducts []models.Byproduct
		if err := query.Find(&byproducts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list byproducts")
		}

		out := make([]ByproductResponse, 0, len(byproducts))
		for i := range byproducts {
			out = append(out, toResponse(&byproducts[i]))
		}
		return c.JSON(out)
	}
}

// POST /api/byproducts (farmer)
func CreateByproductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body ByproductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate(&body); err != nil {
			return err
		}

		byproduct := models.Byproduct{
			FarmerID:     userID,
			Name:         body.Name,
			Description:  body.Description,
			Quantity:     body.Quantity,
			Unit:         body.Unit,
			PricePerUnit: body.PricePerUnit,
			Status:       models.ListingStatus(body.Status),
		}
		if err := database.DB.Create(&byproduct).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create byproduct")
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(&byproduct))
	}
}

// GET /api/byproducts/:id - open to any authenticated user.
func GetByproductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid byproduct id")
		}

		var byproduct models.Byproduct
		if err := database.DB.First(&byproduct, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Byproduct not found")
		}
		return c.JSON(toResponse(&byproduct))
	}
}

// PUT /api/byproducts/:id (owning farmer)
func UpdateByproductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid byproduct id")
		}

		var byproduct models.Byproduct
		if err := database.DB.First(&byproduct, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Byproduct not found")
		}
		if err := authz.RequireOwner(c, &byproduct); err != nil {
			return err
		}

		var body ByproductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate(&body); err != nil {
			return err
		}

		byproduct.Name = body.Name
		byproduct.Description = body.Description
		byproduct.Quantity = body.Quantity
		byproduct.Unit = body.Unit
		byproduct.PricePerUnit = body.PricePerUnit
		byproduct.Status = models.ListingStatus(body.Status)

		if err := database.DB.Save(&byproduct).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update byproduct")
		}
		return c.JSON(toResponse(&byproduct))
	}
}

// DELETE /api/byproducts/:id (owning farmer)
func DeleteByproductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid byproduct id")
		}

		var byproduct models.Byproduct
		if err := database.DB.First(&byproduct, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Byproduct not found")
		}
		if err := authz.RequireOwner(c, &byproduct); err != nil {
			return err
		}

		if err := database.DB.Delete(&byproduct).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete byproduct")
		}
		return c.JSON(fiber.Map{"deleted": byproduct.ID})
	}
}
