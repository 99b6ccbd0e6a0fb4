package product

import (
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/authz"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductRequest struct {
	HarvestID    uint    `json:"harvest_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Status       string  `json:"status"`
}

type ProductResponse struct {
	ID           uint    `json:"id"`
	FarmerID     uint    `json:"farmer_id"`
	HarvestID    uint    `json:"harvest_id"`
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

func toResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		FarmerID:     p.FarmerID,
		HarvestID:    p.HarvestID,
		Name:         p.Name,
		Description:  p.Description,
		Quantity:     p.Quantity,
		Unit:         p.Unit,
		PricePerUnit: p.PricePerUnit,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func validateListing(name, unit string, quantity, price float64, status string) error {
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if unit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "unit is required")
	}
	if quantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must not be negative")
	}
	if price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price_per_unit must not be negative")
	}
	if !validStatus(status) {
		return fiber.NewError(fiber.StatusBadRequest, "status must be available, sold or reserved")
	}
	return nil
}

// GET /api/products - farmers see their own listings, buyers see all.
func ListProductsHandler() fiber.Handler {
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

		var products []models.Product
		if err := query.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		out := make([]ProductResponse, 0, len(products))
		for i := range products {
			out = append(out, toResponse(&products[i]))
		}
		return c.JSON(out)
	}
}

// POST /api/products (farmer) - products derive from a completed harvest the
// farmer owns.
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validateListing(body.Name, body.Unit, body.Quantity, body.PricePerUnit, body.Status); err != nil {
			return err
		}

		var harvest models.Harvest
		if err := database.DB.First(&harvest, body.HarvestID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Harvest not found")
		}
		if harvest.FarmerID != userID {
			return fiber.NewError(fiber.StatusForbidden, "Harvest does not belong to you")
		}
		if harvest.Status != models.HarvestCompleted {
			return fiber.NewError(fiber.StatusConflict, "Products can only be listed from a completed harvest")
		}

		product := models.Product{
			FarmerID:     userID,
			HarvestID:    harvest.ID,
			Name:         body.Name,
			Description:  body.Description,
			Quantity:     body.Quantity,
			Unit:         body.Unit,
			PricePerUnit: body.PricePerUnit,
			Status:       models.ListingStatus(body.Status),
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&product))
	}
}

// GET /api/products/:id - open to any authenticated user.
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return c.JSON(toResponse(&product))
	}
}

// PUT /api/products/:id (owning farmer)
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		if err := authz.RequireOwner(c, &product); err != nil {
			return err
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validateListing(body.Name, body.Unit, body.Quantity, body.PricePerUnit, body.Status); err != nil {
			return err
		}

		product.Name = body.Name
		product.Description = body.Description
		product.Quantity = body.Quantity
		product.Unit = body.Unit
		product.PricePerUnit = body.PricePerUnit
		product.Status = models.ListingStatus(body.Status)

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}
		return c.JSON(toResponse(&product))
	}
}

// DELETE /api/products/:id (owning farmer)
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		if err := authz.RequireOwner(c, &product); err != nil {
			return err
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}
		return c.JSON(fiber.Map{"deleted": product.ID})
	}
}
