package plot

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/authz"
	"harvestmarket-backend/internal/config"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlotRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Size                float64  `json:"size"`
	Location            string   `json:"location"`
	TreeCount           *int     `json:"tree_count"`
	PotentialHarvest    *int     `json:"potential_harvest"`
	HarvestFrequency    string   `json:"harvest_frequency"`
	CustomFrequency     string   `json:"custom_frequency"`
	IsHarvestSold       *bool    `json:"is_harvest_sold"`
	CanDeliver          *bool    `json:"can_deliver"`
	AvailableCategories []string `json:"available_categories"`
}

type PlotImageResponse struct {
	ID        uint   `json:"id"`
	ImagePath string `json:"image_path"`
	Caption   string `json:"caption"`
	Order     int    `json:"order"`
}

type PlotResponse struct {
	ID                  uint                `json:"id"`
	FarmerID            uint                `json:"farmer_id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	Size                float64             `json:"size"`
	Location            string              `json:"location"`
	TreeCount           *int                `json:"tree_count"`
	PotentialHarvest    *int                `json:"potential_harvest"`
	HarvestFrequency    string              `json:"harvest_frequency"`
	CustomFrequency     string              `json:"custom_frequency"`
	IsHarvestSold       bool                `json:"is_harvest_sold"`
	CanDeliver          bool                `json:"can_deliver"`
	AvailableCategories []string            `json:"available_categories"`
	Images              []PlotImageResponse `json:"images"`
	CreatedAt           string              `json:"created_at"`
}

func validFrequency(f string) bool {
	switch models.HarvestFrequency(f) {
	case models.FrequencyWeekly, models.FrequencyBiweekly, models.FrequencyMonthly, models.FrequencyCustom:
		return true
	}
	return false
}

func toPlotResponse(p *models.Plot) PlotResponse {
	resp := PlotResponse{
		ID:               p.ID,
		FarmerID:         p.FarmerID,
		Name:             p.Name,
		Description:      p.Description,
		Size:             p.Size,
		Location:         p.Location,
		TreeCount:        p.TreeCount,
		PotentialHarvest: p.PotentialHarvest,
		HarvestFrequency: string(p.HarvestFrequency),
		CustomFrequency:  p.CustomFrequency,
		IsHarvestSold:    p.IsHarvestSold,
		CanDeliver:       p.CanDeliver,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if len(p.AvailableCategories) > 0 {
		_ = json.Unmarshal(p.AvailableCategories, &resp.AvailableCategories)
	}
	resp.Images = make([]PlotImageResponse, 0, len(p.Images))
	for _, img := range p.Images {
		resp.Images = append(resp.Images, PlotImageResponse{
			ID:        img.ID,
			ImagePath: img.ImagePath,
			Caption:   img.Caption,
			Order:     img.Order,
		})
	}
	return resp
}

// applyRequest validates the body and copies it onto the model. Used by both
// create and update; update semantics are whole-object, like the source forms.
func applyRequest(p *models.Plot, body *PlotRequest) error {
	if body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if body.Size < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "size must not be negative")
	}
	if body.Location == "" {
		return fiber.NewError(fiber.StatusBadRequest, "location is required")
	}
	if !validFrequency(body.HarvestFrequency) {
		return fiber.NewError(fiber.StatusBadRequest, "harvest_frequency must be weekly, biweekly, monthly or custom")
	}

	p.Name = body.Name
	p.Description = body.Description
	p.Size = body.Size
	p.Location = body.Location
	p.TreeCount = body.TreeCount
	p.PotentialHarvest = body.PotentialHarvest
	p.HarvestFrequency = models.HarvestFrequency(body.HarvestFrequency)
	p.CustomFrequency = body.CustomFrequency
	if body.IsHarvestSold != nil {
		p.IsHarvestSold = *body.IsHarvestSold
	}
	if body.CanDeliver != nil {
		p.CanDeliver = *body.CanDeliver
	}
	if body.AvailableCategories != nil {
		raw, err := json.Marshal(body.AvailableCategories)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "available_categories is invalid")
		}
		p.AvailableCategories = datatypes.JSON(raw)
	}
	return nil
}

// loadOwnedPlot fetches the plot and enforces ownership. Plots are the one
// owner-only *view* resource, so foreign access is a 403, not a 404.
func loadOwnedPlot(c *fiber.Ctx, preloadImages bool) (*models.Plot, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid plot id")
	}

	query := database.DB
	if preloadImages {
		query = query.Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order asc")
		})
	}

	var plot models.Plot
	if err := query.First(&plot, id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Plot not found")
	}
	if err := authz.RequireOwner(c, &plot); err != nil {
		return nil, err
	}
	return &plot, nil
}

// GET /api/plots (farmer, own only)
func ListPlotsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var plots []models.Plot
		if err := database.DB.
			Where("farmer_id = ?", userID).
			Preload("Images").
			Order("created_at desc").
			Find(&plots).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list plots")
		}

		out := make([]PlotResponse, 0, len(plots))
		for i := range plots {
			out = append(out, toPlotResponse(&plots[i]))
		}
		return c.JSON(out)
	}
}

// POST /api/plots (farmer)
func CreatePlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body PlotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		plot := models.Plot{FarmerID: userID, IsHarvestSold: true}
		if err := applyRequest(&plot, &body); err != nil {
			return err
		}

		if err := database.DB.Create(&plot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create plot")
		}

		return c.Status(fiber.StatusCreated).JSON(toPlotResponse(&plot))
	}
}

// GET /api/plots/:id (owning farmer)
func GetPlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		plot, err := loadOwnedPlot(c, true)
		if err != nil {
			return err
		}
		return c.JSON(toPlotResponse(plot))
	}
}

// PUT /api/plots/:id (owning farmer)
func UpdatePlotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		plot, err := loadOwnedPlot(c, false)
		if err != nil {
			return err
		}

		var body PlotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := applyRequest(plot, &body); err != nil {
			return err
		}

		if err := database.DB.Save(plot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update plot")
		}
		return c.JSON(toPlotResponse(plot))
	}
}

// DELETE /api/plots/:id (owning farmer) - image rows cascade; files are
// removed best-effort.
func DeletePlotHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plot, err := loadOwnedPlot(c, true)
		if err != nil {
			return err
		}

		if err := database.DB.Select("Images").Delete(plot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete plot")
		}

		for _, img := range plot.Images {
			if err := os.Remove(img.ImagePath); err != nil && !os.IsNotExist(err) {
				log.Printf("could not remove plot image %s: %v", img.ImagePath, err)
			}
		}

		return c.JSON(fiber.Map{"deleted": plot.ID})
	}
}

// POST /api/plots/:id/images (owning farmer, multipart field "image")
func UploadPlotImageHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plot, err := loadOwnedPlot(c, false)
		if err != nil {
			return err
		}

		file, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image file is required")
		}

		if err := os.MkdirAll(cfg.PlotImagePath, 0o755); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not prepare image directory")
		}

		// Never trust the client filename; keep only its extension.
		ext := filepath.Ext(file.Filename)
		name := uuid.NewString() + ext
		path := filepath.Join(cfg.PlotImagePath, name)
		if err := c.SaveFile(file, path); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save image")
		}

		var maxOrder int
		database.DB.Model(&models.PlotImage{}).
			Where("plot_id = ?", plot.ID).
			Select("COALESCE(MAX(display_order), -1)").
			Scan(&maxOrder)

		image := models.PlotImage{
			PlotID:    plot.ID,
			ImagePath: path,
			Caption:   c.FormValue("caption"),
			Order:     maxOrder + 1,
		}
		if err := database.DB.Create(&image).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save image record")
		}

		return c.Status(fiber.StatusCreated).JSON(PlotImageResponse{
			ID:        image.ID,
			ImagePath: image.ImagePath,
			Caption:   image.Caption,
			Order:     image.Order,
		})
	}
}

// DELETE /api/plots/:id/images/:imageID (owning farmer)
func DeletePlotImageHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plot, err := loadOwnedPlot(c, false)
		if err != nil {
			return err
		}

		imageID, err := c.ParamsInt("imageID")
		if err != nil || imageID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid image id")
		}

		var image models.PlotImage
		if err := database.DB.
			Where("id = ? AND plot_id = ?", imageID, plot.ID).
			First(&image).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Image not found")
		}

		if err := database.DB.Delete(&image).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete image")
		}
		if err := os.Remove(image.ImagePath); err != nil && !os.IsNotExist(err) {
			log.Printf("could not remove plot image %s: %v", image.ImagePath, err)
		}

		return c.JSON(fiber.Map{"deleted": image.ID})
	}
}
