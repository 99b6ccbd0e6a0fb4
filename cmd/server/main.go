package main

import (
	"log"
	"strings"

	"harvestmarket-backend/internal/auth"
	"harvestmarket-backend/internal/byproduct"
	"harvestmarket-backend/internal/config"
	"harvestmarket-backend/internal/dashboard"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/harvest"
	"harvestmarket-backend/internal/models"
	"harvestmarket-backend/internal/plot"
	"harvestmarket-backend/internal/product"
	"harvestmarket-backend/internal/rating"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/dashboard", dashboard.DashboardHandler())

	// Plots (farmer only, owner-only down to view)
	plots := protected.Group("/plots")
	plots.Use(auth.RequireRole(models.RoleFarmer))
	plots.Get("/", plot.ListPlotsHandler())
	plots.Post("/", plot.CreatePlotHandler())
	plots.Get("/:id", plot.GetPlotHandler())
	plots.Put("/:id", plot.UpdatePlotHandler())
	plots.Delete("/:id", plot.DeletePlotHandler(cfg))
	plots.Post("/:id/images", plot.UploadPlotImageHandler(cfg))
	plots.Delete("/:id/images/:imageID", plot.DeletePlotImageHandler(cfg))

	// Harvests: open reads, farmer-gated creation, ownership-checked mutation
	protected.Get("/bid-time-windows", harvest.ListBidTimeWindowsHandler())
	protected.Get("/harvests", harvest.ListHarvestsHandler())
	protected.Post("/harvests", auth.RequireRole(models.RoleFarmer), harvest.CreateHarvestHandler())
	protected.Get("/harvests/:id", harvest.GetHarvestHandler())
	protected.Post("/harvests/:id/start-bid", auth.RequireRole(models.RoleFarmer), harvest.StartBidHandler())
	protected.Post("/harvests/:id/select-winner", auth.RequireRole(models.RoleFarmer), harvest.SelectWinnerHandler())
	protected.Post("/harvests/:id/bids", auth.RequireRole(models.RoleBuyer), harvest.PlaceBidHandler())
	protected.Get("/harvest-bids", auth.RequireRole(models.RoleBuyer), harvest.ListMyBidsHandler())

	// Products
	protected.Get("/products", product.ListProductsHandler())
	protected.Post("/products", auth.RequireRole(models.RoleFarmer), product.CreateProductHandler())
	protected.Get("/products/:id", product.GetProductHandler())
	protected.Put("/products/:id", auth.RequireRole(models.RoleFarmer), product.UpdateProductHandler())
	protected.Delete("/products/:id", auth.RequireRole(models.RoleFarmer), product.DeleteProductHandler())
	protected.Post("/products/:id/bids", auth.RequireRole(models.RoleBuyer), product.PlaceOfferHandler())
	protected.Get("/product-bids", auth.RequireRole(models.RoleBuyer), product.ListMyOffersHandler())
	protected.Post("/product-bids/:id/accept", auth.RequireRole(models.RoleFarmer), product.AcceptOfferHandler())
	protected.Post("/product-bids/:id/reject", auth.RequireRole(models.RoleFarmer), product.RejectOfferHandler())
	protected.Post("/product-bids/:id/cancel", auth.RequireRole(models.RoleBuyer), product.CancelOfferHandler())

	// Byproducts
	protected.Get("/byproducts", byproduct.ListByproductsHandler())
	protected.Post("/byproducts", auth.RequireRole(models.RoleFarmer), byproduct.CreateByproductHandler())
	protected.Get("/byproducts/:id", byproduct.GetByproductHandler())
	protected.Put("/byproducts/:id", auth.RequireRole(models.RoleFarmer), byproduct.UpdateByproductHandler())
	protected.Delete("/byproducts/:id", auth.RequireRole(models.RoleFarmer), byproduct.DeleteByproductHandler())
	protected.Post("/byproducts/:id/bids", auth.RequireRole(models.RoleBuyer), byproduct.PlaceOfferHandler())
	protected.Get("/byproduct-bids", auth.RequireRole(models.RoleBuyer), byproduct.ListMyOffersHandler())
	protected.Post("/byproduct-bids/:id/accept", auth.RequireRole(models.RoleFarmer), byproduct.AcceptOfferHandler())
	protected.Post("/byproduct-bids/:id/reject", auth.RequireRole(models.RoleFarmer), byproduct.RejectOfferHandler())
	protected.Post("/byproduct-bids/:id/cancel", auth.RequireRole(models.RoleBuyer), byproduct.CancelOfferHandler())

	// Ratings
	protected.Post("/ratings", rating.CreateRatingHandler())
	protected.Get("/users/:id/ratings", rating.ListUserRatingsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
