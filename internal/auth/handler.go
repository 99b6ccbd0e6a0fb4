package auth

import (
	"strings"

	"harvestmarket-backend/internal/config"
	"harvestmarket-backend/internal/database"
	"harvestmarket-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // "farmer" or "buyer"
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates the user together with the profile row matching the
// chosen role, in one transaction. A user never carries both profile kinds.
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}

		role := models.UserRole(body.Role)
		if role != models.RoleFarmer && role != models.RoleBuyer {
			return fiber.NewError(fiber.StatusBadRequest, "Role must be 'farmer' or 'buyer'")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         role,
			Phone:        body.Phone,
			Address:      body.Address,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if role == models.RoleFarmer {
				return tx.Create(&models.FarmerProfile{UserID: user.ID}).Error
			}
			return tx.Create(&models.BuyerProfile{UserID: user.ID}).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		response := fiber.Map{
			"user_id": user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"role":    user.Role,
			"phone":   user.Phone,
			"address": user.Address,
		}

		// Profile is role-exclusive; only the matching kind can exist.
		switch user.Role {
		case models.RoleFarmer:
			var profile models.FarmerProfile
			if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
				response["profile"] = fiber.Map{
					"kind":             "farmer",
					"bio":              profile.Bio,
					"farm_name":        profile.FarmName,
					"farm_size":        profile.FarmSize,
					"years_experience": profile.YearsExperience,
					"location":         profile.Location,
					"average_rating":   profile.AverageRating,
					"total_ratings":    profile.TotalRatings,
				}
			}
		case models.RoleBuyer:
			var profile models.BuyerProfile
			if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
				response["profile"] = fiber.Map{
					"kind":           "buyer",
					"bio":            profile.Bio,
					"company_name":   profile.CompanyName,
					"business_type":  profile.BusinessType,
					"average_rating": profile.AverageRating,
					"total_ratings":  profile.TotalRatings,
				}
			}
		}

		return c.JSON(response)
	}
}
