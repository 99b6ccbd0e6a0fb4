// Package authz holds the ownership checks shared by the resource handlers.
// Role gating happens at the route level (auth.RequireRole); everything here
// is about who owns a specific row.
package authz

import (
	"harvestmarket-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// Owned is any resource tied to a single farmer for its whole lifecycle.
type Owned interface {
	OwnerID() uint
}

// RequireOwner rejects the request unless the authenticated user owns the
// resource. Used for update/delete on every resource and for the
// harvest-specific mutations (start-bid, select-winner).
func RequireOwner(c *fiber.Ctx, resource Owned) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	if resource.OwnerID() != userID {
		return fiber.NewError(fiber.StatusForbidden, "You do not own this resource")
	}
	return nil
}

// IsOwner is the non-failing variant, for handlers that branch on ownership
// instead of rejecting.
func IsOwner(c *fiber.Ctx, resource Owned) bool {
	userID, err := auth.UserID(c)
	if err != nil {
		return false
	}
	return resource.OwnerID() == userID
}
