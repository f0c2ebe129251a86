package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
)

// HandleAdminListUsers returns a page of user accounts.
func HandleAdminListUsers(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 25)
	if limit < 1 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	users, err := repo.List(offset, limit)
	if err != nil {
		fiberlog.Errorf("[Admin] user list failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to load users")
	}
	total, err := repo.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to count users")
	}

	return c.JSON(fiber.Map{"users": users, "total": total, "offset": offset, "limit": limit})
}

// HandleAdminUpdateUserRole changes a user's role.
// Request: JSON { "role": "user" | "admin" }
func HandleAdminUpdateUserRole(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}
	if req.Role != models.ROLE_USER && req.Role != models.ROLE_ADMIN {
		return jsonError(c, fiber.StatusUnprocessableEntity, "role must be user or admin")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load user")
	}

	user.Role = req.Role
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update user")
	}

	fiberlog.Infof("[Admin] user %d role changed to %s", user.ID, user.Role)
	return c.JSON(fiber.Map{"id": user.ID, "role": user.Role})
}

// HandleAdminUpdateUserStatus enables or disables an account.
// Request: JSON { "status": "active" | "inactive" | "disabled" }
func HandleAdminUpdateUserStatus(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}
	switch req.Status {
	case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_DISABLED:
	default:
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid status")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load user")
	}

	user.Status = req.Status
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return c.JSON(fiber.Map{"id": user.ID, "status": user.Status})
}

// HandleAdminAssignSubscription grants a plan to a user directly, bypassing
// payment. Any other active entitlement the user holds is cancelled first.
// Request: JSON { "subscription_id": uint, "duration_months": int }
func HandleAdminAssignSubscription(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	var req struct {
		SubscriptionID uint `json:"subscription_id"`
		DurationMonths int  `json:"duration_months"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}
	if req.DurationMonths == 0 {
		req.DurationMonths = 1
	}

	factory := repository.GetGlobalFactory()
	if _, err := factory.GetUserRepository().GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load user")
	}
	sub, err := factory.GetSubscriptionRepository().GetByID(req.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "subscription not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load subscription")
	}

	us, err := getPaymentService().AssignSubscription(id, sub.ID, req.DurationMonths)
	if err != nil {
		fiberlog.Errorf("[Admin] assigning subscription %d to user %d failed: %v", sub.ID, id, err)
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	fiberlog.Infof("[Admin] user %d assigned subscription %d for %d months", id, sub.ID, req.DurationMonths)
	return c.Status(fiber.StatusCreated).JSON(us)
}

// HandleAdminRevokeSubscription cancels a user's active entitlements.
func HandleAdminRevokeSubscription(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := getPaymentService().RevokeSubscription(id); err != nil {
		fiberlog.Errorf("[Admin] revoking subscriptions for user %d failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to revoke subscription")
	}

	fiberlog.Infof("[Admin] user %d subscriptions revoked", id)
	return c.JSON(fiber.Map{"status": "revoked"})
}
