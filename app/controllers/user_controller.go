package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
)

// HandleGetProfile returns the caller's account details.
func HandleGetProfile(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return c.JSON(fiber.Map{
		"id":                 user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"role":               user.Role,
		"status":             user.Status,
		"preferred_ai_model": user.PreferredAiModel,
		"created_at":         user.CreatedAt,
	})
}

// HandleUpdatePreferences updates the caller's settings.
// Request: JSON { "preferred_ai_model": string }
func HandleUpdatePreferences(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		PreferredAiModel string `json:"preferred_ai_model"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}

	preferred := strings.TrimSpace(req.PreferredAiModel)
	if preferred != "" {
		if _, err := repository.GetGlobalFactory().GetAiModelRepository().GetActiveByName(preferred); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return jsonError(c, fiber.StatusUnprocessableEntity, "unknown ai model")
			}
			return jsonError(c, fiber.StatusInternalServerError, "failed to validate ai model")
		}
	}

	user.PreferredAiModel = preferred
	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		fiberlog.Errorf("[User] preference update failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to update preferences")
	}

	return c.JSON(fiber.Map{"preferred_ai_model": user.PreferredAiModel})
}

// HandleAdminCreateUser provisions a new account.
// Request: JSON { "name": string, "email": string, "password": string }
func HandleAdminCreateUser(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := repo.GetByEmail(user.Email); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "email already in use")
	}

	if err := repo.Create(user); err != nil {
		fiberlog.Errorf("[Admin] user create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to create user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     user.ID,
		"name":   user.Name,
		"email":  user.Email,
		"role":   user.Role,
		"status": user.Status,
	})
}
