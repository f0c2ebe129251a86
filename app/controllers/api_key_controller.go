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

// HandleCreateApiKey issues a new credential pair for the caller. The secret
// appears in this response only; afterwards only its hash exists.
// Request: JSON { "name": string }
func HandleCreateApiKey(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return jsonError(c, fiber.StatusBadRequest, "name is required")
	}

	ak, secret, err := models.NewApiKey(user.ID, name)
	if err != nil {
		fiberlog.Errorf("[ApiKey] generation failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to generate api key")
	}

	if err := repository.GetGlobalFactory().GetApiKeyRepository().Create(ak); err != nil {
		fiberlog.Errorf("[ApiKey] persist failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to create api key")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         ak.ID,
		"name":       ak.Name,
		"key":        ak.Key,
		"secret":     secret,
		"created_at": ak.CreatedAt,
	})
}

// HandleListApiKeys lists the caller's keys. Secrets are not included.
func HandleListApiKeys(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	keys, err := repository.GetGlobalFactory().GetApiKeyRepository().ListByUser(user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to load api keys")
	}

	items := make([]fiber.Map, 0, len(keys))
	for _, ak := range keys {
		items = append(items, fiber.Map{
			"id":           ak.ID,
			"name":         ak.Name,
			"key":          ak.Key,
			"is_active":    ak.IsActive,
			"last_used_at": ak.LastUsedAt,
			"created_at":   ak.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"api_keys": items})
}

// HandleRevokeApiKey deactivates one of the caller's keys.
func HandleRevokeApiKey(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	repo := repository.GetGlobalFactory().GetApiKeyRepository()
	ak, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "api key not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load api key")
	}
	if ak.UserID != user.ID {
		return jsonError(c, fiber.StatusNotFound, "api key not found")
	}

	ak.IsActive = false
	if err := repo.Update(ak); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to revoke api key")
	}

	fiberlog.Infof("[ApiKey] key %d revoked by user %d", ak.ID, user.ID)
	return c.JSON(fiber.Map{"status": "revoked"})
}

// HandleDeleteApiKey removes one of the caller's keys entirely.
func HandleDeleteApiKey(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	repo := repository.GetGlobalFactory().GetApiKeyRepository()
	ak, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "api key not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load api key")
	}
	if ak.UserID != user.ID {
		return jsonError(c, fiber.StatusNotFound, "api key not found")
	}

	if err := repo.Delete(ak.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete api key")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
