package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
	"github.com/parsemint/parsemint/internal/pkg/cache"
	"github.com/parsemint/parsemint/internal/pkg/usercontext"
)

// lastUsedThrottle limits how often the last-used timestamp is written per key.
const lastUsedThrottle = time.Minute

// APIKeyAuthMiddleware authenticates requests carrying the key/secret header
// pair and loads the owning user into the request context.
func APIKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get("X-API-Key"))
		secret := strings.TrimSpace(c.Get("X-API-Secret"))
		if key == "" || secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API credentials"})
		}

		repo := repository.GetGlobalFactory().GetApiKeyRepository()
		apiKey, err := repo.GetActiveByKey(key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
			}
			fiberlog.Error(fmt.Sprintf("api key lookup failed: %v", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		if !apiKey.VerifySecret(secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}

		user := apiKey.User
		if user == nil || !user.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
		}

		touchLastUsed(apiKey)

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Name,
			IsLoggedIn: true,
			IsAdmin:    user.IsAdmin(),
			ApiKeyID:   apiKey.ID,
		})
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyUsername, user.Name)
		c.Locals(usercontext.KeyIsAdmin, user.IsAdmin())

		return c.Next()
	}
}

// RequireAdmin rejects requests whose authenticated user lacks the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := usercontext.GetUserContext(c)
		if !user.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin role required"})
		}
		return c.Next()
	}
}

// touchLastUsed refreshes the key's last-used timestamp best-effort, throttled
// through the cache so hot keys don't rewrite the row on every request.
func touchLastUsed(apiKey *models.ApiKey) {
	throttleKey := fmt.Sprintf("apikey:lastused:%d", apiKey.ID)
	if ok, err := cache.SetNX(throttleKey, 1, lastUsedThrottle); err != nil || !ok {
		return
	}

	apiKey.MarkUsed()
	if err := repository.GetGlobalFactory().GetApiKeyRepository().Update(apiKey); err != nil {
		fiberlog.Warn(fmt.Sprintf("failed to update api key usage timestamp for key %d: %v", apiKey.ID, err))
	}
}
