package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/parsemint/parsemint/app/controllers"
	"github.com/parsemint/parsemint/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Public catalog
	v1.Get("/subscriptions", controllers.HandleListSubscriptions)

	// Everything below requires API credentials
	auth := v1.Group("", middleware.APIKeyAuthMiddleware())

	// Account
	auth.Get("/me", controllers.HandleGetProfile)
	auth.Patch("/me/preferences", controllers.HandleUpdatePreferences)
	auth.Get("/me/subscription", controllers.HandleMySubscription)

	// API credentials
	auth.Post("/api-keys", controllers.HandleCreateApiKey)
	auth.Get("/api-keys", controllers.HandleListApiKeys)
	auth.Post("/api-keys/:id/revoke", controllers.HandleRevokeApiKey)
	auth.Delete("/api-keys/:id", controllers.HandleDeleteApiKey)

	// Payments
	auth.Post("/payments/order", controllers.HandleCreatePaymentOrder)
	auth.Get("/payments", controllers.HandleListPayments)
	auth.Get("/payments/:orderID/status", controllers.HandlePaymentStatus)

	// PDF parsing
	auth.Post("/pdf-parse", controllers.HandlePdfParse)
	auth.Get("/pdf-parse", controllers.HandlePdfParseHistory)
	auth.Get("/pdf-parse/:id/status", controllers.HandlePdfParseStatus)

	// Admin surface
	admin := auth.Group("/admin", middleware.RequireAdmin())

	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Post("/users", controllers.HandleAdminCreateUser)
	admin.Patch("/users/:id/role", controllers.HandleAdminUpdateUserRole)
	admin.Patch("/users/:id/status", controllers.HandleAdminUpdateUserStatus)
	admin.Post("/users/:id/subscription", controllers.HandleAdminAssignSubscription)
	admin.Delete("/users/:id/subscription", controllers.HandleAdminRevokeSubscription)

	admin.Post("/subscriptions", controllers.HandleAdminCreateSubscription)
	admin.Patch("/subscriptions/:id", controllers.HandleAdminUpdateSubscription)
	admin.Delete("/subscriptions/:id", controllers.HandleAdminDisableSubscription)

	admin.Get("/ai-models", controllers.HandleAdminListAiModels)
	admin.Post("/ai-models", controllers.HandleAdminCreateAiModel)
	admin.Patch("/ai-models/:id", controllers.HandleAdminUpdateAiModel)
	admin.Post("/ai-models/:id/toggle", controllers.HandleAdminToggleAiModel)
	admin.Delete("/ai-models/:id", controllers.HandleAdminDeleteAiModel)
}
