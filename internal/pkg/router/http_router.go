package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parsemint/parsemint/app/controllers"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Payment gateway redirects. These arrive from the user's browser after
	// checkout; identity comes from the signed gateway parameters, not from
	// API credentials.
	app.Get("/payments/success", controllers.HandlePaymentSuccess)
	app.Post("/payments/success", controllers.HandlePaymentSuccess)
	app.Get("/payments/failure", controllers.HandlePaymentFailure)
	app.Post("/payments/failure", controllers.HandlePaymentFailure)
	app.Get("/payments/result", controllers.HandlePaymentResult)

	// Gateway webhooks. No auth middleware: the HMAC signature over the raw
	// body is the authentication.
	app.Post("/webhooks/razorpay", controllers.HandleRazorpayWebhook)
}
