package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/repository"
)

const paymentResultPath = "/payments/result"

// HandleCreatePaymentOrder creates a gateway order for the requested plan
// and returns what the checkout widget needs to open.
// Request: JSON { "subscription_id": uint }
func HandleCreatePaymentOrder(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		SubscriptionID uint `json:"subscription_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}
	if req.SubscriptionID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "subscription_id is required")
	}

	sub, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByID(req.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "subscription not found")
		}
		fiberlog.Errorf("[Payment] plan lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to load subscription")
	}
	if !sub.IsActive {
		return jsonError(c, fiber.StatusUnprocessableEntity, "subscription is not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	order, err := getPaymentService().CreateOrder(ctx, sub, user)
	if err != nil {
		fiberlog.Errorf("[Payment] order creation failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusBadGateway, "failed to create payment order")
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandlePaymentSuccess receives the browser redirect after a successful
// checkout. The gateway appends the payment id, order id and signature.
func HandlePaymentSuccess(c *fiber.Ctx) error {
	paymentID := strings.TrimSpace(c.Query("razorpay_payment_id", c.FormValue("razorpay_payment_id")))
	orderID := strings.TrimSpace(c.Query("razorpay_order_id", c.FormValue("razorpay_order_id")))
	signature := strings.TrimSpace(c.Query("razorpay_signature", c.FormValue("razorpay_signature")))

	if paymentID == "" || orderID == "" || signature == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Payment confirmation is missing required parameters"}).Redirect(paymentResultPath)
	}

	if !getPaymentService().ProcessSuccessCallback(paymentID, orderID, signature) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Payment could not be verified"}).Redirect(paymentResultPath)
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Payment successful, your subscription is now active"}).Redirect(paymentResultPath)
}

// HandlePaymentFailure receives the browser redirect after a cancelled or
// failed checkout. The local payment row stays pending until the failure
// webhook arrives; this handler only informs the user.
func HandlePaymentFailure(c *fiber.Ctx) error {
	reason := strings.TrimSpace(c.Query("error_description", c.FormValue("error_description")))
	if reason == "" {
		reason = "Payment was cancelled or failed"
	}
	return flash.WithError(c, fiber.Map{"type": "error", "message": reason}).Redirect(paymentResultPath)
}

// HandlePaymentResult surfaces the outcome set by the redirect handlers.
func HandlePaymentResult(c *fiber.Ctx) error {
	values := flash.Get(c)
	if len(values) == 0 {
		return c.JSON(fiber.Map{"type": "info", "message": "No pending payment result"})
	}
	return c.JSON(values)
}

// HandleRazorpayWebhook processes asynchronous gateway events. The provider
// retries deliveries that do not get a 2xx response, so a processing failure
// maps to an error status.
func HandleRazorpayWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Razorpay-Signature")
	if strings.TrimSpace(signature) == "" {
		return jsonError(c, fiber.StatusUnauthorized, "missing signature")
	}

	if !getPaymentService().ProcessWebhook(c.Body(), signature) {
		return jsonError(c, fiber.StatusInternalServerError, "webhook processing failed")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandlePaymentStatus returns the caller's view of one payment by its
// gateway order id.
func HandlePaymentStatus(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	orderID := strings.TrimSpace(c.Params("orderID"))
	if orderID == "" {
		return jsonError(c, fiber.StatusBadRequest, "order id missing")
	}

	payment, err := repository.GetGlobalFactory().GetPaymentRepository().GetByProviderOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "payment not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load payment")
	}
	if payment.UserID != user.ID && !user.IsAdmin() {
		return jsonError(c, fiber.StatusNotFound, "payment not found")
	}

	return c.JSON(fiber.Map{
		"order_id":     payment.ProviderOrderID,
		"payment_id":   payment.ProviderPaymentID,
		"status":       payment.Status,
		"amount":       payment.Amount,
		"currency":     payment.Currency,
		"completed_at": payment.CompletedAt,
	})
}

// HandleListPayments returns the caller's payment history.
func HandleListPayments(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().ListByUser(user.ID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to load payments")
	}
	return c.JSON(fiber.Map{"payments": payments, "offset": offset, "limit": limit})
}
