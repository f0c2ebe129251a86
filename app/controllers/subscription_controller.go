package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
	"github.com/parsemint/parsemint/internal/pkg/entitlements"
)

// HandleListSubscriptions returns the purchasable plan catalog.
func HandleListSubscriptions(c *fiber.Ctx) error {
	subs, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetActive()
	if err != nil {
		fiberlog.Errorf("[Subscription] catalog load failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to load subscriptions")
	}

	items := make([]fiber.Map, 0, len(subs))
	for i := range subs {
		items = append(items, subscriptionResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"subscriptions": items})
}

// HandleMySubscription returns the caller's current entitlement and usage.
func HandleMySubscription(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	us, err := repository.GetGlobalFactory().GetUserSubscriptionRepository().GetActiveForUser(user.ID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"active": false})
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load subscription")
	}

	remaining, unlimited := entitlements.RemainingCalls(us)
	resp := fiber.Map{
		"active":          true,
		"status":          us.Status,
		"started_at":      us.StartedAt,
		"expires_at":      us.ExpiresAt,
		"api_calls_used":  us.APICallsUsed,
		"calls_unlimited": unlimited,
	}
	if !unlimited {
		resp["calls_remaining"] = remaining
	}
	if us.Subscription != nil {
		resp["subscription"] = subscriptionResponse(us.Subscription)
	}
	return c.JSON(resp)
}

// HandleAdminCreateSubscription creates a new plan.
// Request: JSON matching the subscription fields.
func HandleAdminCreateSubscription(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}

	sub := &models.Subscription{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		BillingCycle:   req.BillingCycle,
		APICallsLimit:  req.APICallsLimit,
		PdfSizeLimitMB: req.PdfSizeLimitMB,
		IsActive:       true,
	}
	if req.Features != nil {
		if err := sub.SetFeatures(req.Features); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid features")
		}
	}
	if err := sub.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Create(sub); err != nil {
		fiberlog.Errorf("[Subscription] create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to create subscription")
	}
	return c.Status(fiber.StatusCreated).JSON(subscriptionResponse(sub))
}

// HandleAdminUpdateSubscription updates an existing plan. Zero-valued fields
// in the request are ignored so a partial edit does not blank the row.
func HandleAdminUpdateSubscription(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	repo := repository.GetGlobalFactory().GetSubscriptionRepository()
	sub, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "subscription not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load subscription")
	}

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}

	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.Description != "" {
		sub.Description = req.Description
	}
	if req.Price > 0 {
		sub.Price = req.Price
	}
	if req.BillingCycle != "" {
		sub.BillingCycle = req.BillingCycle
	}
	if req.APICallsLimit != 0 {
		sub.APICallsLimit = req.APICallsLimit
	}
	if req.PdfSizeLimitMB > 0 {
		sub.PdfSizeLimitMB = req.PdfSizeLimitMB
	}
	if req.Features != nil {
		if err := sub.SetFeatures(req.Features); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid features")
		}
	}
	if err := sub.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := repo.Update(sub); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update subscription")
	}
	return c.JSON(subscriptionResponse(sub))
}

// HandleAdminDisableSubscription retires a plan from the catalog. Existing
// entitlements and payments keep their references.
func HandleAdminDisableSubscription(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Disable(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "subscription not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to disable subscription")
	}
	return c.JSON(fiber.Map{"status": "disabled"})
}

type subscriptionRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	BillingCycle   string   `json:"billing_cycle"`
	APICallsLimit  int      `json:"api_calls_limit"`
	PdfSizeLimitMB int      `json:"pdf_size_limit_mb"`
	Features       []string `json:"features"`
}

func subscriptionResponse(sub *models.Subscription) fiber.Map {
	return fiber.Map{
		"id":                sub.ID,
		"name":              sub.Name,
		"description":       sub.Description,
		"price":             sub.Price,
		"billing_cycle":     sub.BillingCycle,
		"api_calls_limit":   sub.APICallsLimitDisplay(),
		"pdf_size_limit_mb": sub.PdfSizeLimitMB,
		"features":          sub.Features(),
		"is_active":         sub.IsActive,
	}
}
