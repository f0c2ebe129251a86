package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
)

// subscriptionTermMonths is the entitlement term granted on every completed
// payment. The upstream flow grants one month even for yearly plans; kept as
// a single constant so a product decision can correct it in one place.
const subscriptionTermMonths = 1

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Config carries gateway credentials and reconciliation policy.
type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string

	// CancelOtherActiveSubscriptions controls whether completing a payment
	// cancels the user's active entitlements for other plans before
	// provisioning the purchased one. The admin-assignment path always
	// cancels; the payment path historically does not, which can leave a
	// plan-switching user with two active rows. Off by default to match
	// the observed behavior; flip once product signs off.
	CancelOtherActiveSubscriptions bool
}

// Service is the payment reconciliation engine. It converts gateway
// callbacks (the browser redirect and the asynchronous webhook, unordered
// and possibly duplicated) into payment and entitlement state transitions,
// idempotently. Dependencies are injected so tests can pin the clock and
// substitute repository fakes.
type Service struct {
	gateway  *RazorpayClient
	payments repository.PaymentRepository
	subs     repository.UserSubscriptionRepository
	clock    Clock
	logger   Logger
	cfg      Config
}

// NewService creates a reconciliation engine from injected collaborators.
func NewService(gateway *RazorpayClient, payments repository.PaymentRepository, subs repository.UserSubscriptionRepository, clock Clock, logger Logger, cfg Config) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		gateway:  gateway,
		payments: payments,
		subs:     subs,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// NewServiceFromEnv wires the engine with the global repositories and a
// gateway client configured from the environment.
func NewServiceFromEnv(repos *repository.Repositories) *Service {
	client := NewRazorpayClientFromEnv()
	return NewService(client, repos.Payment, repos.UserSubscription, SystemClock(), log.Default(), Config{
		KeyID:         client.KeyID,
		KeySecret:     client.KeySecret,
		WebhookSecret: client.WebhookSecret,
	})
}

// CreateOrder creates a remote gateway order and the local pending payment
// row keyed by the returned order id. The row is persisted before returning
// so a webhook racing the HTTP response already has a row to match against.
func (s *Service) CreateOrder(ctx context.Context, sub *models.Subscription, user *models.User) (*OrderResult, error) {
	if sub == nil || user == nil {
		return nil, errors.New("subscription and user are required")
	}

	receipt := fmt.Sprintf("sub_%d_%d_%d", user.ID, sub.ID, s.clock.Now().Unix())
	amountMinor := ToMinorUnits(sub.Price)

	order, err := s.gateway.CreateOrder(ctx, amountMinor, "INR", receipt, map[string]string{
		"user_id":         fmt.Sprintf("%d", user.ID),
		"subscription_id": fmt.Sprintf("%d", sub.ID),
		"plan_name":       sub.Name,
	})
	if err != nil {
		s.logger.Printf("payment: order creation failed for user=%d subscription=%d: %v", user.ID, sub.ID, err)
		return nil, err
	}

	p := &models.Payment{
		UserID:          user.ID,
		SubscriptionID:  sub.ID,
		ProviderOrderID: order.ID,
		Amount:          sub.Price,
		Currency:        order.Currency,
		Status:          models.PaymentStatusPending,
	}
	if err := p.MergeMetadata(map[string]any{
		"provider": ProviderRazorpay,
		"order_id": order.ID,
		"receipt":  order.Receipt,
		"amount":   order.Amount,
		"currency": order.Currency,
	}); err != nil {
		return nil, err
	}
	if err := s.payments.Create(p); err != nil {
		s.logger.Printf("payment: failed to persist pending payment for order=%s: %v", order.ID, err)
		return nil, err
	}

	return &OrderResult{
		PaymentID:   p.ID,
		OrderID:     order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		KeyID:       s.cfg.KeyID,
	}, nil
}

// ProcessSuccessCallback handles the signed parameters delivered by the
// client-side redirect after checkout. Returns false on any verification,
// lookup, or persistence failure; no partial state is left behind.
func (s *Service) ProcessSuccessCallback(providerPaymentID, orderID, signature string) bool {
	if !VerifyCallbackSignature(orderID, providerPaymentID, signature, s.cfg.KeySecret) {
		s.logger.Printf("payment: callback signature verification failed for order=%s", orderID)
		return false
	}

	p, err := s.payments.GetByProviderOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Printf("payment: no payment found for callback order=%s", orderID)
		} else {
			s.logger.Printf("payment: lookup failed for callback order=%s: %v", orderID, err)
		}
		return false
	}

	if err := s.complete(p, providerPaymentID, map[string]any{
		"payment_id": providerPaymentID,
		"signature":  signature,
	}); err != nil {
		s.logger.Printf("payment: completing order=%s from callback failed: %v", orderID, err)
		return false
	}
	return true
}

// ProcessWebhook validates and applies one asynchronous webhook delivery.
// The provider retries on non-2xx responses; the idempotency guarantee of
// the completion path is what makes those retries safe.
func (s *Service) ProcessWebhook(payload []byte, signature string) bool {
	if !VerifyWebhookSignature(payload, signature, s.cfg.WebhookSecret) {
		s.logger.Printf("payment: invalid webhook signature")
		return false
	}

	var event webhookEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Printf("payment: malformed webhook payload: %v", err)
		return false
	}

	switch event.Event {
	case "payment.captured":
		return s.handleWebhookCaptured(&event, payload)
	case "payment.failed":
		return s.handleWebhookFailed(&event, payload)
	default:
		s.logger.Printf("payment: ignoring unhandled webhook event type %q", event.Event)
		return false
	}
}

func (s *Service) handleWebhookCaptured(event *webhookEnvelope, payload []byte) bool {
	entity := event.Payload.Payment.Entity
	p, err := s.payments.GetByProviderOrderID(entity.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Printf("payment: no payment found for webhook order=%s", entity.OrderID)
		} else {
			s.logger.Printf("payment: lookup failed for webhook order=%s: %v", entity.OrderID, err)
		}
		return false
	}

	if err := s.complete(p, entity.ID, map[string]any{
		"payment_id":    entity.ID,
		"webhook_event": json.RawMessage(payload),
	}); err != nil {
		s.logger.Printf("payment: completing order=%s from webhook failed: %v", entity.OrderID, err)
		return false
	}
	return true
}

func (s *Service) handleWebhookFailed(event *webhookEnvelope, payload []byte) bool {
	entity := event.Payload.Payment.Entity
	p, err := s.payments.GetByProviderOrderID(entity.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Printf("payment: no payment found for failed webhook order=%s", entity.OrderID)
			return false
		}
		s.logger.Printf("payment: lookup failed for failed webhook order=%s: %v", entity.OrderID, err)
		return false
	}

	// A completed payment is terminal; a late or re-ordered failure signal
	// must not downgrade it.
	if p.IsCompleted() {
		s.logger.Printf("payment: ignoring failure webhook for already completed order=%s", entity.OrderID)
		return true
	}

	reason := entity.ErrorDescription
	if reason == "" {
		reason = "Unknown error"
	}
	if err := p.MergeMetadata(map[string]any{
		"webhook_event":  json.RawMessage(payload),
		"failure_reason": reason,
	}); err != nil {
		s.logger.Printf("payment: recording failure metadata for order=%s failed: %v", entity.OrderID, err)
		return false
	}
	p.Status = models.PaymentStatusFailed
	if entity.ID != "" {
		p.ProviderPaymentID = entity.ID
	}
	if err := s.payments.Update(p); err != nil {
		s.logger.Printf("payment: marking order=%s failed errored: %v", entity.OrderID, err)
		return false
	}
	return true
}

// complete moves the payment to completed and provisions the entitlement.
// Re-delivery of either input channel is a no-op: the conditional update
// only succeeds once, so the subscription is never re-provisioned or
// double-extended. A row marked failed by an earlier webhook is still
// eligible: the user can retry payment on the same order, and the capture
// for the retry may arrive after the failure event.
func (s *Service) complete(p *models.Payment, providerPaymentID string, meta map[string]any) error {
	if p.IsCompleted() {
		return nil
	}

	if err := p.MergeMetadata(meta); err != nil {
		return err
	}

	won, err := s.payments.CompleteIfOpen(p, providerPaymentID, s.clock.Now())
	if err != nil {
		return err
	}
	if !won {
		// A concurrent delivery got there first, or the payment was
		// cancelled. Confirm the row actually reached completed before
		// acknowledging; acknowledging a capture that was not applied would
		// stop the provider's retries.
		current, err := s.payments.GetByID(p.ID)
		if err != nil {
			return err
		}
		if !current.IsCompleted() {
			return fmt.Errorf("payment order=%s is %s and cannot be completed", p.ProviderOrderID, current.Status)
		}
		return nil
	}

	return s.provisionSubscription(p)
}

// provisionSubscription activates the purchased plan for the paying user.
// The row is upserted keyed on (user_id, subscription_id): a renewal resets
// the term and the usage counter instead of stacking rows.
func (s *Service) provisionSubscription(p *models.Payment) error {
	now := s.clock.Now()
	expiresAt := now.AddDate(0, subscriptionTermMonths, 0)

	if s.cfg.CancelOtherActiveSubscriptions {
		if err := s.subs.CancelActiveForUser(p.UserID, now); err != nil {
			return err
		}
	}

	existing, err := s.subs.GetByUserAndSubscription(p.UserID, p.SubscriptionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing != nil {
		existing.Status = models.SubscriptionStatusActive
		existing.StartedAt = &now
		existing.ExpiresAt = &expiresAt
		existing.CancelledAt = nil
		existing.APICallsUsed = 0
		return s.subs.Update(existing)
	}

	return s.subs.Create(&models.UserSubscription{
		UserID:         p.UserID,
		SubscriptionID: p.SubscriptionID,
		Status:         models.SubscriptionStatusActive,
		StartedAt:      &now,
		ExpiresAt:      &expiresAt,
	})
}

// OrderStatus fetches the remote order entity for a client status poll.
func (s *Service) OrderStatus(ctx context.Context, orderID string) (map[string]any, error) {
	order, err := s.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":       order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"receipt":  order.Receipt,
		"status":   order.Status,
	}, nil
}

// AssignSubscription is the admin provisioning path: it always cancels the
// user's other active entitlements before creating the new one, unlike the
// payment path (see Config.CancelOtherActiveSubscriptions).
func (s *Service) AssignSubscription(userID, subscriptionID uint, durationMonths int) (*models.UserSubscription, error) {
	if durationMonths < 1 {
		return nil, errors.New("duration must be at least one month")
	}
	now := s.clock.Now()
	if err := s.subs.CancelActiveForUser(userID, now); err != nil {
		return nil, err
	}

	expiresAt := now.AddDate(0, durationMonths, 0)
	us := &models.UserSubscription{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Status:         models.SubscriptionStatusActive,
		StartedAt:      &now,
		ExpiresAt:      &expiresAt,
	}
	if err := s.subs.Create(us); err != nil {
		return nil, err
	}
	return us, nil
}

// RevokeSubscription cancels all of the user's active entitlements.
func (s *Service) RevokeSubscription(userID uint) error {
	return s.subs.CancelActiveForUser(userID, s.clock.Now())
}
