package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakePaymentRepo struct {
	byOrderID map[string]*models.Payment
	nextID    uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byOrderID: map[string]*models.Payment{}, nextID: 1}
}

func (r *fakePaymentRepo) Create(p *models.Payment) error {
	if _, exists := r.byOrderID[p.ProviderOrderID]; exists {
		return gorm.ErrDuplicatedKey
	}
	p.ID = r.nextID
	r.nextID++
	r.byOrderID[p.ProviderOrderID] = p
	return nil
}

func (r *fakePaymentRepo) GetByID(id uint) (*models.Payment, error) {
	for _, p := range r.byOrderID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) GetByProviderOrderID(orderID string) (*models.Payment, error) {
	p, ok := r.byOrderID[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) Update(p *models.Payment) error {
	r.byOrderID[p.ProviderOrderID] = p
	return nil
}

func (r *fakePaymentRepo) CompleteIfOpen(p *models.Payment, providerPaymentID string, completedAt time.Time) (bool, error) {
	stored, ok := r.byOrderID[p.ProviderOrderID]
	if !ok {
		return false, nil
	}
	if stored.Status != models.PaymentStatusPending && stored.Status != models.PaymentStatusFailed {
		return false, nil
	}
	stored.Status = models.PaymentStatusCompleted
	stored.ProviderPaymentID = providerPaymentID
	stored.CompletedAt = &completedAt
	stored.MetadataJSON = p.MetadataJSON
	p.Status = stored.Status
	p.ProviderPaymentID = stored.ProviderPaymentID
	p.CompletedAt = stored.CompletedAt
	return true, nil
}

func (r *fakePaymentRepo) ListByUser(userID uint, offset, limit int) ([]models.Payment, error) {
	return nil, nil
}

type fakeSubscriptionRepo struct {
	rows      []*models.UserSubscription
	nextID    uint
	created   int
	cancelled int
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{nextID: 1}
}

func (r *fakeSubscriptionRepo) Create(us *models.UserSubscription) error {
	us.ID = r.nextID
	r.nextID++
	r.created++
	r.rows = append(r.rows, us)
	return nil
}

func (r *fakeSubscriptionRepo) GetActiveForUser(userID uint, now time.Time) (*models.UserSubscription, error) {
	for _, us := range r.rows {
		if us.UserID == userID && us.IsActiveAt(now) {
			return us, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSubscriptionRepo) GetByUserAndSubscription(userID, subscriptionID uint) (*models.UserSubscription, error) {
	for _, us := range r.rows {
		if us.UserID == userID && us.SubscriptionID == subscriptionID {
			return us, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSubscriptionRepo) ListByUser(userID uint) ([]models.UserSubscription, error) {
	var out []models.UserSubscription
	for _, us := range r.rows {
		if us.UserID == userID {
			out = append(out, *us)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Update(us *models.UserSubscription) error { return nil }

func (r *fakeSubscriptionRepo) CancelActiveForUser(userID uint, cancelledAt time.Time) error {
	for _, us := range r.rows {
		if us.UserID == userID && us.Status == models.SubscriptionStatusActive {
			us.Status = models.SubscriptionStatusCancelled
			us.CancelledAt = &cancelledAt
			r.cancelled++
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) IncrementAPICallsUsed(id uint) error { return nil }

func signCallback(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signWebhook(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type testLogger struct{ lines []string }

func (l *testLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func newTestService(payments *fakePaymentRepo, subs *fakeSubscriptionRepo, now time.Time, cfg Config) *Service {
	return NewService(nil, payments, subs, fixedClock{t: now}, &testLogger{}, cfg)
}

func pendingPayment(repo *fakePaymentRepo, userID, subID uint, orderID string) *models.Payment {
	p := &models.Payment{
		UserID:          userID,
		SubscriptionID:  subID,
		ProviderOrderID: orderID,
		Amount:          499.00,
		Currency:        "INR",
		Status:          models.PaymentStatusPending,
	}
	_ = repo.Create(p)
	return p
}

func TestProcessSuccessCallback(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := Config{KeySecret: "key_secret", WebhookSecret: "wh_secret"}

	t.Run("valid signature completes payment and provisions subscription", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		sig := signCallback("order_abc", "pay_123", cfg.KeySecret)
		ok := svc.ProcessSuccessCallback("pay_123", "order_abc", sig)
		assert.True(t, ok)

		p, err := payments.GetByProviderOrderID("order_abc")
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
		assert.Equal(t, "pay_123", p.ProviderPaymentID)
		assert.NotNil(t, p.CompletedAt)
		assert.Equal(t, now, *p.CompletedAt)

		us, err := subs.GetByUserAndSubscription(7, 2)
		assert.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusActive, us.Status)
		assert.NotNil(t, us.ExpiresAt)
		assert.Equal(t, now.AddDate(0, 1, 0), *us.ExpiresAt)
	})

	t.Run("invalid signature is rejected before any state change", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		ok := svc.ProcessSuccessCallback("pay_123", "order_abc", "deadbeef")
		assert.False(t, ok)

		p, _ := payments.GetByProviderOrderID("order_abc")
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, 0, subs.created)
	})

	t.Run("unknown order id fails closed", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)

		sig := signCallback("order_missing", "pay_123", cfg.KeySecret)
		assert.False(t, svc.ProcessSuccessCallback("pay_123", "order_missing", sig))
	})
}

func TestWebhookCallbackIdempotency(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := Config{KeySecret: "key_secret", WebhookSecret: "wh_secret"}

	capturedBody := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_123","order_id":"order_abc","status":"captured"}}}}`)

	t.Run("webhook then callback provisions exactly once", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		assert.True(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))

		sig := signCallback("order_abc", "pay_123", cfg.KeySecret)
		assert.True(t, svc.ProcessSuccessCallback("pay_123", "order_abc", sig))

		assert.Equal(t, 1, subs.created)
	})

	t.Run("duplicate webhook delivery is a no-op", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		sig := signWebhook(capturedBody, cfg.WebhookSecret)
		assert.True(t, svc.ProcessWebhook(capturedBody, sig))
		assert.True(t, svc.ProcessWebhook(capturedBody, sig))

		assert.Equal(t, 1, subs.created)
	})

	t.Run("renewal resets the existing row instead of stacking", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)

		earlier := now.AddDate(0, -1, 0)
		expiring := now.Add(24 * time.Hour)
		subs.rows = append(subs.rows, &models.UserSubscription{
			ID: 99, UserID: 7, SubscriptionID: 2,
			Status:       models.SubscriptionStatusActive,
			StartedAt:    &earlier,
			ExpiresAt:    &expiring,
			APICallsUsed: 42,
		})
		subs.nextID = 100
		pendingPayment(payments, 7, 2, "order_abc")

		assert.True(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))

		assert.Equal(t, 0, subs.created)
		us, _ := subs.GetByUserAndSubscription(7, 2)
		assert.Equal(t, uint(99), us.ID)
		assert.Equal(t, models.SubscriptionStatusActive, us.Status)
		assert.Equal(t, now.AddDate(0, 1, 0), *us.ExpiresAt)
		assert.Equal(t, 0, us.APICallsUsed)
		assert.Nil(t, us.CancelledAt)
	})
}

func TestWebhookFailureHandling(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := Config{KeySecret: "key_secret", WebhookSecret: "wh_secret"}

	failedBody := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_123","order_id":"order_abc","status":"failed","error_description":"Card declined"}}}}`)
	capturedBody := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_123","order_id":"order_abc","status":"captured"}}}}`)

	t.Run("failure webhook marks pending payment failed with reason", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		assert.True(t, svc.ProcessWebhook(failedBody, signWebhook(failedBody, cfg.WebhookSecret)))

		p, _ := payments.GetByProviderOrderID("order_abc")
		assert.Equal(t, models.PaymentStatusFailed, p.Status)
		assert.Equal(t, "Card declined", p.Metadata()["failure_reason"])
		assert.Equal(t, 0, subs.created)
	})

	t.Run("completed payment is immune to a late failure signal", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		assert.True(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))
		assert.True(t, svc.ProcessWebhook(failedBody, signWebhook(failedBody, cfg.WebhookSecret)))

		p, _ := payments.GetByProviderOrderID("order_abc")
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	})

	t.Run("capture after a failed attempt completes and provisions", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		// The user retries checkout on the same order after a decline, so
		// the failure event lands first and the capture follows.
		assert.True(t, svc.ProcessWebhook(failedBody, signWebhook(failedBody, cfg.WebhookSecret)))
		assert.True(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))

		p, _ := payments.GetByProviderOrderID("order_abc")
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
		assert.Equal(t, "pay_123", p.ProviderPaymentID)
		assert.Equal(t, 1, subs.created)
	})

	t.Run("capture for a cancelled payment is not acknowledged", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		p := pendingPayment(payments, 7, 2, "order_abc")
		p.Status = models.PaymentStatusCancelled

		assert.False(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))
		assert.Equal(t, models.PaymentStatusCancelled, p.Status)
		assert.Equal(t, 0, subs.created)
	})

	t.Run("tampered body is rejected", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		sig := signWebhook(capturedBody, cfg.WebhookSecret)
		tampered := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_999","order_id":"order_abc","status":"captured"}}}}`)
		assert.False(t, svc.ProcessWebhook(tampered, sig))
	})

	t.Run("unknown event type is logged and rejected", func(t *testing.T) {
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		svc := newTestService(payments, subs, now, cfg)

		body := []byte(`{"event":"refund.created","payload":{"payment":{"entity":{}}}}`)
		assert.False(t, svc.ProcessWebhook(body, signWebhook(body, cfg.WebhookSecret)))
	})
}

func TestProvisioningPolicy(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	capturedBody := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_123","order_id":"order_abc","status":"captured"}}}}`)

	seedOtherPlan := func(subs *fakeSubscriptionRepo) {
		started := now.AddDate(0, -1, 0)
		expires := now.AddDate(0, 1, 0)
		subs.rows = append(subs.rows, &models.UserSubscription{
			ID: 50, UserID: 7, SubscriptionID: 1,
			Status:    models.SubscriptionStatusActive,
			StartedAt: &started,
			ExpiresAt: &expires,
		})
		subs.nextID = 51
	}

	t.Run("default policy leaves other active plans untouched", func(t *testing.T) {
		cfg := Config{KeySecret: "key_secret", WebhookSecret: "wh_secret"}
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		seedOtherPlan(subs)
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		assert.True(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))
		assert.Equal(t, 0, subs.cancelled)
	})

	t.Run("cancel policy retires other active plans first", func(t *testing.T) {
		cfg := Config{KeySecret: "key_secret", WebhookSecret: "wh_secret", CancelOtherActiveSubscriptions: true}
		payments := newFakePaymentRepo()
		subs := newFakeSubscriptionRepo()
		seedOtherPlan(subs)
		svc := newTestService(payments, subs, now, cfg)
		pendingPayment(payments, 7, 2, "order_abc")

		assert.True(t, svc.ProcessWebhook(capturedBody, signWebhook(capturedBody, cfg.WebhookSecret)))
		assert.Equal(t, 1, subs.cancelled)

		old, _ := subs.GetByUserAndSubscription(7, 1)
		assert.Equal(t, models.SubscriptionStatusCancelled, old.Status)
		fresh, _ := subs.GetByUserAndSubscription(7, 2)
		assert.Equal(t, models.SubscriptionStatusActive, fresh.Status)
	})
}

func TestAssignSubscription(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := Config{KeySecret: "key_secret"}

	t.Run("always cancels other active entitlements", func(t *testing.T) {
		subs := newFakeSubscriptionRepo()
		started := now.AddDate(0, -1, 0)
		expires := now.AddDate(0, 1, 0)
		subs.rows = append(subs.rows, &models.UserSubscription{
			ID: 10, UserID: 7, SubscriptionID: 1,
			Status:    models.SubscriptionStatusActive,
			StartedAt: &started,
			ExpiresAt: &expires,
		})
		subs.nextID = 11
		svc := newTestService(newFakePaymentRepo(), subs, now, cfg)

		us, err := svc.AssignSubscription(7, 3, 6)
		assert.NoError(t, err)
		assert.Equal(t, 1, subs.cancelled)
		assert.Equal(t, now.AddDate(0, 6, 0), *us.ExpiresAt)
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		svc := newTestService(newFakePaymentRepo(), newFakeSubscriptionRepo(), now, cfg)
		_, err := svc.AssignSubscription(7, 3, 0)
		assert.Error(t, err)
	})
}

func TestServiceCreateOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: 7}
	sub := &models.Subscription{ID: 2, Name: "Pro", Price: 499.00}

	newGateway := func(orderID string) (*RazorpayClient, *httptest.Server) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":       orderID,
				"amount":   49900,
				"currency": "INR",
				"receipt":  "sub_7_2_1741608000",
				"status":   "created",
			})
		}))
		return testClient(server.URL), server
	}

	t.Run("persists exactly one pending payment keyed by the order id", func(t *testing.T) {
		gateway, server := newGateway("order_new_1")
		defer server.Close()

		payments := newFakePaymentRepo()
		svc := NewService(gateway, payments, newFakeSubscriptionRepo(), fixedClock{t: now}, &testLogger{}, Config{KeyID: "rzp_test_key"})

		result, err := svc.CreateOrder(context.Background(), sub, user)
		assert.NoError(t, err)
		assert.Equal(t, "order_new_1", result.OrderID)
		assert.Equal(t, int64(49900), result.AmountMinor)
		assert.Equal(t, "rzp_test_key", result.KeyID)

		stored, err := payments.GetByProviderOrderID("order_new_1")
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
		assert.Equal(t, uint(7), stored.UserID)
		assert.Equal(t, uint(2), stored.SubscriptionID)
		assert.Len(t, payments.byOrderID, 1)
	})

	t.Run("duplicate order id is rejected", func(t *testing.T) {
		gateway, server := newGateway("order_dup_1")
		defer server.Close()

		payments := newFakePaymentRepo()
		pendingPayment(payments, 7, 2, "order_dup_1")
		svc := NewService(gateway, payments, newFakeSubscriptionRepo(), fixedClock{t: now}, &testLogger{}, Config{})

		_, err := svc.CreateOrder(context.Background(), sub, user)
		assert.Error(t, err)
		assert.Len(t, payments.byOrderID, 1)
	})

	t.Run("gateway failure creates no payment row", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		payments := newFakePaymentRepo()
		svc := NewService(testClient(server.URL), payments, newFakeSubscriptionRepo(), fixedClock{t: now}, &testLogger{}, Config{})

		_, err := svc.CreateOrder(context.Background(), sub, user)
		assert.Error(t, err)
		assert.Empty(t, payments.byOrderID)
	})
}
