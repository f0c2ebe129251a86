package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

type stubSubsRepo struct {
	active *models.UserSubscription
	err    error
}

func (r *stubSubsRepo) Create(us *models.UserSubscription) error { return nil }

func (r *stubSubsRepo) GetActiveForUser(userID uint, now time.Time) (*models.UserSubscription, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.active == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.active, nil
}

func (r *stubSubsRepo) GetByUserAndSubscription(userID, subscriptionID uint) (*models.UserSubscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSubsRepo) ListByUser(userID uint) ([]models.UserSubscription, error) { return nil, nil }
func (r *stubSubsRepo) Update(us *models.UserSubscription) error                  { return nil }
func (r *stubSubsRepo) CancelActiveForUser(userID uint, at time.Time) error       { return nil }
func (r *stubSubsRepo) IncrementAPICallsUsed(id uint) error                       { return nil }

func TestCanUseMeteredCapability(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("admin always passes", func(t *testing.T) {
		admin := &models.User{ID: 1, Role: models.ROLE_ADMIN}
		ok, err := CanUseMeteredCapability(admin, &stubSubsRepo{}, now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("user with active entitlement passes", func(t *testing.T) {
		user := &models.User{ID: 2, Role: models.ROLE_USER}
		repo := &stubSubsRepo{active: &models.UserSubscription{UserID: 2}}
		ok, err := CanUseMeteredCapability(user, repo, now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("user without entitlement is denied", func(t *testing.T) {
		user := &models.User{ID: 3, Role: models.ROLE_USER}
		ok, err := CanUseMeteredCapability(user, &stubSubsRepo{}, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		user := &models.User{ID: 4, Role: models.ROLE_USER}
		_, err := CanUseMeteredCapability(user, &stubSubsRepo{err: gorm.ErrInvalidDB}, now)
		assert.Error(t, err)
	})
}

func TestRemainingCalls(t *testing.T) {
	t.Run("unlimited sentinel", func(t *testing.T) {
		us := &models.UserSubscription{
			APICallsUsed: 1000,
			Subscription: &models.Subscription{APICallsLimit: models.UnlimitedAPICalls},
		}
		remaining, unlimited := RemainingCalls(us)
		assert.True(t, unlimited)
		assert.Equal(t, 0, remaining)
		assert.True(t, HasCallsRemaining(us))
	})

	t.Run("limited plan with budget left", func(t *testing.T) {
		us := &models.UserSubscription{
			APICallsUsed: 40,
			Subscription: &models.Subscription{APICallsLimit: 100},
		}
		remaining, unlimited := RemainingCalls(us)
		assert.False(t, unlimited)
		assert.Equal(t, 60, remaining)
		assert.True(t, HasCallsRemaining(us))
	})

	t.Run("exhausted plan", func(t *testing.T) {
		us := &models.UserSubscription{
			APICallsUsed: 100,
			Subscription: &models.Subscription{APICallsLimit: 100},
		}
		remaining, unlimited := RemainingCalls(us)
		assert.False(t, unlimited)
		assert.Equal(t, 0, remaining)
		assert.False(t, HasCallsRemaining(us))
	})

	t.Run("overrun clamps to zero", func(t *testing.T) {
		us := &models.UserSubscription{
			APICallsUsed: 150,
			Subscription: &models.Subscription{APICallsLimit: 100},
		}
		remaining, _ := RemainingCalls(us)
		assert.Equal(t, 0, remaining)
	})

	t.Run("missing plan relation", func(t *testing.T) {
		us := &models.UserSubscription{APICallsUsed: 0}
		remaining, unlimited := RemainingCalls(us)
		assert.False(t, unlimited)
		assert.Equal(t, 0, remaining)
		assert.False(t, HasCallsRemaining(us))
	})
}

func TestMaxPdfBytes(t *testing.T) {
	assert.Equal(t, int64(DefaultPdfSizeLimitBytes), MaxPdfBytes(nil))
	assert.Equal(t, int64(DefaultPdfSizeLimitBytes), MaxPdfBytes(&models.UserSubscription{}))

	us := &models.UserSubscription{Subscription: &models.Subscription{PdfSizeLimitMB: 25}}
	assert.Equal(t, int64(25*1024*1024), MaxPdfBytes(us))
}
