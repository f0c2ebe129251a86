package entitlements

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
)

// DefaultPdfSizeLimitBytes caps uploads when no plan limit applies (admins).
const DefaultPdfSizeLimitBytes = 10 * 1024 * 1024

// CanUseMeteredCapability is the subscription gate for AI parsing. Admins
// always pass; everyone else needs an active, unexpired entitlement. The
// check is evaluated fresh against current row state on every call.
func CanUseMeteredCapability(user *models.User, repo repository.UserSubscriptionRepository, now time.Time) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}
	_, err := repo.GetActiveForUser(user.ID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemainingCalls reports how many metered calls the entitlement still allows.
// The plan's -1 sentinel means unlimited, signalled by (0, true).
func RemainingCalls(us *models.UserSubscription) (remaining int, unlimited bool) {
	if us.Subscription == nil {
		return 0, false
	}
	if us.Subscription.HasUnlimitedCalls() {
		return 0, true
	}
	remaining = us.Subscription.APICallsLimit - us.APICallsUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, false
}

// HasCallsRemaining reports whether the entitlement permits one more call.
func HasCallsRemaining(us *models.UserSubscription) bool {
	remaining, unlimited := RemainingCalls(us)
	return unlimited || remaining > 0
}

// MaxPdfBytes returns the upload cap for the given entitlement, falling back
// to the default when no plan is attached.
func MaxPdfBytes(us *models.UserSubscription) int64 {
	if us == nil || us.Subscription == nil || us.Subscription.PdfSizeLimitMB <= 0 {
		return DefaultPdfSizeLimitBytes
	}
	return us.Subscription.PdfSizeLimitBytes()
}
