package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// UserSubscription is a provisioned entitlement instance. At most one row per
// user may be active and unexpired at a time; this is enforced procedurally
// (cancel-then-create), not by a uniqueness constraint.
type UserSubscription struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index:idx_user_subscriptions_user_status,priority:1" json:"user_id"`
	SubscriptionID uint       `gorm:"not null;index" json:"subscription_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active';index:idx_user_subscriptions_user_status,priority:2" json:"status"`
	StartedAt      *time.Time `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	ExpiresAt      *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CancelledAt    *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	APICallsUsed   int        `gorm:"not null;default:0" json:"api_calls_used"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Subscription *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
}

// IsActiveAt reports whether the entitlement is active and unexpired at the
// given instant.
func (us *UserSubscription) IsActiveAt(now time.Time) bool {
	if us.Status != SubscriptionStatusActive {
		return false
	}
	return us.ExpiresAt != nil && us.ExpiresAt.After(now)
}
