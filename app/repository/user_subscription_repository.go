package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// userSubscriptionRepository implements the UserSubscriptionRepository interface
type userSubscriptionRepository struct {
	db *gorm.DB
}

// NewUserSubscriptionRepository creates a new entitlement repository instance
func NewUserSubscriptionRepository(db *gorm.DB) UserSubscriptionRepository {
	return &userSubscriptionRepository{db: db}
}

// Create adds an entitlement row
func (r *userSubscriptionRepository) Create(us *models.UserSubscription) error {
	return r.db.Create(us).Error
}

// GetActiveForUser returns the user's active, unexpired entitlement if any
func (r *userSubscriptionRepository) GetActiveForUser(userID uint, now time.Time) (*models.UserSubscription, error) {
	var us models.UserSubscription
	err := r.db.Preload("Subscription").
		Where("user_id = ? AND status = ? AND expires_at > ?", userID, models.SubscriptionStatusActive, now).
		Order("expires_at DESC").
		First(&us).Error
	if err != nil {
		return nil, err
	}
	return &us, nil
}

// GetByUserAndSubscription returns the row keyed by (user, plan), the upsert
// key used by payment provisioning
func (r *userSubscriptionRepository) GetByUserAndSubscription(userID, subscriptionID uint) (*models.UserSubscription, error) {
	var us models.UserSubscription
	err := r.db.Where("user_id = ? AND subscription_id = ?", userID, subscriptionID).First(&us).Error
	if err != nil {
		return nil, err
	}
	return &us, nil
}

// ListByUser returns all entitlement rows for a user, newest first
func (r *userSubscriptionRepository) ListByUser(userID uint) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := r.db.Preload("Subscription").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// Update persists changes to an entitlement row
func (r *userSubscriptionRepository) Update(us *models.UserSubscription) error {
	return r.db.Save(us).Error
}

// CancelActiveForUser cancels every active row for the user in one statement
func (r *userSubscriptionRepository) CancelActiveForUser(userID uint, cancelledAt time.Time) error {
	return r.db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionStatusCancelled,
			"cancelled_at": cancelledAt,
		}).Error
}

// IncrementAPICallsUsed bumps the usage counter atomically
func (r *userSubscriptionRepository) IncrementAPICallsUsed(id uint) error {
	return r.db.Model(&models.UserSubscription{}).
		Where("id = ?", id).
		UpdateColumn("api_calls_used", gorm.Expr("api_calls_used + 1")).Error
}
