package repository

import (
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new plan catalog repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create adds a plan to the catalog
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByID retrieves a plan by its ID
func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActive returns all purchasable plans
func (r *subscriptionRepository) GetActive() ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&subs).Error
	return subs, err
}

// Update persists changes to a plan
func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// Disable soft-disables a plan. Historical payments reference plans by id,
// so rows are never deleted.
func (r *subscriptionRepository) Disable(id uint) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
