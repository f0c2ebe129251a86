package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a payment row. The unique index on provider_order_id makes
// duplicate order ids fail here.
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID retrieves a payment by its ID
func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByProviderOrderID looks up the payment matching a gateway order id
func (r *paymentRepository) GetByProviderOrderID(orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("provider_order_id = ?", orderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update persists changes to a payment row
func (r *paymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// CompleteIfOpen applies the transition to completed with a conditional
// update. Concurrent webhook and callback deliveries race on the same row;
// the status guard lets exactly one of them win. A failed row is still open:
// the user can retry checkout on the same order after a declined attempt, so
// a later capture must supersede the earlier failure. Only completed and
// cancelled are final.
func (r *paymentRepository) CompleteIfOpen(payment *models.Payment, providerPaymentID string, completedAt time.Time) (bool, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("id = ? AND status IN ?", payment.ID, []string{models.PaymentStatusPending, models.PaymentStatusFailed}).
		Updates(map[string]interface{}{
			"status":              models.PaymentStatusCompleted,
			"provider_payment_id": providerPaymentID,
			"completed_at":        completedAt,
			"metadata":            payment.MetadataJSON,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	payment.Status = models.PaymentStatusCompleted
	payment.ProviderPaymentID = providerPaymentID
	payment.CompletedAt = &completedAt
	return true, nil
}

// ListByUser returns a page of the user's payments, newest first
func (r *paymentRepository) ListByUser(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	return payments, err
}
