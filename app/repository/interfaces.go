package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for plan catalog operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	GetActive() ([]models.Subscription, error)
	Update(sub *models.Subscription) error
	// Disable soft-disables a plan instead of deleting it so historical
	// payments keep a valid reference.
	Disable(id uint) error
}

// UserSubscriptionRepository defines the interface for entitlement rows
type UserSubscriptionRepository interface {
	Create(us *models.UserSubscription) error
	GetActiveForUser(userID uint, now time.Time) (*models.UserSubscription, error)
	GetByUserAndSubscription(userID, subscriptionID uint) (*models.UserSubscription, error)
	ListByUser(userID uint) ([]models.UserSubscription, error)
	Update(us *models.UserSubscription) error
	CancelActiveForUser(userID uint, cancelledAt time.Time) error
	IncrementAPICallsUsed(id uint) error
}

// PaymentRepository defines the interface for payment lifecycle operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByProviderOrderID(orderID string) (*models.Payment, error)
	Update(payment *models.Payment) error
	// CompleteIfOpen moves a pending or failed payment to completed, guarded
	// by a conditional update, reporting whether this call won the
	// transition. Completed and cancelled rows are never touched.
	CompleteIfOpen(payment *models.Payment, providerPaymentID string, completedAt time.Time) (bool, error)
	ListByUser(userID uint, offset, limit int) ([]models.Payment, error)
}

// AiModelRepository defines the interface for AI provider configuration rows
type AiModelRepository interface {
	Create(m *models.AiModel) error
	GetByID(id uint) (*models.AiModel, error)
	GetActiveByName(name string) (*models.AiModel, error)
	GetFirstActive() (*models.AiModel, error)
	List() ([]models.AiModel, error)
	Update(m *models.AiModel) error
	Delete(id uint) error
}

// ApiKeyRepository defines the interface for API credential operations
type ApiKeyRepository interface {
	Create(ak *models.ApiKey) error
	GetByID(id uint) (*models.ApiKey, error)
	GetActiveByKey(key string) (*models.ApiKey, error)
	ListByUser(userID uint) ([]models.ApiKey, error)
	Update(ak *models.ApiKey) error
	Delete(id uint) error
}

// PdfParseRepository defines the interface for parse record operations
type PdfParseRepository interface {
	Create(p *models.PdfParse) error
	GetByID(id uint) (*models.PdfParse, error)
	GetByIDForUser(id, userID uint) (*models.PdfParse, error)
	Update(p *models.PdfParse) error
	ListByUser(userID uint, offset, limit int) ([]models.PdfParse, error)
	CountByUser(userID uint) (int64, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	User             UserRepository
	Subscription     SubscriptionRepository
	UserSubscription UserSubscriptionRepository
	Payment          PaymentRepository
	AiModel          AiModelRepository
	ApiKey           ApiKeyRepository
	PdfParse         PdfParseRepository
}

// NewRepositories creates all repository instances backed by the given DB
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:             NewUserRepository(db),
		Subscription:     NewSubscriptionRepository(db),
		UserSubscription: NewUserSubscriptionRepository(db),
		Payment:          NewPaymentRepository(db),
		AiModel:          NewAiModelRepository(db),
		ApiKey:           NewApiKeyRepository(db),
		PdfParse:         NewPdfParseRepository(db),
	}
}
