package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetSubscriptionRepository returns the plan catalog repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetUserSubscriptionRepository returns the entitlement repository instance
func (f *Factory) GetUserSubscriptionRepository() UserSubscriptionRepository {
	return f.GetRepositories().UserSubscription
}

// GetPaymentRepository returns the payment repository instance
func (f *Factory) GetPaymentRepository() PaymentRepository {
	return f.GetRepositories().Payment
}

// GetAiModelRepository returns the AI model repository instance
func (f *Factory) GetAiModelRepository() AiModelRepository {
	return f.GetRepositories().AiModel
}

// GetApiKeyRepository returns the API key repository instance
func (f *Factory) GetApiKeyRepository() ApiKeyRepository {
	return f.GetRepositories().ApiKey
}

// GetPdfParseRepository returns the parse record repository instance
func (f *Factory) GetPdfParseRepository() PdfParseRepository {
	return f.GetRepositories().PdfParse
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
