package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// apiKeyRepository implements the ApiKeyRepository interface
type apiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository creates a new API key repository instance
func NewApiKeyRepository(db *gorm.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

// Create inserts a credential pair
func (r *apiKeyRepository) Create(ak *models.ApiKey) error {
	return r.db.Create(ak).Error
}

// GetByID retrieves a credential pair by its ID
func (r *apiKeyRepository) GetByID(id uint) (*models.ApiKey, error) {
	var ak models.ApiKey
	err := r.db.First(&ak, id).Error
	if err != nil {
		return nil, err
	}
	return &ak, nil
}

// GetActiveByKey resolves an active key with its owning user preloaded
func (r *apiKeyRepository) GetActiveByKey(key string) (*models.ApiKey, error) {
	var ak models.ApiKey
	err := r.db.Preload("User").
		Where("`key` = ? AND is_active = ?", strings.TrimSpace(key), true).
		First(&ak).Error
	if err != nil {
		return nil, err
	}
	return &ak, nil
}

// ListByUser returns the user's credential pairs, newest first
func (r *apiKeyRepository) ListByUser(userID uint) ([]models.ApiKey, error) {
	var keys []models.ApiKey
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// Update persists changes to a credential pair
func (r *apiKeyRepository) Update(ak *models.ApiKey) error {
	return r.db.Save(ak).Error
}

// Delete removes a credential pair
func (r *apiKeyRepository) Delete(id uint) error {
	return r.db.Delete(&models.ApiKey{}, id).Error
}
