package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// aiModelRepository implements the AiModelRepository interface
type aiModelRepository struct {
	db *gorm.DB
}

// NewAiModelRepository creates a new AI model repository instance
func NewAiModelRepository(db *gorm.DB) AiModelRepository {
	return &aiModelRepository{db: db}
}

// Create adds a provider configuration row
func (r *aiModelRepository) Create(m *models.AiModel) error {
	return r.db.Create(m).Error
}

// GetByID retrieves a provider configuration by its ID
func (r *aiModelRepository) GetByID(id uint) (*models.AiModel, error) {
	var m models.AiModel
	err := r.db.First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetActiveByName resolves an active provider row by its normalized name
func (r *aiModelRepository) GetActiveByName(name string) (*models.AiModel, error) {
	var m models.AiModel
	err := r.db.Where("LOWER(name) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(name)), true).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetFirstActive returns the default provider when none is requested
func (r *aiModelRepository) GetFirstActive() (*models.AiModel, error) {
	var m models.AiModel
	err := r.db.Where("is_active = ?", true).Order("id ASC").First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all provider rows, newest first
func (r *aiModelRepository) List() ([]models.AiModel, error) {
	var ms []models.AiModel
	err := r.db.Order("created_at DESC").Find(&ms).Error
	return ms, err
}

// Update persists changes to a provider configuration
func (r *aiModelRepository) Update(m *models.AiModel) error {
	return r.db.Save(m).Error
}

// Delete removes a provider configuration
func (r *aiModelRepository) Delete(id uint) error {
	return r.db.Delete(&models.AiModel{}, id).Error
}
