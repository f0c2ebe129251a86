package repository

import (
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
)

// pdfParseRepository implements the PdfParseRepository interface
type pdfParseRepository struct {
	db *gorm.DB
}

// NewPdfParseRepository creates a new parse record repository instance
func NewPdfParseRepository(db *gorm.DB) PdfParseRepository {
	return &pdfParseRepository{db: db}
}

// Create inserts a parse record
func (r *pdfParseRepository) Create(p *models.PdfParse) error {
	return r.db.Create(p).Error
}

// GetByID retrieves a parse record by its ID
func (r *pdfParseRepository) GetByID(id uint) (*models.PdfParse, error) {
	var p models.PdfParse
	err := r.db.Preload("AiModel").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDForUser retrieves a parse record scoped to its owner
func (r *pdfParseRepository) GetByIDForUser(id, userID uint) (*models.PdfParse, error) {
	var p models.PdfParse
	err := r.db.Preload("AiModel").
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update persists changes to a parse record
func (r *pdfParseRepository) Update(p *models.PdfParse) error {
	return r.db.Save(p).Error
}

// ListByUser returns a page of the user's parse records, newest first
func (r *pdfParseRepository) ListByUser(userID uint, offset, limit int) ([]models.PdfParse, error) {
	var parses []models.PdfParse
	err := r.db.Preload("AiModel").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&parses).Error
	return parses, err
}

// CountByUser returns the number of parse records owned by the user
func (r *pdfParseRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PdfParse{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
