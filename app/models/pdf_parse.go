package models

import "time"

const (
	ParseStatusProcessing = "processing"
	ParseStatusCompleted  = "completed"
	ParseStatusFailed     = "failed"
)

// PdfParse records one upload-extract-dispatch round trip. Rows are created
// in processing state and always reach a terminal status: the parse pipeline
// guarantees failures are written back instead of leaving the row dangling.
type PdfParse struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	AiModelID        uint       `gorm:"not null;index" json:"ai_model_id"`
	OriginalFilename string     `gorm:"type:varchar(255);not null" json:"original_filename"`
	StoredFilename   string     `gorm:"type:varchar(255);not null" json:"stored_filename"`
	FileSizeBytes    int64      `gorm:"not null" json:"file_size_bytes"`
	ParseResultJSON  *string    `gorm:"column:parse_result;type:json" json:"-"`
	ErrorMessage     *string    `gorm:"type:text" json:"error_message,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'processing';index" json:"status"`
	ProcessedAt      *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	AiModel *AiModel `gorm:"foreignKey:AiModelID" json:"ai_model,omitempty"`
}

// IsTerminal reports whether the parse reached completed or failed.
func (p *PdfParse) IsTerminal() bool {
	return p.Status == ParseStatusCompleted || p.Status == ParseStatusFailed
}
