package models

import (
	"encoding/json"
	"time"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment tracks a single gateway order through its lifecycle. The provider
// order id is the idempotency anchor for webhook and callback reconciliation.
// A completed payment is terminal and must never be downgraded by a later
// failure signal.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index:idx_payments_user_status,priority:1" json:"user_id"`
	SubscriptionID    uint       `gorm:"not null;index" json:"subscription_id"`
	ProviderOrderID   string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"provider_order_id"`
	ProviderPaymentID string     `gorm:"type:varchar(100);default:'';index" json:"provider_payment_id"`
	Amount            float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string     `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_user_status,priority:2" json:"status"`
	CompletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	MetadataJSON      string     `gorm:"column:metadata;type:json" json:"-"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCompleted reports whether the payment reached its terminal success state.
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// Metadata decodes the free-form audit bag accumulated from provider payloads.
func (p *Payment) Metadata() map[string]any {
	if p.MetadataJSON == "" {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(p.MetadataJSON), &meta); err != nil {
		return map[string]any{}
	}
	return meta
}

// MergeMetadata folds additional provider payload fields into the stored bag.
// Existing keys are overwritten by the incoming values.
func (p *Payment) MergeMetadata(extra map[string]any) error {
	meta := p.Metadata()
	for k, v := range extra {
		meta[k] = v
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	p.MetadataJSON = string(raw)
	return nil
}
