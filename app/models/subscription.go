package models

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// UnlimitedAPICalls is the sentinel value for plans without a call limit.
const UnlimitedAPICalls = -1

// Subscription is a purchasable plan from the admin-managed catalog.
// Plans referenced by payments are soft-disabled via IsActive, never deleted,
// so historical Payment rows keep a valid plan reference.
type Subscription struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Description    string    `gorm:"type:text" json:"description"`
	Price          float64   `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	BillingCycle   string    `gorm:"type:varchar(20);not null;default:'monthly'" json:"billing_cycle" validate:"oneof=monthly yearly"`
	APICallsLimit  int       `gorm:"not null;default:0" json:"api_calls_limit"`
	PdfSizeLimitMB int       `gorm:"not null;default:10" json:"pdf_size_limit_mb"`
	FeaturesJSON   string    `gorm:"column:features;type:json" json:"-"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// HasUnlimitedCalls reports whether the plan carries the unlimited sentinel.
func (s *Subscription) HasUnlimitedCalls() bool {
	return s.APICallsLimit == UnlimitedAPICalls
}

// APICallsLimitDisplay renders the call limit for user-facing listings.
func (s *Subscription) APICallsLimitDisplay() string {
	if s.HasUnlimitedCalls() {
		return "Unlimited"
	}
	return strconv.Itoa(s.APICallsLimit)
}

// Features decodes the ordered feature list stored as JSON.
func (s *Subscription) Features() []string {
	if s.FeaturesJSON == "" {
		return nil
	}
	var features []string
	if err := json.Unmarshal([]byte(s.FeaturesJSON), &features); err != nil {
		return nil
	}
	return features
}

// SetFeatures encodes and stores the ordered feature list.
func (s *Subscription) SetFeatures(features []string) error {
	if len(features) == 0 {
		s.FeaturesJSON = ""
		return nil
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return err
	}
	s.FeaturesJSON = string(raw)
	return nil
}

// PdfSizeLimitBytes returns the plan's upload cap in bytes.
func (s *Subscription) PdfSizeLimitBytes() int64 {
	return int64(s.PdfSizeLimitMB) * 1024 * 1024
}
