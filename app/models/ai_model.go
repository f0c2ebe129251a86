package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	AiProviderOpenAI = "openai"
	AiProviderGemini = "gemini"
)

// AiModel is an admin-managed AI provider configuration row. The config blob
// holds the provider secret and optional endpoint override; the api_key is
// write-only from the admin surface and is never echoed back to non-admins.
type AiModel struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(50);not null;index" json:"name" validate:"required,max=50"`
	ModelIdentifier string    `gorm:"type:varchar(100);not null" json:"model_identifier" validate:"required,max=100"`
	Description     string    `gorm:"type:text" json:"description"`
	IsActive        bool      `gorm:"default:true;index" json:"is_active"`
	ConfigJSON      *string   `gorm:"column:config;type:json" json:"-"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *AiModel) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

type aiModelConfig struct {
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (m *AiModel) config() aiModelConfig {
	if m.ConfigJSON == nil || *m.ConfigJSON == "" {
		return aiModelConfig{}
	}
	var cfg aiModelConfig
	if err := json.Unmarshal([]byte(*m.ConfigJSON), &cfg); err != nil {
		return aiModelConfig{}
	}
	return cfg
}

func (m *AiModel) setConfig(cfg aiModelConfig) error {
	if cfg.APIKey == "" && cfg.Endpoint == "" {
		m.ConfigJSON = nil
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	s := string(raw)
	m.ConfigJSON = &s
	return nil
}

// APIKey returns the stored provider secret, or empty if unset.
func (m *AiModel) APIKey() string {
	return m.config().APIKey
}

// Endpoint returns the stored endpoint override, or empty if unset.
func (m *AiModel) Endpoint() string {
	return m.config().Endpoint
}

// ApplyConfigUpdate merges an admin config edit into the stored blob. Blank
// fields keep the previously stored value; the config collapses to null only
// when both values end up absent. This keeps secrets write-only: an admin
// form that round-trips without the key does not clobber it.
func (m *AiModel) ApplyConfigUpdate(apiKey, endpoint string) error {
	cfg := m.config()
	if k := strings.TrimSpace(apiKey); k != "" {
		cfg.APIKey = k
	}
	if e := strings.TrimSpace(endpoint); e != "" {
		cfg.Endpoint = e
	}
	return m.setConfig(cfg)
}

// ProviderName returns the normalized provider name used for dispatch.
func (m *AiModel) ProviderName() string {
	return strings.ToLower(strings.TrimSpace(m.Name))
}
