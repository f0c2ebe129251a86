package aiprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/parsemint/parsemint/app/models"
)

var (
	// ErrUnknownProvider means the model row names a provider we cannot dispatch.
	ErrUnknownProvider = errors.New("unknown ai provider")
	// ErrMissingAPIKey means the model row has no secret configured.
	ErrMissingAPIKey = errors.New("ai provider api key is not configured")
	// ErrEmptyResponse means the provider returned no usable content.
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
)

// Provider turns raw document text into a structured JSON document.
type Provider interface {
	// ExtractStructured sends the document text to the provider and returns
	// the raw JSON string the model produced.
	ExtractStructured(ctx context.Context, text string) (string, error)
	// Name identifies the provider for logging and result attribution.
	Name() string
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// ForModel builds the provider matching the given model configuration.
func ForModel(m *models.AiModel) (Provider, error) {
	if m == nil {
		return nil, ErrUnknownProvider
	}
	apiKey := m.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w for model %q", ErrMissingAPIKey, m.Name)
	}

	switch m.ProviderName() {
	case models.AiProviderOpenAI:
		return NewOpenAIProvider(apiKey, m.ModelIdentifier, m.Endpoint()), nil
	case models.AiProviderGemini:
		return NewGeminiProvider(apiKey, m.ModelIdentifier, m.Endpoint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, m.Name)
	}
}
