package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAiModelApplyConfigUpdate(t *testing.T) {
	m := &AiModel{Name: "openai", ModelIdentifier: "gpt-4o-mini"}

	require.NoError(t, m.ApplyConfigUpdate("sk-secret", "https://api.example.com"))
	assert.Equal(t, "sk-secret", m.APIKey())
	assert.Equal(t, "https://api.example.com", m.Endpoint())
}

func TestAiModelBlankFieldsKeepStoredValues(t *testing.T) {
	m := &AiModel{Name: "openai", ModelIdentifier: "gpt-4o-mini"}
	require.NoError(t, m.ApplyConfigUpdate("sk-secret", "https://api.example.com"))

	// An edit form round trip without the secret must not clobber it.
	require.NoError(t, m.ApplyConfigUpdate("", "https://other.example.com"))
	assert.Equal(t, "sk-secret", m.APIKey())
	assert.Equal(t, "https://other.example.com", m.Endpoint())

	require.NoError(t, m.ApplyConfigUpdate("sk-rotated", ""))
	assert.Equal(t, "sk-rotated", m.APIKey())
	assert.Equal(t, "https://other.example.com", m.Endpoint())

	require.NoError(t, m.ApplyConfigUpdate("  ", "  "))
	assert.Equal(t, "sk-rotated", m.APIKey())
	assert.Equal(t, "https://other.example.com", m.Endpoint())
}

func TestAiModelConfigCollapsesToNullWhenEmpty(t *testing.T) {
	m := &AiModel{Name: "gemini", ModelIdentifier: "gemini-1.5-flash"}

	require.NoError(t, m.ApplyConfigUpdate("", ""))
	assert.Nil(t, m.ConfigJSON)
	assert.Equal(t, "", m.APIKey())
	assert.Equal(t, "", m.Endpoint())
}

func TestAiModelMalformedConfigTreatedAsEmpty(t *testing.T) {
	broken := "{not json"
	m := &AiModel{Name: "openai", ConfigJSON: &broken}

	assert.Equal(t, "", m.APIKey())
	assert.Equal(t, "", m.Endpoint())
}

func TestAiModelProviderName(t *testing.T) {
	m := &AiModel{Name: "  OpenAI "}
	assert.Equal(t, "openai", m.ProviderName())
}
