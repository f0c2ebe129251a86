package models

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"strings"
	"time"

	"gorm.io/gorm"
)

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const (
	apiKeyPrefix    = "pmk_"
	apiSecretPrefix = "pms_"
)

// ApiKey is a named key/secret credential pair for the parse API. The key is
// the public lookup identifier; the secret is stored hashed and verified in
// constant time.
type ApiKey struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Name       string         `gorm:"type:varchar(100);not null" json:"name"`
	Key        string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"key"`
	SecretHash string         `gorm:"type:char(64);not null" json:"-"`
	IsActive   bool           `gorm:"default:true;index" json:"is_active"`
	LastUsedAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_used_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// NewApiKey generates a credential pair for a user. The raw secret is
// returned exactly once; only its hash is persisted.
func NewApiKey(userID uint, name string) (*ApiKey, string, error) {
	key, err := randomToken(apiKeyPrefix, 20)
	if err != nil {
		return nil, "", err
	}
	secret, err := randomToken(apiSecretPrefix, 32)
	if err != nil {
		return nil, "", err
	}

	ak := &ApiKey{
		UserID:     userID,
		Name:       name,
		Key:        key,
		SecretHash: HashAPISecret(secret),
		IsActive:   true,
	}
	return ak, secret, nil
}

// VerifySecret checks the presented secret against the stored hash without
// leaking timing information.
func (ak *ApiKey) VerifySecret(secret string) bool {
	presented := HashAPISecret(secret)
	return hmac.Equal([]byte(presented), []byte(ak.SecretHash))
}

// MarkUsed updates the last-used timestamp on the struct.
func (ak *ApiKey) MarkUsed() {
	now := time.Now()
	ak.LastUsedAt = &now
}

// HashAPISecret returns the SHA-256 hash for the provided API secret.
func HashAPISecret(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func randomToken(prefix string, size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + strings.ToLower(apiKeyEncoding.EncodeToString(b)), nil
}
