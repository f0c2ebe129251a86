package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyCallbackSignature checks the signature delivered with the client-side
// success redirect. The gateway signs "order_id|payment_id" with the key
// secret (HMAC-SHA256, hex). Comparison is constant-time.
func VerifyCallbackSignature(orderID, paymentID, signature, keySecret string) bool {
	sig := strings.TrimSpace(signature)
	secret := strings.TrimSpace(keySecret)
	if sig == "" || secret == "" || orderID == "" || paymentID == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body using the shared webhook secret. This is a different
// signing scheme from the redirect callback: the HMAC covers the body bytes
// as delivered. Comparison is constant-time.
func VerifyWebhookSignature(payload []byte, signature, webhookSecret string) bool {
	sig := strings.TrimSpace(signature)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}
