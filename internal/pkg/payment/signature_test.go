package payment

import (
	"strings"
	"testing"
)

func TestVerifyCallbackSignature(t *testing.T) {
	secret := "test_key_secret"
	valid := signCallback("order_abc", "pay_123", secret)

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		secret    string
		want      bool
	}{
		{"valid signature", "order_abc", "pay_123", valid, secret, true},
		{"uppercase hex accepted", "order_abc", "pay_123", strings.ToUpper(valid), secret, true},
		{"wrong payment id", "order_abc", "pay_999", valid, secret, false},
		{"wrong order id", "order_xyz", "pay_123", valid, secret, false},
		{"wrong secret", "order_abc", "pay_123", valid, "other_secret", false},
		{"empty signature", "order_abc", "pay_123", "", secret, false},
		{"empty secret", "order_abc", "pay_123", valid, "", false},
		{"empty order id", "", "pay_123", valid, secret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyCallbackSignature(tt.orderID, tt.paymentID, tt.signature, tt.secret)
			if got != tt.want {
				t.Fatalf("VerifyCallbackSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "test_webhook_secret"
	payload := []byte(`{"event":"payment.captured"}`)
	valid := signWebhook(payload, secret)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
		want      bool
	}{
		{"valid signature", payload, valid, secret, true},
		{"signature with surrounding whitespace", payload, " " + valid + "\n", secret, true},
		{"tampered payload", []byte(`{"event":"payment.failed"}`), valid, secret, false},
		{"wrong secret", payload, valid, "other_secret", false},
		{"empty signature", payload, "", secret, false},
		{"empty secret", payload, valid, "", false},
		{"empty payload still verifiable", []byte{}, signWebhook([]byte{}, secret), secret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyWebhookSignature(tt.payload, tt.signature, tt.secret)
			if got != tt.want {
				t.Fatalf("VerifyWebhookSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{0, 0},
		{1, 100},
		{499.00, 49900},
		{999.99, 99999},
		{0.01, 1},
		{1234.56, 123456},
	}

	for _, tt := range tests {
		if got := ToMinorUnits(tt.price); got != tt.want {
			t.Fatalf("ToMinorUnits(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}
