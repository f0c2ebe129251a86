package payment

import "time"

// ProviderRazorpay is the provider tag stored on payments created here.
const ProviderRazorpay = "razorpay"

// OrderResult is what the checkout page needs to open the gateway widget.
type OrderResult struct {
	PaymentID   uint   `json:"payment_id"`
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
}

// gatewayOrder mirrors the fields of the provider's order entity we consume.
type gatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// webhookEnvelope is the raw shape of a provider webhook POST body.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Clock abstracts time for the reconciliation engine so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock { return systemClock{} }
