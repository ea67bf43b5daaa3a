package payment

import (
	"context"

	"rally-booking/models/payment"

	"github.com/shopspring/decimal"
)

// IntentRequest asks a provider to set up a payment.
type IntentRequest struct {
	Amount      decimal.Decimal
	Currency    payment.Currency
	Reference   string // our idempotency key, echoed back in webhooks
	Description string
}

// Intent is the provider's answer: where to send the user, and the
// transaction id everything else is keyed on.
type Intent struct {
	PaymentURL string
	ExternalID string
}

// Outcome is a payment result, parsed from a webhook or fetched by polling.
type Outcome struct {
	ExternalID string
	Status     payment.Status
}

// Gateway is the whole surface the lifecycle engine needs from a payment
// provider. Both processors implement it; callers never see provider wire
// formats.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	Verify(ctx context.Context, externalID string) (payment.Status, error)
	ParseWebhook(raw []byte) (*Outcome, error)
}

// ForMethod picks the gateway matching a grant's payment method.
func ForMethod(method payment.Method, wallet, intl Gateway) Gateway {
	if method == payment.MethodInternational {
		return intl
	}
	return wallet
}
