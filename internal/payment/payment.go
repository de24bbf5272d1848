// Package payment creates provider-hosted checkout preferences for orders
// and maps gateway callbacks onto order status transitions.
package payment

import (
	"context"
	"errors"
)

// ErrExternal marks gateway failures; the handler surfaces them as a
// payment-unavailable response without retrying (a retry could create a
// duplicate preference).
var ErrExternal = errors.New("payment gateway")

type PreferenceRequest struct {
	OrderID    uint
	Title      string
	Amount     float64
	PayerEmail string
	PayerName  string
	SuccessURL string
	FailureURL string
	PendingURL string
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Gateway is the capability the checkout flow needs from a payment
// provider; tests substitute a fake.
type Gateway interface {
	CreatePreference(ctx context.Context, accessToken string, req PreferenceRequest) (*Preference, error)
}
