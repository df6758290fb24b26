package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// PaymentIntent is the provider-neutral view of an attempted charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64 // minor units
	Currency     string
	Metadata     map[string]string
}

// RefundResult is the provider-neutral view of a refund.
type RefundResult struct {
	ID     string
	Amount int64 // minor units
	Status string
}

// PaymentProvider abstracts the payment processor. The real implementation
// talks to Stripe; tests use MockPaymentProvider.
type PaymentProvider interface {
	CreateIntent(amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	RetrieveIntent(id string) (*PaymentIntent, error)
	CreateRefund(intentID string, amount *int64, reason string) (*RefundResult, error)
}

// StripeProvider implements PaymentProvider against the Stripe API.
type StripeProvider struct{}

// NewStripeProvider configures the global Stripe client with the secret key
// and returns a provider. Returns nil when no key is configured so callers
// surface 503 instead of crashing on the first charge.
func NewStripeProvider(secretKey string) *StripeProvider {
	if secretKey == "" {
		return nil
	}
	stripe.Key = secretKey
	return &StripeProvider{}
}

// CreateIntent creates a Stripe PaymentIntent. Card data never touches this
// server; the client confirms with the returned client secret.
func (p *StripeProvider) CreateIntent(amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return fromStripeIntent(pi), nil
}

// RetrieveIntent fetches the current state of a PaymentIntent.
func (p *StripeProvider) RetrieveIntent(id string) (*PaymentIntent, error) {
	pi, err := paymentintent.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return fromStripeIntent(pi), nil
}

// CreateRefund refunds an intent, fully when amount is nil.
func (p *StripeProvider) CreateRefund(intentID string, amount *int64, reason string) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(*amount)
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return &RefundResult{
		ID:     r.ID,
		Amount: r.Amount,
		Status: string(r.Status),
	}, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
