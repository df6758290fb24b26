package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockPaymentProvider is an in-memory PaymentProvider for tests.
type MockPaymentProvider struct {
	mu      sync.RWMutex
	intents map[string]*PaymentIntent
	refunds map[string]*RefundResult
	// FailNext makes the next call return a provider error.
	FailNext bool
}

// NewMockPaymentProvider creates an empty mock provider.
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{
		intents: make(map[string]*PaymentIntent),
		refunds: make(map[string]*RefundResult),
	}
}

// CreateIntent records an intent in requires_payment_method state.
func (m *MockPaymentProvider) CreateIntent(amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	if err := m.failIfRequested(); err != nil {
		return nil, err
	}

	id := "pi_mock_" + uuid.NewString()
	intent := &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}

	m.mu.Lock()
	m.intents[id] = intent
	m.mu.Unlock()

	return intent, nil
}

// RetrieveIntent returns a recorded intent.
func (m *MockPaymentProvider) RetrieveIntent(id string) (*PaymentIntent, error) {
	if err := m.failIfRequested(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	intent, ok := m.intents[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no such payment_intent %s", ErrProvider, id)
	}

	copied := *intent
	return &copied, nil
}

// CreateRefund records a refund against an intent.
func (m *MockPaymentProvider) CreateRefund(intentID string, amount *int64, reason string) (*RefundResult, error) {
	if err := m.failIfRequested(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: no such payment_intent %s", ErrProvider, intentID)
	}

	refunded := intent.Amount
	if amount != nil {
		refunded = *amount
	}

	result := &RefundResult{
		ID:     "re_mock_" + uuid.NewString(),
		Amount: refunded,
		Status: "succeeded",
	}
	m.refunds[result.ID] = result
	return result, nil
}

// MarkSucceeded flips a recorded intent to succeeded, simulating the client
// confirming the charge.
func (m *MockPaymentProvider) MarkSucceeded(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if intent, ok := m.intents[id]; ok {
		intent.Status = "succeeded"
	}
}

func (m *MockPaymentProvider) failIfRequested() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("%w: simulated provider failure", ErrProvider)
	}
	return nil
}
