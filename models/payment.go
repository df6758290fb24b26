package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment states as recorded from the provider.
const (
	PaymentRecordSucceeded         = "succeeded"
	PaymentRecordRefunded          = "refunded"
	PaymentRecordPartiallyRefunded = "partially_refunded"
)

// Payment records a captured charge. StripePaymentIntentID is the
// idempotency key: the unique index guarantees at most one row per provider
// intent even when the client confirmation races the webhook.
type Payment struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	BookingID             uint           `gorm:"not null;index" json:"booking_id"`
	Booking               Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	CustomerID            uint           `gorm:"not null;index" json:"customer_id"`
	Amount                float64        `gorm:"not null" json:"amount"`
	Currency              string         `gorm:"not null;default:'usd'" json:"currency"`
	StripePaymentIntentID string         `gorm:"uniqueIndex;not null" json:"stripe_payment_intent_id"`
	Status                string         `gorm:"not null" json:"status"`
	RefundID              *string        `json:"refund_id"`
	RefundedAt            *time.Time     `json:"refunded_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
