package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types emitted by workflow transitions.
const (
	NotificationBookingCreated   = "booking_created"
	NotificationBookingAssigned  = "booking_assigned"
	NotificationBookingStatus    = "booking_status"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationBidReceived      = "bid_received"
	NotificationBidAccepted      = "bid_accepted"
	NotificationPaymentReceived  = "payment_received"
	NotificationPaymentRefunded  = "payment_refunded"
)

// Notification is an outbox row: appended in the same transaction as the
// state change it announces, then drained by the background dispatcher.
// Dispatch failures never affect the originating transition.
type Notification struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	User       User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title      string         `gorm:"not null" json:"title"`
	Message    string         `gorm:"not null" json:"message"`
	Type       string         `gorm:"not null" json:"type"`
	Data       datatypes.JSON `json:"data"`
	Read       bool           `gorm:"not null;default:false" json:"read"`
	Dispatched bool           `gorm:"not null;default:false;index" json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
