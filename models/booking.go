package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus is the state variable of the repair workflow.
type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "pending"
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusBidAccepted    BookingStatus = "bid_accepted"
	BookingStatusScheduled      BookingStatus = "scheduled"
	BookingStatusInProgress     BookingStatus = "in_progress"
	BookingStatusCompleted      BookingStatus = "completed"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

// Payment states a booking moves through.
const (
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusPaid              = "paid"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// bookingTransitions is the legal-transition table. Every status write in
// the workflow goes through CanTransition; there are no ad hoc status
// checks elsewhere.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:        {BookingStatusConfirmed, BookingStatusBidAccepted, BookingStatusCancelled},
	BookingStatusPendingPayment: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusBidAccepted:    {BookingStatusConfirmed, BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusConfirmed:      {BookingStatusScheduled, BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusScheduled:      {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress:     {BookingStatusCompleted},
	BookingStatusCompleted:      {},
	BookingStatusCancelled:      {},
}

// CanTransition reports whether moving from to next is legal.
func CanTransition(from, next BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking represents a customer's repair request, the central workflow
// object. TechnicianID is null until assignment by direct accept or bid
// acceptance and is set exactly once.
type Booking struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CustomerID       uint           `gorm:"not null;index" json:"customer_id"`
	Customer         Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TechnicianID     *uint          `gorm:"index" json:"technician_id"`
	Technician       *Technician    `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	DeviceType       string         `gorm:"not null" json:"device_type"`
	DeviceBrand      string         `json:"device_brand"`
	DeviceModel      string         `json:"device_model"`
	IssueDescription string         `gorm:"not null" json:"issue_description"`
	Status           BookingStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus    string         `gorm:"not null;default:'unpaid'" json:"payment_status"`
	Price            *float64       `json:"price"`          // set on bid acceptance or direct assignment
	EstimatedCost    *float64       `json:"estimated_cost"` // customer's ballpark at creation
	Address          string         `json:"address"`
	ScheduledDate    *time.Time     `json:"scheduled_date"`
	CompletedDate    *time.Time     `json:"completed_date"`
	PhotoS3Key       *string        `json:"photo_s3_key"`
	PhotoURL         *string        `gorm:"-" json:"photo_url,omitempty"` // computed, presigned URL
	Bids             []Bid          `gorm:"foreignKey:BookingID" json:"bids,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}
