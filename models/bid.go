package models

import (
	"time"

	"gorm.io/gorm"
)

// BidStatus is the state of a technician's offer on an unassigned booking.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

// Bid is a technician's proposed price for an unassigned booking. The
// composite unique index makes a duplicate submission a constraint
// violation rather than relying on a check-then-insert race.
type Bid struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	BookingID    uint           `gorm:"not null;uniqueIndex:ux_bids_booking_technician,priority:1" json:"booking_id"`
	Booking      Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	TechnicianID uint           `gorm:"not null;uniqueIndex:ux_bids_booking_technician,priority:2" json:"technician_id"`
	Technician   Technician     `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	Amount       float64        `gorm:"not null;check:amount > 0" json:"amount"`
	Message      string         `json:"message"`
	Status       BidStatus      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Bid model
func (Bid) TableName() string {
	return "bids"
}
