package models

import (
	"time"

	"gorm.io/gorm"
)

// Review moderation states. Only published reviews feed the technician
// rating aggregate.
const (
	ReviewStatusPublished = "published"
	ReviewStatusHidden    = "hidden"
)

// Review is a customer's rating of a completed booking. One review per
// booking, enforced by the unique index.
type Review struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	BookingID    uint           `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking      Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	CustomerID   uint           `gorm:"not null;index" json:"customer_id"`
	Customer     Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TechnicianID uint           `gorm:"not null;index" json:"technician_id"`
	Technician   Technician     `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	Rating       int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment      string         `json:"comment"`
	Status       string         `gorm:"not null;default:'published'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}
