package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gig is a fixed-price repair offer published by a technician.
type Gig struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	TechnicianID uint                        `gorm:"not null;index" json:"technician_id"`
	Technician   Technician                  `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	Title        string                      `gorm:"not null" json:"title"`
	Description  string                      `json:"description"`
	DeviceTypes  datatypes.JSONSlice[string] `json:"device_types"`
	Price        float64                     `gorm:"not null;check:price > 0" json:"price"`
	Active       bool                        `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	DeletedAt    gorm.DeletedAt              `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Gig model
func (Gig) TableName() string {
	return "gigs"
}
