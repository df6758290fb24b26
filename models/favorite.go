package models

import (
	"time"

	"gorm.io/gorm"
)

// Favorite marks a technician saved by a customer.
type Favorite struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CustomerID   uint           `gorm:"not null;uniqueIndex:ux_favorites_customer_technician,priority:1" json:"customer_id"`
	TechnicianID uint           `gorm:"not null;uniqueIndex:ux_favorites_customer_technician,priority:2" json:"technician_id"`
	Technician   Technician     `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Favorite model
func (Favorite) TableName() string {
	return "favorites"
}
