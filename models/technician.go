package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Technician is the technician-side row created alongside a User profile.
//
// Rating and ReviewCount are derived aggregates over published reviews and
// are written exclusively by the rating service. The job counters and
// earnings fields are written exclusively inside booking workflow
// transactions. The per-star histogram is not stored; the review stats
// endpoint derives it from review rows on demand.
type Technician struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	UserID           uint                        `gorm:"uniqueIndex;not null" json:"user_id"`
	User             User                        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name             string                      `gorm:"not null" json:"name"`
	Email            string                      `gorm:"not null" json:"email"`
	Description      string                      `json:"description"`
	Specialization   string                      `json:"specialization"`
	Expertise        datatypes.JSONSlice[string] `json:"expertise"`
	Brands           datatypes.JSONSlice[string] `json:"brands"`
	HourlyRate       float64                     `gorm:"not null;default:0" json:"hourly_rate"`
	Rating           float64                     `gorm:"not null;default:0" json:"rating"`
	ReviewCount      int                         `gorm:"not null;default:0" json:"review_count"`
	ActiveJobs       int                         `gorm:"not null;default:0" json:"active_jobs"`
	TotalJobs        int                         `gorm:"not null;default:0" json:"total_jobs"`
	CompletedJobs    int                         `gorm:"not null;default:0" json:"completed_jobs"`
	TotalEarnings    float64                     `gorm:"not null;default:0" json:"total_earnings"`
	AvailableBalance float64                     `gorm:"not null;default:0" json:"available_balance"`
	Latitude         *float64                    `json:"latitude"`
	Longitude        *float64                    `json:"longitude"`
	IsVerified       bool                        `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	DeletedAt        gorm.DeletedAt              `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Technician model
func (Technician) TableName() string {
	return "technicians"
}
