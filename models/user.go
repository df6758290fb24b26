package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a profile can carry. "user" is the default role assigned at
// registration and behaves like "customer" everywhere in the API.
const (
	RoleUser       = "user"
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

// User represents a profile tied 1:1 to an Auth0 identity.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'user'" json:"role"` // user, customer, technician, admin
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsCustomer reports whether the profile may act as a customer.
func (u *User) IsCustomer() bool {
	return u.Role == RoleUser || u.Role == RoleCustomer
}

// IsTechnician reports whether the profile may act as a technician.
func (u *User) IsTechnician() bool {
	return u.Role == RoleTechnician
}

// IsAdmin reports whether the profile may act as an admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
