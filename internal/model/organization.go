package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant (one pharmacy). Every other record is scoped to one.
type Organization struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string    `gorm:"uniqueIndex;not null"`
	Slug       string    `gorm:"uniqueIndex;not null"`
	OwnerEmail string    `gorm:"not null"`
	Phone      *string
	Address    *string
	IsActive   bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
}

// User is a staff member of one organization.
// Role: "admin" | "pharmacist"
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Username       string    `gorm:"not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null"`
	FullName       string    `gorm:"not null"`
	Role           string    `gorm:"type:varchar(20);not null"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time
}

const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
)
