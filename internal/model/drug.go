package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Drug is a catalog entry. Identity is immutable; Price and ReorderLevel are not.
// Drugs are never physically deleted while batches reference them.
type Drug struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name           string    `gorm:"not null"`
	GenericName    *string
	Manufacturer   *string
	Form           string          `gorm:"type:varchar(20);not null;default:'other'"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ReorderLevel   int             `gorm:"not null;default:10"`
	// Barcode is unique per organization when present
	Barcode     *string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultReorderLevel applies when a drug is created without a threshold.
const DefaultReorderLevel = 10
