package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries a running credit balance (amount owed). CurrentBalance is
// only mutated by sale posting and credit payments.
type Customer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	FirstName      string    `gorm:"not null"`
	LastName       string    `gorm:"not null"`
	Email          *string
	Phone          *string
	Address        *string
	Allergies      *string
	AllowCredit    bool            `gorm:"not null;default:false"`
	CreditLimit    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt      time.Time
}

// FullName joins first and last name.
func (c *Customer) FullName() string { return c.FirstName + " " + c.LastName }

// CreditPayment reduces a customer's CurrentBalance. Immutable once written.
type CreditPayment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID         *uuid.UUID      `gorm:"type:uuid"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null"`
	Notes          *string
	PaymentDate    time.Time
}
