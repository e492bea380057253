package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod: "cash" | "card" | "credit" | "mobile_payment"
type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "cash"
	PaymentCard          PaymentMethod = "card"
	PaymentCredit        PaymentMethod = "credit"
	PaymentMobilePayment PaymentMethod = "mobile_payment"
)

// Valid reports whether m is one of the defined payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentCredit, PaymentMobilePayment:
		return true
	}
	return false
}

// SalesOrder is written exactly once per posting and never modified afterwards.
// Balance is the part of Total left on the customer's account (credit sales only).
type SalesOrder struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uni_sales_orders_org_number,priority:1"`
	CustomerID     *uuid.UUID      `gorm:"type:uuid;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null"`
	SaleNumber     string          `gorm:"not null;uniqueIndex:uni_sales_orders_org_number,priority:2"`
	SaleDate       time.Time       `gorm:"not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Balance        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ChangeDue      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Notes          *string
	CreatedAt      time.Time

	Items    []SalesLineItem `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
	Customer *Customer       `gorm:"foreignKey:CustomerID"`
}

// SalesLineItem is one basket line. BatchID holds the single batch that served
// the line, or the last batch touched when the line spans several; the full
// split lives in Allocations.
type SalesLineItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	DrugID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID      *uuid.UUID      `gorm:"type:uuid"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Drug        *Drug                  `gorm:"foreignKey:DrugID"`
	Allocations []SalesBatchAllocation `gorm:"foreignKey:LineItemID;constraint:OnDelete:CASCADE"`
}

// SalesBatchAllocation records how many units of a line came out of one batch.
type SalesBatchAllocation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LineItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	BatchID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity   int       `gorm:"not null"`

	Batch *InventoryBatch `gorm:"foreignKey:BatchID"`
}
