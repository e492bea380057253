package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus: "active" | "low_stock" | "expired" | "recalled"
type BatchStatus string

const (
	BatchActive   BatchStatus = "active"
	BatchLowStock BatchStatus = "low_stock"
	BatchExpired  BatchStatus = "expired"
	BatchRecalled BatchStatus = "recalled"
)

// InventoryBatch is a received lot of one drug. QuantityOnHand never goes negative
// (enforced by a CHECK constraint); a deduction that drives it to zero flips the
// status to low_stock.
type InventoryBatch struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DrugID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	LotNumber      string           `gorm:"not null"`
	QuantityOnHand int              `gorm:"not null;default:0"`
	ExpiryDate     time.Time        `gorm:"type:date;not null;index"`
	PurchaseDate   *time.Time       `gorm:"type:date"`
	CostPrice      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         BatchStatus      `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt      time.Time

	Drug *Drug `gorm:"foreignKey:DrugID"`
}
