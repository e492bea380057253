package dto

import "github.com/shopspring/decimal"

// ─── Drug ────────────────────────────────────────────────────────────────────

type CreateDrugRequest struct {
	Name         string          `json:"name"          validate:"required,min=1,max=255"`
	GenericName  *string         `json:"generic_name"  validate:"omitempty,max=255"`
	Manufacturer *string         `json:"manufacturer"  validate:"omitempty,max=255"`
	Form         string          `json:"form"          validate:"omitempty,oneof=tablet capsule syrup injection cream drops inhaler other"`
	Price        decimal.Decimal `json:"price"         validate:"min=0"`
	ReorderLevel *int            `json:"reorder_level" validate:"omitempty,min=0"`
	Barcode      *string         `json:"barcode"       validate:"omitempty,min=1,max=100"`
	Description  *string         `json:"description"`
}

// UpdateDrugRequest patches mutable drug attributes; nil fields are left as is.
type UpdateDrugRequest struct {
	Name         *string          `json:"name"          validate:"omitempty,min=1,max=255"`
	GenericName  *string          `json:"generic_name"  validate:"omitempty,max=255"`
	Manufacturer *string          `json:"manufacturer"  validate:"omitempty,max=255"`
	Price        *decimal.Decimal `json:"price"         validate:"omitempty,min=0"`
	ReorderLevel *int             `json:"reorder_level" validate:"omitempty,min=0"`
	Barcode      *string          `json:"barcode"       validate:"omitempty,min=1,max=100"`
	Description  *string          `json:"description"`
}

// DrugFilter is bound from the query string of GET /v1/drugs.
type DrugFilter struct {
	Search string `form:"search"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type DrugResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	GenericName  *string         `json:"generic_name"`
	Manufacturer *string         `json:"manufacturer"`
	Form         string          `json:"form"`
	Price        decimal.Decimal `json:"price"`
	ReorderLevel int             `json:"reorder_level"`
	Barcode      *string         `json:"barcode"`
	Description  *string         `json:"description"`
	TotalStock   int             `json:"total_stock"`
}

type DrugListResponse struct {
	Data  []DrugResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// BarcodeLookupResponse is the scanner payload for GET /v1/products/barcode/:code.
type BarcodeLookupResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Barcode string          `json:"barcode"`
	Stock   int             `json:"stock"`
}

// ─── Batches ─────────────────────────────────────────────────────────────────

type ReceiveBatchRequest struct {
	LotNumber    string           `json:"lot_number"    validate:"required,min=1,max=100"`
	Quantity     int              `json:"quantity"      validate:"required,min=1"`
	ExpiryDate   string           `json:"expiry_date"   validate:"required,datetime=2006-01-02"`
	PurchaseDate *string          `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	CostPrice    *decimal.Decimal `json:"cost_price"    validate:"omitempty,min=0"`
}

type BatchResponse struct {
	ID             string           `json:"id"`
	DrugID         string           `json:"drug_id"`
	DrugName       string           `json:"drug_name,omitempty"`
	LotNumber      string           `json:"lot_number"`
	QuantityOnHand int              `json:"quantity_on_hand"`
	ExpiryDate     string           `json:"expiry_date"`
	PurchaseDate   *string          `json:"purchase_date"`
	CostPrice      *decimal.Decimal `json:"cost_price"`
	Status         string           `json:"status"`
	DaysToExpiry   int              `json:"days_to_expiry"`
}
