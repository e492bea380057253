package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	From       string `form:"from"` // YYYY-MM-DD, inclusive
	To         string `form:"to"`   // YYYY-MM-DD, inclusive
	CustomerID string `form:"customer_id" validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SaleLineRequest is one basket line. UnitPrice falls back to the catalog
// price when omitted.
type SaleLineRequest struct {
	DrugID    string           `json:"drug_id"    validate:"required,uuid"`
	Quantity  int              `json:"quantity"   validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
}

type PostSaleRequest struct {
	CustomerID    *string           `json:"customer_id"    validate:"omitempty,uuid"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card credit mobile_payment"`
	LineItems     []SaleLineRequest `json:"line_items"     validate:"required,min=1,dive"`
	Tax           decimal.Decimal   `json:"tax"            validate:"min=0"`
	Discount      decimal.Decimal   `json:"discount"       validate:"min=0"`
	// AmountPaid defaults to the computed total (0 for credit sales).
	AmountPaid *decimal.Decimal `json:"amount_paid" validate:"omitempty,min=0"`
	// Total, when sent, must match the server-computed total.
	Total *decimal.Decimal `json:"total"`
	Notes *string          `json:"notes" validate:"omitempty,max=1000"`
	// CustomerEmail: optional; when present the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BatchAllocationResponse struct {
	BatchID   string `json:"batch_id"`
	LotNumber string `json:"lot_number,omitempty"`
	Quantity  int    `json:"quantity"`
}

type SaleLineResponse struct {
	ID          string                    `json:"id"`
	DrugID      string                    `json:"drug_id"`
	DrugName    string                    `json:"drug_name,omitempty"`
	BatchID     *string                   `json:"batch_id"`
	Quantity    int                       `json:"quantity"`
	UnitPrice   decimal.Decimal           `json:"unit_price"`
	LineTotal   decimal.Decimal           `json:"line_total"`
	Allocations []BatchAllocationResponse `json:"allocations"`
}

type SaleResponse struct {
	SaleID        string             `json:"sale_id"`
	SaleNumber    string             `json:"sale_number"`
	SaleDate      string             `json:"sale_date"`
	CustomerID    *string            `json:"customer_id"`
	UserID        string             `json:"user_id"`
	PaymentMethod string             `json:"payment_method"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Tax           decimal.Decimal    `json:"tax"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	Balance       decimal.Decimal    `json:"balance"`
	ChangeDue     decimal.Decimal    `json:"change_due"`
	Notes         *string            `json:"notes,omitempty"`
	LineItems     []SaleLineResponse `json:"line_items"`
	// Shortfalls lists units that could not be allocated (only when overselling is allowed).
	Shortfalls map[string]int `json:"shortfalls,omitempty"`
}
