package dto

import "github.com/shopspring/decimal"

type CreateCustomerRequest struct {
	FirstName   string          `json:"first_name"   validate:"required,min=1,max=255"`
	LastName    string          `json:"last_name"    validate:"required,min=1,max=255"`
	Email       *string         `json:"email"        validate:"omitempty,email"`
	Phone       *string         `json:"phone"        validate:"omitempty,max=50"`
	Address     *string         `json:"address"`
	Allergies   *string         `json:"allergies"`
	AllowCredit bool            `json:"allow_credit"`
	CreditLimit decimal.Decimal `json:"credit_limit" validate:"min=0"`
}

// CustomerFilter is bound from the query string of GET /v1/customers.
type CustomerFilter struct {
	Search string `form:"search"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CustomerResponse struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Address        *string         `json:"address"`
	Allergies      *string         `json:"allergies"`
	AllowCredit    bool            `json:"allow_credit"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// CreditPaymentRequest settles part or all of a customer's outstanding balance.
type CreditPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card mobile_payment"`
	SaleID        *string         `json:"sale_id"        validate:"omitempty,uuid"`
	Notes         *string         `json:"notes"          validate:"omitempty,max=1000"`
}

type CreditPaymentResponse struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   string          `json:"payment_date"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}
