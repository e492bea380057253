package service

import (
	"context"
	"strings"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerService manages customers and their credit ledger.
type CustomerService interface {
	CreateCustomer(ctx context.Context, auth AuthContext, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, auth AuthContext, id uuid.UUID) (*dto.CustomerResponse, error)
	ListCustomers(ctx context.Context, auth AuthContext, filter dto.CustomerFilter) (*dto.CustomerListResponse, error)
	// RecordCreditPayment settles part of the outstanding balance. The customer
	// row is locked for the duration of the update.
	RecordCreditPayment(ctx context.Context, auth AuthContext, customerID uuid.UUID, req dto.CreditPaymentRequest) (*dto.CreditPaymentResponse, error)
}

type customerService struct {
	tx        repository.TxRunner
	customers repository.CustomerRepository
	now       func() time.Time
}

func NewCustomerService(tx repository.TxRunner, customers repository.CustomerRepository) CustomerService {
	return &customerService{tx: tx, customers: customers, now: time.Now}
}

func (s *customerService) CreateCustomer(ctx context.Context, auth AuthContext, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, validationf("first_name and last_name are required")
	}
	if req.CreditLimit.IsNegative() {
		return nil, validationf("credit_limit must not be negative")
	}
	c := &model.Customer{
		ID:             uuid.New(),
		OrganizationID: auth.OrganizationID,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Allergies:      req.Allergies,
		AllowCredit:    req.AllowCredit,
		CreditLimit:    req.CreditLimit,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, storageErr("create customer", err)
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func (s *customerService) GetCustomer(ctx context.Context, auth AuthContext, id uuid.UUID) (*dto.CustomerResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	c, err := s.customers.FindByID(ctx, auth.OrganizationID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFoundf("customer %s not found", id)
		}
		return nil, storageErr("find customer", err)
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func (s *customerService) ListCustomers(ctx context.Context, auth AuthContext, filter dto.CustomerFilter) (*dto.CustomerListResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	customers, total, err := s.customers.List(ctx, auth.OrganizationID, filter)
	if err != nil {
		return nil, storageErr("list customers", err)
	}
	data := make([]dto.CustomerResponse, len(customers))
	for i := range customers {
		data[i] = customerToResponse(&customers[i])
	}
	return &dto.CustomerListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *customerService) RecordCreditPayment(ctx context.Context, auth AuthContext, customerID uuid.UUID, req dto.CreditPaymentRequest) (*dto.CreditPaymentResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, validationf("amount must be greater than zero")
	}
	if !isCents(req.Amount) {
		return nil, validationf("amount has more than two decimal places")
	}
	method := model.PaymentMethod(req.PaymentMethod)
	if !method.Valid() || method == model.PaymentCredit {
		return nil, validationf("payment_method must be cash, card or mobile_payment")
	}

	payment := &model.CreditPayment{
		ID:             uuid.New(),
		OrganizationID: auth.OrganizationID,
		CustomerID:     customerID,
		Amount:         req.Amount,
		PaymentMethod:  method,
		Notes:          req.Notes,
		PaymentDate:    s.now(),
	}
	if req.SaleID != nil && *req.SaleID != "" {
		sid, err := uuid.Parse(*req.SaleID)
		if err != nil {
			return nil, validationf("sale_id is not a valid id")
		}
		payment.SaleID = &sid
	}

	var balanceAfter decimal.Decimal
	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		c, err := s.customers.FindForUpdateTx(ctx, tx, auth.OrganizationID, customerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFoundf("customer %s not found", customerID)
			}
			return storageErr("lock customer", err)
		}
		if req.Amount.GreaterThan(c.CurrentBalance) {
			return validationf("payment %s exceeds outstanding balance %s",
				req.Amount.StringFixed(2), c.CurrentBalance.StringFixed(2))
		}
		balanceAfter = c.CurrentBalance.Sub(req.Amount)
		if err := s.customers.UpdateBalanceTx(ctx, tx, c.ID, balanceAfter); err != nil {
			return storageErr("update customer balance", err)
		}
		if err := s.customers.CreatePaymentTx(ctx, tx, payment); err != nil {
			return storageErr("insert credit payment", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("record credit payment", err)
	}

	log.Info().
		Str("customer_id", customerID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("balance_after", balanceAfter.StringFixed(2)).
		Msg("credit payment recorded")

	return &dto.CreditPaymentResponse{
		ID:            payment.ID.String(),
		CustomerID:    customerID.String(),
		Amount:        payment.Amount,
		PaymentMethod: string(payment.PaymentMethod),
		PaymentDate:   payment.PaymentDate.Format(time.RFC3339),
		BalanceAfter:  balanceAfter,
	}, nil
}

func customerToResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:             c.ID.String(),
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		Allergies:      c.Allergies,
		AllowCredit:    c.AllowCredit,
		CreditLimit:    c.CreditLimit,
		CurrentBalance: c.CurrentBalance,
	}
}
