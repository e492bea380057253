package repository

import (
	"context"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository is the customer credit ledger data access contract.
type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, orgID uuid.UUID, filter dto.CustomerFilter) ([]model.Customer, int64, error)

	// Tx variants run inside the caller's transaction.
	FindForUpdateTx(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*model.Customer, error)
	UpdateBalanceTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, balance decimal.Decimal) error
	CreatePaymentTx(ctx context.Context, tx *gorm.DB, p *model.CreditPayment) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&c).Error
	return &c, err
}

func (r *customerRepo) List(ctx context.Context, orgID uuid.UUID, filter dto.CustomerFilter) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Customer{}).Where("organization_id = ?", orgID)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like, like)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("last_name ASC, first_name ASC").Limit(filter.Limit).Offset(offset).Find(&customers).Error
	return customers, total, err
}

func (r *customerRepo) FindForUpdateTx(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&c).Error
	return &c, err
}

func (r *customerRepo) UpdateBalanceTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("current_balance", balance).Error
}

func (r *customerRepo) CreatePaymentTx(ctx context.Context, tx *gorm.DB, p *model.CreditPayment) error {
	return tx.WithContext(ctx).Create(p).Error
}
