package repository

import (
	"context"
	"time"

	"pharmacyos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows GET /v1/sales. Zero values disable a criterion.
type SaleFilter struct {
	From       *time.Time
	To         *time.Time // exclusive
	CustomerID *uuid.UUID
	Page       int
	Limit      int
}

// SaleRepository persists posted sales. Orders are immutable once created.
type SaleRepository interface {
	// CreateTx inserts the order with its line items and batch allocations.
	CreateTx(ctx context.Context, tx *gorm.DB, order *model.SalesOrder) error
	// CountNumbersWithPrefixTx counts sale numbers equal to prefix or prefix-N.
	CountNumbersWithPrefixTx(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, prefix string) (int64, error)
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.SalesOrder, error)
	List(ctx context.Context, orgID uuid.UUID, filter SaleFilter) ([]model.SalesOrder, int64, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(ctx context.Context, tx *gorm.DB, order *model.SalesOrder) error {
	return tx.WithContext(ctx).Omit("Customer", "Items.Drug", "Items.Allocations.Batch").Create(order).Error
}

func (r *saleRepo) CountNumbersWithPrefixTx(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, prefix string) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&model.SalesOrder{}).
		Where("organization_id = ? AND (sale_number = ? OR sale_number LIKE ?)", orgID, prefix, prefix+"-%").
		Count(&n).Error
	return n, err
}

func (r *saleRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.SalesOrder, error) {
	var o model.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Items.Drug").Preload("Items.Allocations.Batch").Preload("Customer").
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&o).Error
	return &o, err
}

func (r *saleRepo) List(ctx context.Context, orgID uuid.UUID, filter SaleFilter) ([]model.SalesOrder, int64, error) {
	var orders []model.SalesOrder
	var total int64

	q := r.db.WithContext(ctx).Model(&model.SalesOrder{}).Where("organization_id = ?", orgID)
	if filter.From != nil {
		q = q.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("sale_date < ?", *filter.To)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Drug").Preload("Items.Allocations.Batch").
		Order("sale_date DESC, sale_number DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}
