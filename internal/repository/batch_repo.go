package repository

import (
	"context"
	"time"

	"pharmacyos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchRepository is the batch ledger data access contract.
type BatchRepository interface {
	Create(ctx context.Context, b *model.InventoryBatch) error
	ListByDrug(ctx context.Context, drugID uuid.UUID) ([]model.InventoryBatch, error)

	// TotalStock sums quantity_on_hand over every batch of the drug, any status.
	TotalStock(ctx context.Context, drugID uuid.UUID) (int, error)
	// StockByDrug returns TotalStock for every drug of the organization that has batches.
	StockByDrug(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]int, error)

	// ListActiveByExpiry returns sellable batches (active, quantity > 0) in FEFO order.
	ListActiveByExpiry(ctx context.Context, drugID uuid.UUID) ([]model.InventoryBatch, error)
	// LockActiveByExpiryTx is ListActiveByExpiry with SELECT ... FOR UPDATE.
	// Rows are locked in (expiry_date, id) order so concurrent postings never
	// acquire the same batches in opposite order.
	LockActiveByExpiryTx(ctx context.Context, tx *gorm.DB, drugID uuid.UUID) ([]model.InventoryBatch, error)
	UpdateQuantityTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int, status model.BatchStatus) error

	// ExpiringWithin returns batches of the organization, any status, whose
	// expiry date lies in [from, to], ascending, with Drug preloaded.
	ExpiringWithin(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]model.InventoryBatch, error)
	// ListForExport returns every batch of the organization with Drug preloaded.
	ListForExport(ctx context.Context, orgID uuid.UUID) ([]model.InventoryBatch, error)
	// MarkExpired flips active and low_stock batches that expired before the
	// given date to expired, across all organizations.
	MarkExpired(ctx context.Context, before time.Time) (int64, error)
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) Create(ctx context.Context, b *model.InventoryBatch) error {
	return r.db.WithContext(ctx).Omit("Drug").Create(b).Error
}

func (r *batchRepo) ListByDrug(ctx context.Context, drugID uuid.UUID) ([]model.InventoryBatch, error) {
	var batches []model.InventoryBatch
	err := r.db.WithContext(ctx).
		Where("drug_id = ?", drugID).
		Order("expiry_date ASC, id ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) TotalStock(ctx context.Context, drugID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.InventoryBatch{}).
		Select("COALESCE(SUM(quantity_on_hand), 0)").
		Where("drug_id = ?", drugID).
		Scan(&total).Error
	return total, err
}

func (r *batchRepo) StockByDrug(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		DrugID uuid.UUID
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&model.InventoryBatch{}).
		Select("inventory_batches.drug_id AS drug_id, COALESCE(SUM(inventory_batches.quantity_on_hand), 0) AS total").
		Joins("JOIN drugs ON drugs.id = inventory_batches.drug_id").
		Where("drugs.organization_id = ?", orgID).
		Group("inventory_batches.drug_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stock := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		stock[row.DrugID] = row.Total
	}
	return stock, nil
}

func activeByExpiry(q *gorm.DB, drugID uuid.UUID) *gorm.DB {
	return q.Where("drug_id = ? AND status = ? AND quantity_on_hand > 0", drugID, model.BatchActive).
		Order("expiry_date ASC, id ASC")
}

func (r *batchRepo) ListActiveByExpiry(ctx context.Context, drugID uuid.UUID) ([]model.InventoryBatch, error) {
	var batches []model.InventoryBatch
	err := activeByExpiry(r.db.WithContext(ctx), drugID).Find(&batches).Error
	return batches, err
}

func (r *batchRepo) LockActiveByExpiryTx(ctx context.Context, tx *gorm.DB, drugID uuid.UUID) ([]model.InventoryBatch, error) {
	var batches []model.InventoryBatch
	err := activeByExpiry(tx.WithContext(ctx), drugID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) UpdateQuantityTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int, status model.BatchStatus) error {
	return tx.WithContext(ctx).Model(&model.InventoryBatch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"quantity_on_hand": quantity, "status": status}).Error
}

func (r *batchRepo) ExpiringWithin(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]model.InventoryBatch, error) {
	var batches []model.InventoryBatch
	err := r.db.WithContext(ctx).
		Joins("JOIN drugs ON drugs.id = inventory_batches.drug_id").
		Where("drugs.organization_id = ?", orgID).
		Where("inventory_batches.expiry_date BETWEEN ? AND ?", sqlDate(from), sqlDate(to)).
		Preload("Drug").
		Order("inventory_batches.expiry_date ASC, inventory_batches.id ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListForExport(ctx context.Context, orgID uuid.UUID) ([]model.InventoryBatch, error) {
	var batches []model.InventoryBatch
	err := r.db.WithContext(ctx).
		Joins("JOIN drugs ON drugs.id = inventory_batches.drug_id").
		Where("drugs.organization_id = ?", orgID).
		Preload("Drug").
		Order("drugs.name ASC, inventory_batches.expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) MarkExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.InventoryBatch{}).
		Where("expiry_date < ? AND status IN ?", sqlDate(before), []model.BatchStatus{model.BatchActive, model.BatchLowStock}).
		Update("status", model.BatchExpired)
	return res.RowsAffected, res.Error
}

// sqlDate renders t as a DATE literal in t's own location so the comparison
// against expiry_date never goes through the session time zone.
func sqlDate(t time.Time) string { return t.Format("2006-01-02") }
