package repository

import (
	"context"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DrugRepository is the catalog data access contract. Every lookup is scoped
// by organization.
type DrugRepository interface {
	Create(ctx context.Context, d *model.Drug) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Drug, error)
	FindByBarcode(ctx context.Context, orgID uuid.UUID, barcode string) (*model.Drug, error)
	List(ctx context.Context, orgID uuid.UUID, filter dto.DrugFilter) ([]model.Drug, int64, error)
	// ListAll returns every drug of the organization ordered by name.
	ListAll(ctx context.Context, orgID uuid.UUID) ([]model.Drug, error)
	Update(ctx context.Context, d *model.Drug) error
}

type drugRepo struct{ db *gorm.DB }

func NewDrugRepository(db *gorm.DB) DrugRepository { return &drugRepo{db: db} }

func (r *drugRepo) Create(ctx context.Context, d *model.Drug) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *drugRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Drug, error) {
	var d model.Drug
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&d).Error
	return &d, err
}

func (r *drugRepo) FindByBarcode(ctx context.Context, orgID uuid.UUID, barcode string) (*model.Drug, error) {
	var d model.Drug
	err := r.db.WithContext(ctx).
		Where("barcode = ? AND organization_id = ?", barcode, orgID).
		First(&d).Error
	return &d, err
}

func (r *drugRepo) List(ctx context.Context, orgID uuid.UUID, filter dto.DrugFilter) ([]model.Drug, int64, error) {
	var drugs []model.Drug
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Drug{}).Where("organization_id = ?", orgID)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR generic_name ILIKE ? OR barcode = ?", like, like, filter.Search)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&drugs).Error
	return drugs, total, err
}

func (r *drugRepo) ListAll(ctx context.Context, orgID uuid.UUID) ([]model.Drug, error) {
	var drugs []model.Drug
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("name ASC, id ASC").
		Find(&drugs).Error
	return drugs, err
}

func (r *drugRepo) Update(ctx context.Context, d *model.Drug) error {
	return r.db.WithContext(ctx).Save(d).Error
}
