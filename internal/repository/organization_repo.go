package repository

import (
	"context"

	"pharmacyos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, o *model.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*model.Organization, error)
}

type organizationRepo struct{ db *gorm.DB }

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) Create(ctx context.Context, o *model.Organization) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *organizationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var o model.Organization
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *organizationRepo) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var o model.Organization
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&o).Error
	return &o, err
}
