package service

import (
	"context"
	"strings"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CatalogService defines the business logic contract for drugs.
type CatalogService interface {
	CreateDrug(ctx context.Context, auth AuthContext, req dto.CreateDrugRequest) (*dto.DrugResponse, error)
	UpdateDrug(ctx context.Context, auth AuthContext, id uuid.UUID, req dto.UpdateDrugRequest) (*dto.DrugResponse, error)
	GetDrug(ctx context.Context, auth AuthContext, id uuid.UUID) (*dto.DrugResponse, error)
	ListDrugs(ctx context.Context, auth AuthContext, filter dto.DrugFilter) (*dto.DrugListResponse, error)
	// LookupByBarcode serves the scanner. Hits are cached per organization for
	// five minutes; postings and batch receipts evict the entry.
	LookupByBarcode(ctx context.Context, auth AuthContext, barcode string) (*dto.BarcodeLookupResponse, error)
}

type catalogService struct {
	drugs   repository.DrugRepository
	batches repository.BatchRepository
	cache   Cache
}

func NewCatalogService(drugs repository.DrugRepository, batches repository.BatchRepository, cache Cache) CatalogService {
	return &catalogService{drugs: drugs, batches: batches, cache: cache}
}

const barcodeConstraint = "uni_drugs_org_barcode"

func (s *catalogService) CreateDrug(ctx context.Context, auth AuthContext, req dto.CreateDrugRequest) (*dto.DrugResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationf("name is required")
	}
	if req.Price.IsNegative() {
		return nil, validationf("price must not be negative")
	}

	d := &model.Drug{
		ID:             uuid.New(),
		OrganizationID: auth.OrganizationID,
		Name:           strings.TrimSpace(req.Name),
		GenericName:    req.GenericName,
		Manufacturer:   req.Manufacturer,
		Form:           req.Form,
		Price:          req.Price,
		ReorderLevel:   model.DefaultReorderLevel,
		Barcode:        normalizeBarcode(req.Barcode),
		Description:    req.Description,
	}
	if d.Form == "" {
		d.Form = "other"
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return nil, validationf("reorder_level must not be negative")
		}
		d.ReorderLevel = *req.ReorderLevel
	}

	if err := s.drugs.Create(ctx, d); err != nil {
		if repository.IsUniqueViolation(err, barcodeConstraint) {
			return nil, validationf("barcode %s is already assigned to another drug", *d.Barcode)
		}
		return nil, storageErr("create drug", err)
	}
	log.Info().Str("drug_id", d.ID.String()).Str("name", d.Name).Msg("drug created")

	resp := drugToResponse(d, 0)
	return &resp, nil
}

func (s *catalogService) UpdateDrug(ctx context.Context, auth AuthContext, id uuid.UUID, req dto.UpdateDrugRequest) (*dto.DrugResponse, error) {
	d, err := s.find(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	oldBarcode := d.Barcode

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, validationf("name must not be empty")
		}
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.GenericName != nil {
		d.GenericName = req.GenericName
	}
	if req.Manufacturer != nil {
		d.Manufacturer = req.Manufacturer
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, validationf("price must not be negative")
		}
		d.Price = *req.Price
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return nil, validationf("reorder_level must not be negative")
		}
		d.ReorderLevel = *req.ReorderLevel
	}
	if req.Barcode != nil {
		d.Barcode = normalizeBarcode(req.Barcode)
	}
	if req.Description != nil {
		d.Description = req.Description
	}

	if err := s.drugs.Update(ctx, d); err != nil {
		if repository.IsUniqueViolation(err, barcodeConstraint) {
			return nil, validationf("barcode is already assigned to another drug")
		}
		return nil, storageErr("update drug", err)
	}

	if s.cache != nil {
		var keys []string
		for _, b := range []*string{oldBarcode, d.Barcode} {
			if b != nil {
				keys = append(keys, barcodeCacheKey(auth.OrganizationID, *b))
			}
		}
		s.cache.Delete(ctx, keys...)
	}

	stock, err := s.batches.TotalStock(ctx, d.ID)
	if err != nil {
		return nil, storageErr("total stock", err)
	}
	resp := drugToResponse(d, stock)
	return &resp, nil
}

func (s *catalogService) GetDrug(ctx context.Context, auth AuthContext, id uuid.UUID) (*dto.DrugResponse, error) {
	d, err := s.find(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.batches.TotalStock(ctx, d.ID)
	if err != nil {
		return nil, storageErr("total stock", err)
	}
	resp := drugToResponse(d, stock)
	return &resp, nil
}

func (s *catalogService) ListDrugs(ctx context.Context, auth AuthContext, filter dto.DrugFilter) (*dto.DrugListResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	drugs, total, err := s.drugs.List(ctx, auth.OrganizationID, filter)
	if err != nil {
		return nil, storageErr("list drugs", err)
	}
	stock, err := s.batches.StockByDrug(ctx, auth.OrganizationID)
	if err != nil {
		return nil, storageErr("stock by drug", err)
	}
	data := make([]dto.DrugResponse, len(drugs))
	for i := range drugs {
		data[i] = drugToResponse(&drugs[i], stock[drugs[i].ID])
	}
	return &dto.DrugListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *catalogService) LookupByBarcode(ctx context.Context, auth AuthContext, barcode string) (*dto.BarcodeLookupResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, validationf("barcode is required")
	}
	key := barcodeCacheKey(auth.OrganizationID, barcode)

	// 1. Cache
	if s.cache != nil {
		var cached dto.BarcodeLookupResponse
		if s.cache.Get(ctx, key, &cached) {
			infra.BarcodeCacheLookups.WithLabelValues("hit").Inc()
			return &cached, nil
		}
	}
	infra.BarcodeCacheLookups.WithLabelValues("miss").Inc()

	// 2. Database
	d, err := s.drugs.FindByBarcode(ctx, auth.OrganizationID, barcode)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFoundf("no drug with barcode %s", barcode)
		}
		return nil, storageErr("find by barcode", err)
	}
	stock, err := s.batches.TotalStock(ctx, d.ID)
	if err != nil {
		return nil, storageErr("total stock", err)
	}
	resp := &dto.BarcodeLookupResponse{
		ID:      d.ID.String(),
		Name:    d.Name,
		Price:   d.Price,
		Barcode: barcode,
		Stock:   stock,
	}

	// 3. Populate, best effort
	if s.cache != nil {
		s.cache.Set(ctx, key, resp, barcodeCacheTTL)
	}
	return resp, nil
}

func (s *catalogService) find(ctx context.Context, auth AuthContext, id uuid.UUID) (*model.Drug, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	d, err := s.drugs.FindByID(ctx, auth.OrganizationID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFoundf("drug %s not found", id)
		}
		return nil, storageErr("find drug", err)
	}
	return d, nil
}

func normalizeBarcode(b *string) *string {
	if b == nil {
		return nil
	}
	v := strings.TrimSpace(*b)
	if v == "" {
		return nil
	}
	return &v
}

func drugToResponse(d *model.Drug, stock int) dto.DrugResponse {
	return dto.DrugResponse{
		ID:           d.ID.String(),
		Name:         d.Name,
		GenericName:  d.GenericName,
		Manufacturer: d.Manufacturer,
		Form:         d.Form,
		Price:        d.Price,
		ReorderLevel: d.ReorderLevel,
		Barcode:      d.Barcode,
		Description:  d.Description,
		TotalStock:   stock,
	}
}
