package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// InventoryService exposes the batch ledger: receiving stock, FEFO views,
// expiry windows and the spreadsheet export.
type InventoryService interface {
	ReceiveBatch(ctx context.Context, auth AuthContext, drugID uuid.UUID, req dto.ReceiveBatchRequest) (*dto.BatchResponse, error)
	ListBatches(ctx context.Context, auth AuthContext, drugID uuid.UUID) ([]dto.BatchResponse, error)
	TotalStock(ctx context.Context, auth AuthContext, drugID uuid.UUID) (int, error)
	ActiveBatchesByExpiry(ctx context.Context, auth AuthContext, drugID uuid.UUID) ([]dto.BatchResponse, error)
	ExpiringWithin(ctx context.Context, auth AuthContext, days int) ([]dto.BatchResponse, error)
	// ExportInventory renders every batch of the organization as an XLSX workbook.
	ExportInventory(ctx context.Context, auth AuthContext) ([]byte, error)
}

type inventoryService struct {
	drugs   repository.DrugRepository
	batches repository.BatchRepository
	cache   Cache
	now     func() time.Time
}

func NewInventoryService(drugs repository.DrugRepository, batches repository.BatchRepository, cache Cache) InventoryService {
	return &inventoryService{drugs: drugs, batches: batches, cache: cache, now: time.Now}
}

// today is the UTC calendar date of now, matching how expiry dates are stored.
func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysUntil(expiry, day time.Time) int {
	y, m, d := expiry.Date()
	e := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(day).Hours() / 24)
}

// drugInOrg resolves the drug within the caller's organization. Batches carry
// no organization column, so every batch read goes through this check.
func (s *inventoryService) drugInOrg(ctx context.Context, auth AuthContext, drugID uuid.UUID) (*model.Drug, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	d, err := s.drugs.FindByID(ctx, auth.OrganizationID, drugID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFoundf("drug %s not found", drugID)
		}
		return nil, storageErr("find drug", err)
	}
	return d, nil
}

func (s *inventoryService) ReceiveBatch(ctx context.Context, auth AuthContext, drugID uuid.UUID, req dto.ReceiveBatchRequest) (*dto.BatchResponse, error) {
	d, err := s.drugInOrg(ctx, auth, drugID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, validationf("quantity must be greater than zero")
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, validationf("expiry_date must be YYYY-MM-DD")
	}
	day := today(s.now())
	if expiry.Before(day) {
		return nil, validationf("expiry_date %s is in the past", req.ExpiryDate)
	}

	b := &model.InventoryBatch{
		ID:             uuid.New(),
		DrugID:         d.ID,
		LotNumber:      req.LotNumber,
		QuantityOnHand: req.Quantity,
		ExpiryDate:     expiry,
		CostPrice:      req.CostPrice,
		Status:         model.BatchActive,
	}
	if req.PurchaseDate != nil && *req.PurchaseDate != "" {
		pd, err := time.Parse("2006-01-02", *req.PurchaseDate)
		if err != nil {
			return nil, validationf("purchase_date must be YYYY-MM-DD")
		}
		b.PurchaseDate = &pd
	}

	if err := s.batches.Create(ctx, b); err != nil {
		return nil, storageErr("create batch", err)
	}
	if s.cache != nil && d.Barcode != nil {
		s.cache.Delete(ctx, barcodeCacheKey(auth.OrganizationID, *d.Barcode))
	}

	log.Info().
		Str("drug_id", d.ID.String()).
		Str("lot_number", b.LotNumber).
		Int("quantity", b.QuantityOnHand).
		Msg("batch received")

	b.Drug = d
	resp := batchToResponse(*b, day)
	return &resp, nil
}

func (s *inventoryService) ListBatches(ctx context.Context, auth AuthContext, drugID uuid.UUID) ([]dto.BatchResponse, error) {
	d, err := s.drugInOrg(ctx, auth, drugID)
	if err != nil {
		return nil, err
	}
	batches, err := s.batches.ListByDrug(ctx, d.ID)
	if err != nil {
		return nil, storageErr("list batches", err)
	}
	return batchesToResponse(batches, d, today(s.now())), nil
}

func (s *inventoryService) TotalStock(ctx context.Context, auth AuthContext, drugID uuid.UUID) (int, error) {
	d, err := s.drugInOrg(ctx, auth, drugID)
	if err != nil {
		return 0, err
	}
	total, err := s.batches.TotalStock(ctx, d.ID)
	if err != nil {
		return 0, storageErr("total stock", err)
	}
	return total, nil
}

func (s *inventoryService) ActiveBatchesByExpiry(ctx context.Context, auth AuthContext, drugID uuid.UUID) ([]dto.BatchResponse, error) {
	d, err := s.drugInOrg(ctx, auth, drugID)
	if err != nil {
		return nil, err
	}
	batches, err := s.batches.ListActiveByExpiry(ctx, d.ID)
	if err != nil {
		return nil, storageErr("list active batches", err)
	}
	return batchesToResponse(batches, d, today(s.now())), nil
}

func (s *inventoryService) ExpiringWithin(ctx context.Context, auth AuthContext, days int) ([]dto.BatchResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, validationf("days must not be negative")
	}
	day := today(s.now())
	batches, err := s.batches.ExpiringWithin(ctx, auth.OrganizationID, day, day.AddDate(0, 0, days))
	if err != nil {
		return nil, storageErr("expiring batches", err)
	}
	return batchesToResponse(batches, nil, day), nil
}

// ── Export ───────────────────────────────────────────────────────────────────

var exportHeader = []interface{}{
	"drug_id", "drug_name", "barcode", "lot_number",
	"quantity_on_hand", "expiry_date", "days_to_expiry", "status", "cost_price",
}

func (s *inventoryService) ExportInventory(ctx context.Context, auth AuthContext) ([]byte, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	batches, err := s.batches.ListForExport(ctx, auth.OrganizationID)
	if err != nil {
		return nil, storageErr("export batches", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Inventory"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("export: header: %w", err)
	}

	day := today(s.now())
	for i, b := range batches {
		var name, barcode string
		if b.Drug != nil {
			name = b.Drug.Name
			if b.Drug.Barcode != nil {
				barcode = *b.Drug.Barcode
			}
		}
		cost := ""
		if b.CostPrice != nil {
			cost = b.CostPrice.StringFixed(2)
		}
		row := []interface{}{
			b.DrugID.String(),
			name,
			barcode,
			b.LotNumber,
			b.QuantityOnHand,
			b.ExpiryDate.Format("2006-01-02"),
			daysUntil(b.ExpiryDate, day),
			string(b.Status),
			cost,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("export: cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("export: write: %w", err)
	}
	return buf.Bytes(), nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func batchesToResponse(batches []model.InventoryBatch, d *model.Drug, day time.Time) []dto.BatchResponse {
	out := make([]dto.BatchResponse, len(batches))
	for i, b := range batches {
		if b.Drug == nil {
			b.Drug = d
		}
		out[i] = batchToResponse(b, day)
	}
	return out
}

func batchToResponse(b model.InventoryBatch, day time.Time) dto.BatchResponse {
	resp := dto.BatchResponse{
		ID:             b.ID.String(),
		DrugID:         b.DrugID.String(),
		LotNumber:      b.LotNumber,
		QuantityOnHand: b.QuantityOnHand,
		ExpiryDate:     b.ExpiryDate.Format("2006-01-02"),
		CostPrice:      b.CostPrice,
		Status:         string(b.Status),
		DaysToExpiry:   daysUntil(b.ExpiryDate, day),
	}
	if b.Drug != nil {
		resp.DrugName = b.Drug.Name
	}
	if b.PurchaseDate != nil {
		pd := b.PurchaseDate.Format("2006-01-02")
		resp.PurchaseDate = &pd
	}
	return resp
}
