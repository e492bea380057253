package service

import (
	"context"
	"fmt"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/google/uuid"
)

const (
	maxAlerts          = 10
	expiryWindowDays   = 30
	maxExpiryAlerts    = 5
	criticalExpiryDays = 7
)

// AlertService recomputes the dashboard alerts on every call; nothing is stored.
type AlertService interface {
	GetAlerts(ctx context.Context, auth AuthContext) ([]dto.AlertResponse, error)
}

type alertService struct {
	drugs   repository.DrugRepository
	batches repository.BatchRepository
	now     func() time.Time
}

func NewAlertService(drugs repository.DrugRepository, batches repository.BatchRepository) AlertService {
	return &alertService{drugs: drugs, batches: batches, now: time.Now}
}

func (s *alertService) GetAlerts(ctx context.Context, auth AuthContext) ([]dto.AlertResponse, error) {
	if err := auth.validate(); err != nil {
		return nil, err
	}
	drugs, err := s.drugs.ListAll(ctx, auth.OrganizationID)
	if err != nil {
		return nil, storageErr("list drugs", err)
	}
	stock, err := s.batches.StockByDrug(ctx, auth.OrganizationID)
	if err != nil {
		return nil, storageErr("stock by drug", err)
	}
	day := today(s.now())
	expiring, err := s.batches.ExpiringWithin(ctx, auth.OrganizationID, day, day.AddDate(0, 0, expiryWindowDays))
	if err != nil {
		return nil, storageErr("expiring batches", err)
	}
	return BuildAlerts(drugs, stock, expiring, day), nil
}

// BuildAlerts derives alerts from a stock snapshot. drugs must be ordered by
// name and expiring by expiry date. Stock alerts come first; the result holds
// at most ten entries.
func BuildAlerts(drugs []model.Drug, stock map[uuid.UUID]int, expiring []model.InventoryBatch, day time.Time) []dto.AlertResponse {
	alerts := make([]dto.AlertResponse, 0, maxAlerts)

	for _, d := range drugs {
		total := stock[d.ID]
		switch {
		case total == 0:
			alerts = append(alerts, dto.AlertResponse{
				ID:       "stock_" + d.ID.String(),
				Severity: dto.SeverityCritical,
				Title:    "Out of Stock",
				Message:  fmt.Sprintf("%s is out of stock", d.Name),
			})
		case total <= d.ReorderLevel:
			alerts = append(alerts, dto.AlertResponse{
				ID:       "stock_" + d.ID.String(),
				Severity: dto.SeverityWarning,
				Title:    "Low Stock",
				Message:  fmt.Sprintf("%s is running low (Stock: %d)", d.Name, total),
			})
		}
	}

	for i, b := range expiring {
		if i == maxExpiryAlerts {
			break
		}
		daysLeft := daysUntil(b.ExpiryDate, day)
		severity := dto.SeverityWarning
		if daysLeft <= criticalExpiryDays {
			severity = dto.SeverityCritical
		}
		name := "Unknown drug"
		if b.Drug != nil {
			name = b.Drug.Name
		}
		alerts = append(alerts, dto.AlertResponse{
			ID:       "expiry_" + b.ID.String(),
			Severity: severity,
			Title:    "Expiring Soon",
			Message:  fmt.Sprintf("%s (Lot: %s) expires in %d days", name, b.LotNumber, daysLeft),
		})
	}

	if len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}
	return alerts
}
