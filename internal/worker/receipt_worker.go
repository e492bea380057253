package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"pharmacyos/internal/infra"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt after a sale commits.
type ReceiptJobPayload struct {
	SaleID         string  `json:"sale_id"`
	OrganizationID string  `json:"organization_id"`
	CustomerEmail  *string `json:"customer_email,omitempty"`
}

// EmailEnqueuer is satisfied by *Dispatcher.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// ReceiptWorker renders the PDF receipt of a posted sale and, when the
// customer left an address, hands it to the email queue.
type ReceiptWorker struct {
	sales       repository.SaleRepository
	orgs        repository.OrganizationRepository
	emails      EmailEnqueuer
	storagePath string
	render      func(order *model.SalesOrder, storeName, storagePath string) (string, error)
}

func NewReceiptWorker(
	sales repository.SaleRepository,
	orgs repository.OrganizationRepository,
	emails EmailEnqueuer,
	storagePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		sales:       sales,
		orgs:        orgs,
		emails:      emails,
		storagePath: storagePath,
		render:      infra.GenerateReceiptPDF,
	}
}

// Process handles one receipt job:
//  1. Load the sale (items, drugs, customer) within its organization
//  2. Render the PDF receipt
//  3. Enqueue an email job when an address is known
//
// A missing sale is not retried; rendering and enqueue failures are.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil
	}
	saleID, err1 := uuid.Parse(payload.SaleID)
	orgID, err2 := uuid.Parse(payload.OrganizationID)
	if err1 != nil || err2 != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid ids")
		return nil
	}

	order, err := w.sales.FindByID(ctx, orgID, saleID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
			return nil
		}
		return fmt.Errorf("receipt_worker: load sale: %w", err)
	}

	storeName := "Pharmacy"
	if org, err := w.orgs.FindByID(ctx, orgID); err == nil {
		storeName = org.Name
	}

	pdfPath, err := w.render(order, storeName, w.storagePath)
	if err != nil {
		return fmt.Errorf("receipt_worker: render: %w", err)
	}
	log.Info().Str("pdf", pdfPath).Str("sale_number", order.SaleNumber).Msg("receipt_worker: receipt generated")

	to := ""
	if payload.CustomerEmail != nil {
		to = *payload.CustomerEmail
	} else if order.Customer != nil && order.Customer.Email != nil {
		to = *order.Customer.Email
	}
	if to == "" || w.emails == nil {
		return nil
	}

	job := EmailJobPayload{
		OrganizationID: order.OrganizationID.String(),
		ToEmail:        to,
		Subject:        fmt.Sprintf("%s receipt %s", storeName, order.SaleNumber),
		Body:           fmt.Sprintf("Thank you for your purchase.\nTotal: %s", order.Total.StringFixed(2)),
		PDFPath:        pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, job); err != nil {
		return fmt.Errorf("receipt_worker: enqueue email: %w", err)
	}
	return nil
}
