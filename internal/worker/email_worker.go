package worker

import (
	"context"
	"encoding/json"

	"pharmacyos/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	OrganizationID string `json:"organization_id"`
	ToEmail        string `json:"to_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	PDFPath        string `json:"pdf_path"`
}

// ReceiptMailer is satisfied by *infra.Mailer.
type ReceiptMailer interface {
	Enabled() bool
	SendReceipt(to, subject, body, pdfPath string) error
}

// EmailWorker sends receipt emails over SMTP through a circuit breaker.
type EmailWorker struct {
	mailer  ReceiptMailer
	breaker *infra.CircuitBreaker
}

func NewEmailWorker(mailer ReceiptMailer, breaker *infra.CircuitBreaker) *EmailWorker {
	if breaker == nil {
		breaker = infra.NewCircuitBreaker(infra.BreakerConfig{Name: "smtp"})
	}
	return &EmailWorker{mailer: mailer, breaker: breaker}
}

// Process sends one email. An empty address or a disabled mailer drops the
// job; SMTP failures are returned so the pool retries.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Enabled() {
		log.Debug().Str("to", payload.ToEmail).Msg("email_worker: smtp not configured, skipping")
		return nil
	}

	err := w.breaker.Execute(func() error {
		return w.mailer.SendReceipt(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: send failed")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: receipt sent")
	return nil
}
