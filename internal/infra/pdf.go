package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pharmacyos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF renders a thermal-style receipt (74x105mm) for a posted
// sale and writes it to storagePath/receipt_{sale_number}.pdf.
// The order must have Items (with Drug) preloaded for names to appear.
func GenerateReceiptPDF(order *model.SalesOrder, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := "receipt_" + strings.ReplaceAll(order.SaleNumber, "/", "_") + ".pdf"
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(true, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, storeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW, 4, order.SaleNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, order.SaleDate.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if order.Customer != nil {
		pdf.CellFormat(contentW, 4, "Customer: "+order.Customer.FullName(), "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	// ── Line items ───────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range order.Items {
		name := item.DrugID.String()[:8]
		if item.Drug != nil {
			name = item.Drug.Name
		}
		if len(name) > 22 {
			name = name[:21] + "."
		}
		pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, item.LineTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	// ── Totals ───────────────────────────────────────────────────────────────
	row := func(label, value string) {
		pdf.CellFormat(col1+col2, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, value, "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 7)
	row("Subtotal", order.Subtotal.StringFixed(2))
	if !order.Tax.IsZero() {
		row("Tax", order.Tax.StringFixed(2))
	}
	if !order.Discount.IsZero() {
		row("Discount", "-"+order.Discount.StringFixed(2))
	}
	pdf.SetFont("Helvetica", "B", 9)
	row("TOTAL", order.Total.StringFixed(2))
	pdf.SetFont("Helvetica", "", 7)
	row("Paid ("+string(order.PaymentMethod)+")", order.AmountPaid.StringFixed(2))
	if order.ChangeDue.IsPositive() {
		row("Change", order.ChangeDue.StringFixed(2))
	}
	if order.Balance.IsPositive() {
		row("On account", order.Balance.StringFixed(2))
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you. Keep medicines out of reach of children.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
