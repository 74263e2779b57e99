package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/dentiq/dentiq-backend/internal/inventory/repository"
)

// ExportStockRegister renders the current stock register as a PDF: one row
// per batch with stock, price and expiry, plus the total inventory value.
func (s *InventoryService) ExportStockRegister(ctx context.Context) ([]byte, error) {
	rows, err := s.itemRepo.ListBatchStock(ctx)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Stock Register")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04")))
	pdf.Ln(10)

	headers := []struct {
		label string
		width float64
	}{
		{"Item", 70},
		{"Batch", 35},
		{"Unit", 20},
		{"Stock", 20},
		{"Minimum", 20},
		{"Unit Price", 25},
		{"Value", 30},
		{"Expiry", 30},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range headers {
		pdf.CellFormat(h.width, 7, h.label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		price := "-"
		value := "-"
		if row.UnitPriceCents != nil {
			price = formatCents(*row.UnitPriceCents)
			value = formatCents(*row.UnitPriceCents * int64(row.CurrentStock))
		}

		expiry := "-"
		if row.ExpiryDate != nil {
			expiry = row.ExpiryDate.Format("2006-01-02")
		}

		pdf.CellFormat(70, 6, row.ItemName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, row.BatchNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, row.Unit, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", row.CurrentStock), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", row.MinimumStock), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, price, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, value, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, expiry, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Total inventory value: %s", formatCents(TotalValueCents(rows))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExportReceiving renders a receiving document as a PDF
func (s *InventoryService) ExportReceiving(ctx context.Context, rec *repository.Receiving, lines []*repository.ReceivingLine, itemNames map[string]string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Stock Receiving %s", rec.ReceivingNumber))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Received %s", rec.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(70, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Batch", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Line Total", "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range lines {
		name := itemNames[line.ItemID]
		if name == "" {
			name = line.ItemID
		}

		price := "-"
		if line.UnitPriceCents != nil {
			price = formatCents(*line.UnitPriceCents)
		}

		pdf.CellFormat(70, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, line.BatchNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, price, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatCents(line.LineTotalCents), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s", formatCents(rec.TotalAmountCents)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d EUR", sign, cents/100, cents%100)
}
