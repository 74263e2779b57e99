package service

import (
	"bytes"
	"context"

	"github.com/go-pdf/fpdf"
)

// ExportPDF renders a report as a PDF document.
func (s *ReportService) ExportPDF(ctx context.Context, id string) ([]byte, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Radiology Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(40, 6, "Report ID:")
	pdf.Cell(0, 6, report.ID)
	pdf.Ln(6)
	pdf.Cell(40, 6, "Patient:")
	pdf.Cell(0, 6, report.PatientID)
	pdf.Ln(6)
	pdf.Cell(40, 6, "Study type:")
	pdf.Cell(0, 6, report.StudyType)
	pdf.Ln(6)
	pdf.Cell(40, 6, "Status:")
	pdf.Cell(0, 6, report.Status)
	pdf.Ln(6)
	if report.FinalizedAt != nil {
		pdf.Cell(40, 6, "Finalized:")
		pdf.Cell(0, 6, report.FinalizedAt.Format("2006-01-02 15:04"))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, report.Findings, "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Impression")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, report.Impression, "", "L", false)

	if report.Status == "draft" {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "DRAFT - not yet finalized")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
