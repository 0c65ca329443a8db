package qc

import (
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
)

// RenderPDF writes the report as a one-page PDF for reviewers who don't
// read JSON.
func RenderPDF(report *Report, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("QC report %s", report.JobID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Quality Control Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Job: %s", report.JobID))
	pdf.Ln(6)
	if report.Topic != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Topic: %s", report.Topic))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Overall: %s (%.1f/5)", report.Verdict, report.OverallScore))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Checks")
	pdf.Ln(9)

	for _, check := range report.Checks {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 5, fmt.Sprintf("%s - %s (%.1f)", check.Name, check.Verdict, check.Score))
		pdf.Ln(5)
		if check.Detail != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, check.Detail, "", "L", false)
		}
		pdf.Ln(2)
	}

	return pdf.OutputFileAndClose(outPath)
}
