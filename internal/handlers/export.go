package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/indureport/indureportgo/internal/models"
)

// exportReportPDF renders a one-page PDF of a report, with a QR code linking
// back to the record so the printout can be scanned on the floor.
func (r *Router) exportReportPDF(w http.ResponseWriter, req *http.Request) {
	report, _, ok := r.fetchVisible(w, req)
	if !ok {
		return
	}

	pdf, err := r.renderReportPDF(report)
	if err != nil {
		log.Printf("⚠️ Reports: PDF export failed for report %s: %v", report.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="report-%s.pdf"`, report.ID))
	w.Write(pdf)
}

func (r *Router) renderReportPDF(report *models.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Report %s", report.ID), false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	title := report.Title
	if title == "" {
		title = "Report"
		if kind := string(report.Type); kind != "" {
			title = strings.ToUpper(kind[:1]) + kind[1:] + " report"
		}
	}
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Report ID: %s", report.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Filed: %s", report.CreatedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// QR code linking back to the record
	link := fmt.Sprintf("%s/reports/%s", strings.TrimRight(r.cfg.BaseURL, "/"), report.ID)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 165, 12, 30, 30, false, opts, 0, "")

	// Detail table
	rows := [][2]string{
		{"Type", string(report.Type)},
		{"Area", string(report.Area)},
		{"Location", report.Location},
		{"Shift", string(report.ShiftType)},
		{"Priority", string(report.Priority)},
		{"Status", string(report.Status)},
	}
	if report.MaintenanceType != "" {
		rows = append(rows, [2]string{"Maintenance type", string(report.MaintenanceType)})
	}
	if report.NextShiftType != "" {
		rows = append(rows, [2]string{"Handover shift", string(report.NextShiftType)})
	}
	if report.Creator != nil {
		rows = append(rows, [2]string{"Reported by", report.Creator.Username})
	}
	if report.Assignee != nil {
		rows = append(rows, [2]string{"Assigned to", report.Assignee.Username})
	}
	if report.GPS.Latitude != 0 || report.GPS.Longitude != 0 {
		rows = append(rows, [2]string{"GPS",
			fmt.Sprintf("%.6f, %.6f", report.GPS.Latitude, report.GPS.Longitude)})
	}

	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Description", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, report.Description, "", "L", false)

	if len(report.Attachments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, "Attachments", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, a := range report.Attachments {
			pdf.CellFormat(0, 5, fmt.Sprintf("%s (%s)", a.URI, a.MediaKind), "", 1, "L", false, 0, "")
		}
	}

	// Footer
	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 5,
		fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")),
		"", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
