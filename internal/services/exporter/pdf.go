package exporter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/refero/internal/services/reports"
)

// statusFill tints status cells in the rendered table
var statusFill = map[string]struct{ r, g, b int }{
	"CLEARED":   {223, 240, 216},
	"COMPLETED": {223, 240, 216},
	"DELIVERED": {223, 240, 216},
	"APPROVED":  {223, 240, 216},
	"POSTED":    {223, 240, 216},
	"PENDING":   {252, 248, 227},
	"DELAYED":   {252, 248, 227},
	"WARNING":   {252, 248, 227},
	"FAILED":    {242, 222, 222},
	"DENIED":    {242, 222, 222},
	"BLOCKED":   {242, 222, 222},
	"CRITICAL":  {242, 222, 222},
	"DROPPED":   {242, 222, 222},
	"FLAGGED":   {242, 222, 222},
	"ALERT":     {242, 222, 222},
	"TAMPERED":  {242, 222, 222},
}

// renderPDF draws a materialized view as a landscape table
func renderPDF(view reports.MaterializedView, jobName string) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	// Title block
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, pdfText(view.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(110, 110, 110)
	subtitle := fmt.Sprintf("%s  |  Generated %s  |  %d rows", jobName, time.Now().Format("2006-01-02 15:04"), len(view.Rows))
	pdf.CellFormat(0, 5, pdfText(subtitle), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.SetTextColor(0, 0, 0)

	widths := columnWidths(pdf, view.Columns)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(52, 58, 64)
		pdf.SetTextColor(255, 255, 255)
		for i, col := range view.Columns {
			pdf.CellFormat(widths[i], 7, pdfText(col.Label), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 8)
	}
	drawHeader()

	pageBottom := 210.0 - 12

	for _, row := range view.Rows {
		if pdf.GetY() > pageBottom-8 {
			pdf.AddPage()
			drawHeader()
		}

		if isHeader, _ := row["isHeader"].(bool); isHeader {
			count, _ := row["transactionCount"].(int)
			label := fmt.Sprintf("%s  -  %d transactions, subtotal %s",
				formatCell(row["customer"]), count, formatCell(row["subtotal"]))
			pdf.SetFont("Arial", "B", 8)
			pdf.SetFillColor(233, 236, 239)
			pdf.CellFormat(sum(widths), 7, pdfText(label), "1", 1, "L", true, 0, "")
			pdf.SetFont("Arial", "", 8)
			continue
		}

		for i, col := range view.Columns {
			value := formatCell(row[col.Key])
			fill := false
			if col.Type == "status" {
				if c, ok := statusFill[value]; ok {
					pdf.SetFillColor(c.r, c.g, c.b)
					fill = true
				}
			}
			pdf.CellFormat(widths[i], 6, pdfText(value), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// columnWidths scales declared widths to the printable page width
func columnWidths(pdf *fpdf.Fpdf, columns []reports.DomainColumn) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	avail := pageWidth - left - right

	total := 0
	for _, col := range columns {
		w := col.Width
		if w <= 0 {
			w = 100
		}
		total += w
	}

	widths := make([]float64, len(columns))
	for i, col := range columns {
		w := col.Width
		if w <= 0 {
			w = 100
		}
		widths[i] = avail * float64(w) / float64(total)
	}
	return widths
}

func sum(widths []float64) float64 {
	var s float64
	for _, w := range widths {
		s += w
	}
	return s
}

// pdfText maps glyphs outside the core font set to ASCII fallbacks
func pdfText(s string) string {
	return strings.ReplaceAll(s, "₱", "PHP ")
}
