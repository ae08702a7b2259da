package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/ternarybob/refero/internal/services/reports"
)

// renderCSV serializes a materialized view as CSV. Booklet header
// pseudo-rows become a labeled subtotal line so the grouping survives
// the flat format.
func renderCSV(view reports.MaterializedView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(view.Columns))
	for i, col := range view.Columns {
		header[i] = col.Label
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range view.Rows {
		record := make([]string, len(view.Columns))

		if isHeader, _ := row["isHeader"].(bool); isHeader {
			count, _ := row["transactionCount"].(int)
			for i, col := range view.Columns {
				switch col.Key {
				case "customer":
					record[i] = formatCell(row["customer"])
				case "amount":
					record[i] = formatCell(row["subtotal"])
				case "transactionId":
					record[i] = fmt.Sprintf("%d transactions", count)
				}
			}
		} else {
			for i, col := range view.Columns {
				record[i] = formatCell(row[col.Key])
			}
		}

		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
