package reports

import (
	"fmt"

	"github.com/ternarybob/refero/internal/models"
)

// Row is one materialized output row keyed by column key
type Row map[string]interface{}

// MaterializedView is the deterministic projection of a transaction
// slice for one report type. Materialization never mutates its input
// and holds no state; the same rows and type always produce the same
// view.
type MaterializedView struct {
	Title   string         `json:"title"`
	Columns []DomainColumn `json:"columns"`
	Rows    []Row          `json:"rows"`
	Grouped bool           `json:"grouped"`
}

// Materialize builds the view for a report type over the given rows.
// Unknown report types fall back to the detail view.
func Materialize(txns []*models.Transaction, reportType models.ReportType, schema DomainSchema) MaterializedView {
	switch reportType {
	case models.ReportTypeSummary:
		return materializeSummary(txns)
	case models.ReportTypeException:
		return materializeException(txns, schema)
	case models.ReportTypeBooklet:
		return materializeBooklet(txns, schema)
	default:
		return materializeDetail(txns, schema)
	}
}

// orUnknown labels unset grouping values so empty regions and
// customers bucket together instead of producing a blank group
func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func baseRow(t *models.Transaction) Row {
	return Row{
		"transactionId": t.ID,
		"timestamp":     t.Timestamp,
		"region":        t.Region,
		"type":          string(t.Type),
		"amount":        t.Amount,
		"status":        t.Status,
		"customer":      t.Customer,
	}
}

func materializeDetail(txns []*models.Transaction, schema DomainSchema) MaterializedView {
	rows := make([]Row, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, baseRow(t))
	}
	return MaterializedView{
		Title:   "Detailed Transaction Ledger",
		Columns: schema.Columns,
		Rows:    rows,
	}
}

type regionBucket struct {
	region      string
	count       int
	total       float64
	statusCount map[string]int
	topStatus   string
	topCount    int
}

func materializeSummary(txns []*models.Transaction) MaterializedView {
	order := []string{}
	buckets := map[string]*regionBucket{}

	for _, t := range txns {
		region := orUnknown(t.Region)
		b, ok := buckets[region]
		if !ok {
			b = &regionBucket{region: region, statusCount: map[string]int{}}
			buckets[region] = b
			order = append(order, region)
		}
		b.count++
		b.total += t.Amount
		b.statusCount[t.Status]++
		// strict > keeps the status that reached the max count first
		if b.statusCount[t.Status] > b.topCount {
			b.topCount = b.statusCount[t.Status]
			b.topStatus = t.Status
		}
	}

	rows := make([]Row, 0, len(order))
	for _, region := range order {
		b := buckets[region]
		rows = append(rows, Row{
			"region":           b.region,
			"transactionCount": b.count,
			"totalAmount":      b.total,
			"avgAmount":        b.total / float64(b.count),
			"topStatus":        b.topStatus,
		})
	}

	return MaterializedView{
		Title: "Regional Summary",
		Columns: []DomainColumn{
			{Key: "region", Label: "Region", Type: "text", Width: 120},
			{Key: "transactionCount", Label: "Transactions", Type: "number", Width: 100},
			{Key: "totalAmount", Label: "Total Amount (₱)", Type: "currency", Width: 130},
			{Key: "avgAmount", Label: "Avg Amount (₱)", Type: "currency", Width: 120},
			{Key: "topStatus", Label: "Top Status", Type: "status", Width: 100},
		},
		Rows: rows,
	}
}

func materializeException(txns []*models.Transaction, schema DomainSchema) MaterializedView {
	rows := []Row{}
	for _, t := range txns {
		if !IsExceptionStatus(t.Status) {
			continue
		}
		row := baseRow(t)
		row["errorReason"] = ExceptionReason(t.Status)
		rows = append(rows, row)
	}

	idLabel := "Transaction ID"
	if col, ok := schema.column("transactionId"); ok {
		idLabel = col.Label
	}

	return MaterializedView{
		Title: "Exception Report",
		Columns: []DomainColumn{
			{Key: "transactionId", Label: idLabel, Type: "text", Width: 130},
			{Key: "timestamp", Label: "Timestamp", Type: "date", Width: 160},
			{Key: "region", Label: "Region", Type: "text", Width: 100},
			{Key: "status", Label: "Exception Type", Type: "status", Width: 110},
			{Key: "amount", Label: "Amount (₱)", Type: "currency", Width: 110},
			{Key: "customer", Label: schema.EntityLabel, Type: "text", Width: 120},
			{Key: "errorReason", Label: "Exception Reason", Type: "text", Width: 220},
		},
		Rows: rows,
	}
}

type customerGroup struct {
	customer string
	txns     []*models.Transaction
	subtotal float64
}

func materializeBooklet(txns []*models.Transaction, schema DomainSchema) MaterializedView {
	order := []string{}
	groups := map[string]*customerGroup{}

	for _, t := range txns {
		customer := orUnknown(t.Customer)
		g, ok := groups[customer]
		if !ok {
			g = &customerGroup{customer: customer}
			groups[customer] = g
			order = append(order, customer)
		}
		g.txns = append(g.txns, t)
		g.subtotal += t.Amount
	}

	rows := []Row{}
	for _, customer := range order {
		g := groups[customer]
		rows = append(rows, Row{
			"isHeader":         true,
			"customer":         g.customer,
			"transactionCount": len(g.txns),
			"subtotal":         g.subtotal,
		})
		for _, t := range g.txns {
			row := baseRow(t)
			row["isHeader"] = false
			rows = append(rows, row)
		}
	}

	return MaterializedView{
		Title:   fmt.Sprintf("Per-%s Statement", schema.EntityLabel),
		Columns: schema.Columns,
		Rows:    rows,
		Grouped: true,
	}
}
