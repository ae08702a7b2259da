package reports

// DomainColumn describes one column of a domain's ledger view
type DomainColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"` // text, number, currency, date, status, badge
	Width int    `json:"width,omitempty"`
}

// DomainSchema describes how a business domain labels the ledger.
// All domains share the same underlying dataset; the schema changes
// column labels, status vocabularies and the entity noun.
type DomainSchema struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	EntityLabel  string         `json:"entityLabel"`
	StatusValues []string       `json:"statusValues"`
	Columns      []DomainColumn `json:"columns"`
}

// DomainSchemas is the full lookup table of supported domains
var DomainSchemas = map[string]DomainSchema{
	"telecom": {
		ID:           "telecom",
		Name:         "Telecom CDRs",
		Description:  "Call Detail Records - calls, SMS, data sessions",
		EntityLabel:  "Subscriber",
		StatusValues: []string{"COMPLETED", "DROPPED", "FAILED", "ROAMING"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "CDR ID", Type: "text", Width: 120},
			{Key: "timestamp", Label: "Timestamp", Type: "date", Width: 160},
			{Key: "region", Label: "Region", Type: "text", Width: 100},
			{Key: "type", Label: "Type", Type: "badge", Width: 80},
			{Key: "amount", Label: "Charge (₱)", Type: "currency", Width: 100},
			{Key: "status", Label: "Status", Type: "status", Width: 100},
			{Key: "customer", Label: "Subscriber", Type: "text", Width: 120},
		},
	},
	"ecommerce": {
		ID:           "ecommerce",
		Name:         "E-commerce Ledger",
		Description:  "Orders, refunds, shipments across regions",
		EntityLabel:  "Customer",
		StatusValues: []string{"CLEARED", "PENDING", "FAILED", "REFUNDED"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Order ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Order Date", Type: "date", Width: 160},
			{Key: "region", Label: "Region", Type: "text", Width: 100},
			{Key: "type", Label: "Type", Type: "badge", Width: 90},
			{Key: "amount", Label: "Amount (₱)", Type: "currency", Width: 110},
			{Key: "status", Label: "Status", Type: "status", Width: 100},
			{Key: "customer", Label: "Customer", Type: "text", Width: 120},
		},
	},
	"banking": {
		ID:           "banking",
		Name:         "Banking/FinTech",
		Description:  "Ledger movements, reconciliations, AML audit trails",
		EntityLabel:  "Account",
		StatusValues: []string{"POSTED", "PENDING", "REVERSED", "FLAGGED"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Ref No.", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Value Date", Type: "date", Width: 160},
			{Key: "region", Label: "Branch", Type: "text", Width: 100},
			{Key: "type", Label: "Txn Type", Type: "badge", Width: 100},
			{Key: "amount", Label: "Amount (₱)", Type: "currency", Width: 110},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Account", Type: "text", Width: 120},
		},
	},
	"government": {
		ID:           "government",
		Name:         "Government Census/Tax",
		Description:  "Per-municipality rollups, taxpayer ledgers",
		EntityLabel:  "Taxpayer",
		StatusValues: []string{"FILED", "PENDING", "DELINQUENT", "EXEMPT"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Filing ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Filing Date", Type: "date", Width: 160},
			{Key: "region", Label: "Municipality", Type: "text", Width: 120},
			{Key: "type", Label: "Tax Type", Type: "badge", Width: 100},
			{Key: "amount", Label: "Amount (₱)", Type: "currency", Width: 110},
			{Key: "status", Label: "Status", Type: "status", Width: 100},
			{Key: "customer", Label: "Taxpayer TIN", Type: "text", Width: 130},
		},
	},
	"healthcare": {
		ID:           "healthcare",
		Name:         "Healthcare Claims",
		Description:  "Claims per insurer/hospital with diagnosis codes",
		EntityLabel:  "Patient",
		StatusValues: []string{"APPROVED", "PENDING", "DENIED", "PARTIAL"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Claim ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Service Date", Type: "date", Width: 160},
			{Key: "region", Label: "Facility", Type: "text", Width: 120},
			{Key: "type", Label: "Claim Type", Type: "badge", Width: 100},
			{Key: "amount", Label: "Billed (₱)", Type: "currency", Width: 110},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Member ID", Type: "text", Width: 120},
		},
	},
	"education": {
		ID:           "education",
		Name:         "Education LMS",
		Description:  "Course events, submissions, grading audits",
		EntityLabel:  "Student",
		StatusValues: []string{"SUBMITTED", "GRADED", "LATE", "MISSING"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Event ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Event Time", Type: "date", Width: 160},
			{Key: "region", Label: "Campus", Type: "text", Width: 100},
			{Key: "type", Label: "Activity", Type: "badge", Width: 100},
			{Key: "amount", Label: "Fee (₱)", Type: "currency", Width: 90},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Student ID", Type: "text", Width: 120},
		},
	},
	"logistics": {
		ID:           "logistics",
		Name:         "Transportation/Logistics",
		Description:  "GPS pings, waybills, delivery scans",
		EntityLabel:  "Consignee",
		StatusValues: []string{"DELIVERED", "IN_TRANSIT", "DELAYED", "RETURNED"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Waybill No.", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Scan Time", Type: "date", Width: 160},
			{Key: "region", Label: "Hub", Type: "text", Width: 100},
			{Key: "type", Label: "Movement", Type: "badge", Width: 100},
			{Key: "amount", Label: "Freight (₱)", Type: "currency", Width: 100},
			{Key: "status", Label: "Status", Type: "status", Width: 100},
			{Key: "customer", Label: "Consignee", Type: "text", Width: 120},
		},
	},
	"manufacturing": {
		ID:           "manufacturing",
		Name:         "Manufacturing/IoT",
		Description:  "Sensor readings, QC inspections, downtime logs",
		EntityLabel:  "Equipment",
		StatusValues: []string{"NORMAL", "WARNING", "CRITICAL", "OFFLINE"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Reading ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Timestamp", Type: "date", Width: 160},
			{Key: "region", Label: "Plant", Type: "text", Width: 100},
			{Key: "type", Label: "Sensor", Type: "badge", Width: 100},
			{Key: "amount", Label: "Reading", Type: "number", Width: 90},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Line ID", Type: "text", Width: 100},
		},
	},
	"cybersecurity": {
		ID:           "cybersecurity",
		Name:         "Cybersecurity/SIEM",
		Description:  "Auth events, firewall logs, vulnerability findings",
		EntityLabel:  "Asset",
		StatusValues: []string{"ALLOWED", "BLOCKED", "ALERT", "CRITICAL"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Event ID", Type: "text", Width: 140},
			{Key: "timestamp", Label: "Event Time", Type: "date", Width: 160},
			{Key: "region", Label: "Zone", Type: "text", Width: 90},
			{Key: "type", Label: "Event Type", Type: "badge", Width: 100},
			{Key: "amount", Label: "Severity", Type: "number", Width: 80},
			{Key: "status", Label: "Action", Type: "status", Width: 90},
			{Key: "customer", Label: "Asset ID", Type: "text", Width: 110},
		},
	},
	"energy": {
		ID:           "energy",
		Name:         "Energy/Utilities",
		Description:  "Smart meter readings by feeder/transformer",
		EntityLabel:  "Meter",
		StatusValues: []string{"NORMAL", "HIGH", "LOW", "TAMPERED"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Reading ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Read Time", Type: "date", Width: 160},
			{Key: "region", Label: "District", Type: "text", Width: 100},
			{Key: "type", Label: "Tariff", Type: "badge", Width: 100},
			{Key: "amount", Label: "Bill (₱)", Type: "currency", Width: 100},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Account", Type: "text", Width: 110},
		},
	},
	"insurance": {
		ID:           "insurance",
		Name:         "Insurance Policies",
		Description:  "Policy lifecycle, claims, reserves, payouts",
		EntityLabel:  "Policyholder",
		StatusValues: []string{"ACTIVE", "LAPSED", "CLAIMED", "SETTLED"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Policy/Claim No.", Type: "text", Width: 140},
			{Key: "timestamp", Label: "Effective Date", Type: "date", Width: 160},
			{Key: "region", Label: "Branch", Type: "text", Width: 100},
			{Key: "type", Label: "Product", Type: "badge", Width: 100},
			{Key: "amount", Label: "Premium (₱)", Type: "currency", Width: 110},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Policyholder", Type: "text", Width: 120},
		},
	},
	"adtech": {
		ID:           "adtech",
		Name:         "AdTech/Analytics",
		Description:  "Impressions, clicks, conversions, spend",
		EntityLabel:  "Campaign",
		StatusValues: []string{"ACTIVE", "PAUSED", "COMPLETED", "OPTIMIZING"},
		Columns: []DomainColumn{
			{Key: "transactionId", Label: "Event ID", Type: "text", Width: 130},
			{Key: "timestamp", Label: "Event Time", Type: "date", Width: 160},
			{Key: "region", Label: "Geo", Type: "text", Width: 90},
			{Key: "type", Label: "Channel", Type: "badge", Width: 90},
			{Key: "amount", Label: "Spend (₱)", Type: "currency", Width: 100},
			{Key: "status", Label: "Status", Type: "status", Width: 90},
			{Key: "customer", Label: "Campaign", Type: "text", Width: 120},
		},
	},
}

// GetDomainSchema resolves a domain key, falling back to ecommerce
func GetDomainSchema(domainID string) DomainSchema {
	if schema, ok := DomainSchemas[domainID]; ok {
		return schema
	}
	return DomainSchemas["ecommerce"]
}

func (s DomainSchema) column(key string) (DomainColumn, bool) {
	for _, col := range s.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return DomainColumn{}, false
}
