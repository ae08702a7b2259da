package models

import "time"

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TxnOrder      TransactionType = "ORDER"
	TxnRefund     TransactionType = "REFUND"
	TxnAdjustment TransactionType = "ADJUSTMENT"
	TxnFee        TransactionType = "FEE"
)

// Transaction is one row of the reporting dataset.
// Status values come from the active domain schema; the seeded dataset
// uses CLEARED, PENDING and FAILED.
type Transaction struct {
	ID        string          `json:"transactionId" badgerhold:"key"`
	Timestamp time.Time       `json:"timestamp" badgerhold:"index"`
	Region    string          `json:"region" badgerhold:"index"`
	Type      TransactionType `json:"type"`
	Amount    float64         `json:"amount"`
	Status    string          `json:"status"`
	Customer  string          `json:"customer"`
}
