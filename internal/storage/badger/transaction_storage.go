package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TransactionStorage implements interfaces.TransactionStorage backed by badgerhold
type TransactionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTransactionStorage creates a new transaction storage instance
func NewTransactionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TransactionStorage {
	return &TransactionStorage{
		db:     db,
		logger: logger,
	}
}

func buildQuery(q interfaces.TransactionQuery) *badgerhold.Query {
	query := badgerhold.Where("ID").Ne("")
	if len(q.Regions) > 0 {
		regions := make([]interface{}, len(q.Regions))
		for i, r := range q.Regions {
			regions[i] = r
		}
		query = query.And("Region").In(regions...)
	}
	if q.DateFrom != nil {
		query = query.And("Timestamp").Ge(*q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.And("Timestamp").Le(*q.DateTo)
	}
	return query
}

// CountTransactions returns the number of rows matching the query
func (s *TransactionStorage) CountTransactions(ctx context.Context, q interfaces.TransactionQuery) (int, error) {
	count, err := s.db.Store().Count(&models.Transaction{}, buildQuery(q))
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return int(count), nil
}

// FetchTransactions returns matching rows newest-first
func (s *TransactionStorage) FetchTransactions(ctx context.Context, q interfaces.TransactionQuery) ([]*models.Transaction, error) {
	query := buildQuery(q).SortBy("Timestamp").Reverse()
	if q.Offset > 0 {
		query = query.Skip(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var txns []*models.Transaction
	if err := s.db.Store().Find(&txns, query); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txns, nil
}

// InsertTransactions bulk-loads rows
func (s *TransactionStorage) InsertTransactions(ctx context.Context, txns []*models.Transaction) error {
	for _, txn := range txns {
		if err := s.db.Store().Upsert(txn.ID, txn); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}
	return nil
}
