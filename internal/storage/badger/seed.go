package badger

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

var seedRegions = []string{"North America", "Europe", "APAC", "LATAM", "EMEA", "Asia"}

var seedTypes = []models.TransactionType{
	models.TxnOrder,
	models.TxnRefund,
	models.TxnAdjustment,
	models.TxnFee,
}

// SeedTransactions populates the reporting dataset when the store is
// empty. Rows are spread over roughly the last 90 days with a status
// skew of mostly CLEARED, some PENDING and a small FAILED tail.
func SeedTransactions(ctx context.Context, storage interfaces.TransactionStorage, count int, logger arbor.ILogger) error {
	if count <= 0 {
		return nil
	}

	existing, err := storage.CountTransactions(ctx, interfaces.TransactionQuery{})
	if err != nil {
		return fmt.Errorf("failed to check dataset size: %w", err)
	}
	if existing > 0 {
		logger.Debug().Int("rows", existing).Msg("Transaction dataset already seeded")
		return nil
	}

	logger.Info().Int("rows", count).Msg("Seeding transaction dataset")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	batch := make([]*models.Transaction, 0, 1000)

	for i := 0; i < count; i++ {
		roll := rng.Float64()
		status := "CLEARED"
		switch {
		case roll > 0.95:
			status = "FAILED"
		case roll > 0.85:
			status = "PENDING"
		}

		ageSeconds := rng.Int63n(90 * 24 * 60 * 60)
		batch = append(batch, &models.Transaction{
			ID:        fmt.Sprintf("TXN-%d", 500000+i),
			Timestamp: now.Add(-time.Duration(ageSeconds) * time.Second),
			Region:    seedRegions[rng.Intn(len(seedRegions))],
			Type:      seedTypes[rng.Intn(len(seedTypes))],
			Amount:    rng.Float64()*5000 + 10,
			Status:    status,
			Customer:  fmt.Sprintf("CUST-%d", 1000+(i%500)),
		})

		if len(batch) == cap(batch) {
			if err := storage.InsertTransactions(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := storage.InsertTransactions(ctx, batch); err != nil {
			return err
		}
	}

	logger.Info().Int("rows", count).Msg("Transaction dataset seeded")
	return nil
}
