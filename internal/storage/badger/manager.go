package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	jobs         interfaces.JobStorage
	transactions interfaces.TransactionStorage
	schedules    interfaces.ScheduleStorage
	users        interfaces.UserStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		jobs:         NewJobStorage(db, logger),
		transactions: NewTransactionStorage(db, logger),
		schedules:    NewScheduleStorage(db, logger),
		users:        NewUserStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Jobs returns the export job storage
func (m *Manager) Jobs() interfaces.JobStorage {
	return m.jobs
}

// Transactions returns the reporting dataset storage
func (m *Manager) Transactions() interfaces.TransactionStorage {
	return m.transactions
}

// Schedules returns the schedule storage
func (m *Manager) Schedules() interfaces.ScheduleStorage {
	return m.schedules
}

// Users returns the user storage
func (m *Manager) Users() interfaces.UserStorage {
	return m.users
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
