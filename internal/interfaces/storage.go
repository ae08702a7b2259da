package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/refero/internal/models"
)

// JobMutator edits a job in place inside a storage transaction.
// Returning an error aborts the write and surfaces to the caller.
type JobMutator func(job *models.ExportJob) error

// JobStorage persists export jobs
type JobStorage interface {
	// CreateJob stores a new job; the ID must be unset in the store
	CreateJob(ctx context.Context, job *models.ExportJob) error

	// GetJob returns a job by ID, or ErrJobNotFound
	GetJob(ctx context.Context, id string) (*models.ExportJob, error)

	// UpdateJob applies mutate to the stored job atomically and returns
	// the updated snapshot. The read, the mutation and the write happen
	// in one storage transaction.
	UpdateJob(ctx context.Context, id string, mutate JobMutator) (*models.ExportJob, error)

	// ListJobs returns jobs newest-first by submission time, capped at limit (0 = all)
	ListJobs(ctx context.Context, limit int) ([]*models.ExportJob, error)

	// DeleteJobsByStatus removes all jobs in the given state and returns the count
	DeleteJobsByStatus(ctx context.Context, status models.JobStatus) (int, error)

	// FindStuckProcessingJobs returns processing jobs whose StartedAt is
	// at or before now minus threshold
	FindStuckProcessingJobs(ctx context.Context, threshold time.Duration) ([]*models.ExportJob, error)

	// CountJobsByStatus returns per-status job counts
	CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int, error)
}

// TransactionQuery narrows the reporting dataset
type TransactionQuery struct {
	Regions  []string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// TransactionStorage reads the reporting dataset
type TransactionStorage interface {
	// CountTransactions returns the number of rows matching the query
	CountTransactions(ctx context.Context, q TransactionQuery) (int, error)

	// FetchTransactions returns matching rows newest-first
	FetchTransactions(ctx context.Context, q TransactionQuery) ([]*models.Transaction, error)

	// InsertTransactions bulk-loads rows (seeding and tests)
	InsertTransactions(ctx context.Context, txns []*models.Transaction) error
}

// ScheduleStorage persists recurring report definitions
type ScheduleStorage interface {
	CreateSchedule(ctx context.Context, schedule *models.ReportSchedule) error
	GetSchedule(ctx context.Context, id string) (*models.ReportSchedule, error)
	UpdateSchedule(ctx context.Context, schedule *models.ReportSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedules(ctx context.Context) ([]*models.ReportSchedule, error)
}

// UserStorage persists dashboard accounts
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// StorageManager owns the underlying store and its typed facades
type StorageManager interface {
	Jobs() JobStorage
	Transactions() TransactionStorage
	Schedules() ScheduleStorage
	Users() UserStorage
	Close() error
}
