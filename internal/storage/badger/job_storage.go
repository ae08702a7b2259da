package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// JobStorage implements interfaces.JobStorage backed by badgerhold.
//
// Stage writes from the pipeline go through UpdateJob, which runs the
// mutation inside a single Badger transaction. That is what makes the
// run-sequence check and the recovery reset idempotent under
// concurrent writers.
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time // clock for the stuck cutoff; tests pin it
}

// NewJobStorage creates a new job storage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// CreateJob stores a new export job
func (s *JobStorage) CreateJob(ctx context.Context, job *models.ExportJob) error {
	if err := s.db.Store().Insert(job.ID, job); err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob returns a job by ID
func (s *JobStorage) GetJob(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := s.db.Store().Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateJob applies mutate to the stored job inside one transaction and
// returns the updated snapshot. A mutate error aborts the write.
func (s *JobStorage) UpdateJob(ctx context.Context, id string, mutate interfaces.JobMutator) (*models.ExportJob, error) {
	var updated *models.ExportJob
	found := false

	err := s.db.Store().UpdateMatching(&models.ExportJob{}, badgerhold.Where(badgerhold.Key).Eq(id), func(record interface{}) error {
		job, ok := record.(*models.ExportJob)
		if !ok {
			return fmt.Errorf("unexpected record type %T", record)
		}
		found = true
		if err := mutate(job); err != nil {
			return err
		}
		snapshot := *job
		updated = &snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, interfaces.ErrJobNotFound
	}
	return updated, nil
}

// ListJobs returns jobs newest-first by submission time
func (s *JobStorage) ListJobs(ctx context.Context, limit int) ([]*models.ExportJob, error) {
	var jobs []*models.ExportJob
	query := badgerhold.Where("ID").Ne("").SortBy("SubmittedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// DeleteJobsByStatus removes all jobs in the given state
func (s *JobStorage) DeleteJobsByStatus(ctx context.Context, status models.JobStatus) (int, error) {
	var jobs []*models.ExportJob
	if err := s.db.Store().Find(&jobs, badgerhold.Where("Status").Eq(status)); err != nil {
		return 0, fmt.Errorf("failed to find %s jobs: %w", status, err)
	}
	if err := s.db.Store().DeleteMatching(&models.ExportJob{}, badgerhold.Where("Status").Eq(status)); err != nil {
		return 0, fmt.Errorf("failed to delete %s jobs: %w", status, err)
	}
	return len(jobs), nil
}

// FindStuckProcessingJobs returns processing jobs started at or before
// now minus threshold. The boundary is inclusive: a job started exactly
// threshold ago is stuck.
func (s *JobStorage) FindStuckProcessingJobs(ctx context.Context, threshold time.Duration) ([]*models.ExportJob, error) {
	var processing []*models.ExportJob
	if err := s.db.Store().Find(&processing, badgerhold.Where("Status").Eq(models.JobStatusProcessing)); err != nil {
		return nil, fmt.Errorf("failed to find processing jobs: %w", err)
	}

	cutoff := s.now().Add(-threshold)
	stuck := make([]*models.ExportJob, 0, len(processing))
	for _, job := range processing {
		if job.StartedAt != nil && !job.StartedAt.After(cutoff) {
			stuck = append(stuck, job)
		}
	}
	sort.Slice(stuck, func(i, j int) bool {
		return stuck[i].StartedAt.Before(*stuck[j].StartedAt)
	})
	return stuck, nil
}

// CountJobsByStatus returns per-status job counts
func (s *JobStorage) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	counts := make(map[models.JobStatus]int)
	for _, status := range []models.JobStatus{
		models.JobStatusQueued,
		models.JobStatusProcessing,
		models.JobStatusCompleted,
		models.JobStatusFailed,
	} {
		n, err := s.db.Store().Count(&models.ExportJob{}, badgerhold.Where("Status").Eq(status))
		if err != nil {
			return nil, fmt.Errorf("failed to count %s jobs: %w", status, err)
		}
		counts[status] = int(n)
	}
	return counts, nil
}
