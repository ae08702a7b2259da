package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

// capacityErrorMessage is the error recorded when a run hits the
// simulated capacity fault
const capacityErrorMessage = "Memory limit exceeded while processing large dataset. Consider reducing date range or splitting into smaller exports."

// recoveryNote is written to a job when the recovery supervisor resets it
const recoveryNote = "Job was stuck and has been reset for retry."

// recoveredDefaultRows is assumed when a recovered job has no row count
const recoveredDefaultRows = 50000

// Config holds the timing knobs of the staged run. Production uses the
// defaults; tests shrink both to milliseconds.
type Config struct {
	QueueDelay   time.Duration // wait before a submitted or retried job enters processing
	TickInterval time.Duration // spacing between progress stages
}

// Service drives export jobs through the staged state machine.
//
// Each run is one goroutine tagged with the job's run sequence. Every
// stage write goes through the job store's transactional update and
// checks the stored sequence first, so a run that has been superseded
// by a retry or recovery quietly stops at its next stage.
type Service struct {
	jobs         interfaces.JobStorage
	transactions interfaces.TransactionStorage
	events       interfaces.EventService
	faults       FaultPolicy
	config       Config
	logger       arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates the export pipeline
func NewService(jobs interfaces.JobStorage, transactions interfaces.TransactionStorage, events interfaces.EventService, faults FaultPolicy, config Config, logger arbor.ILogger) *Service {
	if config.QueueDelay <= 0 {
		config.QueueDelay = 5 * time.Second
	}
	if config.TickInterval <= 0 {
		config.TickInterval = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		jobs:         jobs,
		transactions: transactions,
		events:       events,
		faults:       faults,
		config:       config,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Stop cancels in-flight runs and waits for their goroutines
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// QueryFromFilters converts a filter snapshot into a dataset query.
// Date bounds are normalized to whole days.
func QueryFromFilters(filters models.ExportFilters) interfaces.TransactionQuery {
	from, to := filters.DateBounds()
	return interfaces.TransactionQuery{
		Regions:  filters.Regions,
		DateFrom: from,
		DateTo:   to,
	}
}

// Submit creates a job for the filter snapshot and starts its first
// run after the standard queue delay.
func (s *Service) Submit(ctx context.Context, reportType models.ReportType, format models.ExportFormat, filters models.ExportFilters) (*models.ExportJob, error) {
	totalRows, err := s.transactions.CountTransactions(ctx, QueryFromFilters(filters))
	if err != nil {
		return nil, fmt.Errorf("failed to size dataset: %w", err)
	}

	now := time.Now()
	job := &models.ExportJob{
		ID:          common.NewJobID(),
		Name:        models.JobName(reportType, now),
		ReportType:  reportType,
		Format:      format,
		Status:      models.JobStatusQueued,
		Progress:    0,
		TotalRows:   totalRows,
		RunSeq:      1,
		Filters:     filters,
		SubmittedAt: now,
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("type", string(reportType)).
		Str("format", string(format)).
		Int("total_rows", totalRows).
		Msg("Export job submitted")

	s.publish(interfaces.EventJobQueued, job)
	s.startRun(job.ID, job.RunSeq, job.TotalRows, false)

	return job, nil
}

// Retry restarts a failed job. The snapshot is reused unchanged, the
// run sequence moves on, and the standard queue delay applies again.
func (s *Service) Retry(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := s.jobs.UpdateJob(ctx, jobID, func(j *models.ExportJob) error {
		if j.Status != models.JobStatusFailed {
			return interfaces.ErrNotRetryable
		}
		j.Status = models.JobStatusQueued
		j.Progress = 0
		j.ProcessedRows = 0
		j.StartedAt = nil
		j.CompletedAt = nil
		j.ErrorMessage = ""
		j.FileSize = ""
		j.DownloadURL = ""
		j.RunSeq++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("job_id", jobID).
		Int64("run_seq", job.RunSeq).
		Msg("Failed job queued for retry")

	s.publish(interfaces.EventJobQueued, job)
	s.startRun(job.ID, job.RunSeq, job.TotalRows, false)

	return job, nil
}

// RecoverStuckJobs resets processing jobs older than threshold and
// re-enters them into the pipeline without the queue delay. The reset
// re-checks the stuck predicate inside the storage transaction, so
// overlapping recovery passes reset each job once.
func (s *Service) RecoverStuckJobs(ctx context.Context, threshold time.Duration) (int, error) {
	stuck, err := s.jobs.FindStuckProcessingJobs(ctx, threshold)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, candidate := range stuck {
		cutoff := time.Now().Add(-threshold)
		job, err := s.jobs.UpdateJob(ctx, candidate.ID, func(j *models.ExportJob) error {
			if j.Status != models.JobStatusProcessing || j.StartedAt == nil || j.StartedAt.After(cutoff) {
				return interfaces.ErrNotStuck
			}
			j.Status = models.JobStatusQueued
			j.Progress = 0
			j.ProcessedRows = 0
			j.StartedAt = nil
			j.CompletedAt = nil
			j.ErrorMessage = recoveryNote
			if j.TotalRows <= 0 {
				j.TotalRows = recoveredDefaultRows
			}
			j.RunSeq++
			return nil
		})
		if err != nil {
			if errors.Is(err, interfaces.ErrNotStuck) {
				continue
			}
			s.logger.Error().Err(err).Str("job_id", candidate.ID).Msg("Failed to reset stuck job")
			continue
		}

		s.logger.Warn().
			Str("job_id", job.ID).
			Int64("run_seq", job.RunSeq).
			Msg("Stuck job reset and re-queued")

		s.publish(interfaces.EventJobQueued, job)
		s.startRun(job.ID, job.RunSeq, job.TotalRows, true)
		recovered++
	}

	return recovered, nil
}

// startRun launches the staged run goroutine for (jobID, runSeq)
func (s *Service) startRun(jobID string, runSeq int64, totalRows int, skipQueueDelay bool) {
	s.wg.Add(1)
	common.SafeGo(s.logger, "export-run-"+jobID, func() {
		defer s.wg.Done()
		s.run(jobID, runSeq, totalRows, skipQueueDelay)
	})
}

func (s *Service) run(jobID string, runSeq int64, totalRows int, skipQueueDelay bool) {
	if !skipQueueDelay {
		if !s.sleep(s.config.QueueDelay) {
			return
		}
	}

	willFail := s.faults.Draw()

	// queued -> processing, 10%
	now := time.Now()
	if _, ok := s.advance(jobID, runSeq, func(j *models.ExportJob) {
		j.Status = models.JobStatusProcessing
		j.StartedAt = &now
		j.Progress = 10
		j.ProcessedRows = models.RowsAt(totalRows, 10)
		j.ErrorMessage = ""
	}); !ok {
		return
	}

	if !s.sleep(s.config.TickInterval) {
		return
	}
	if _, ok := s.advance(jobID, runSeq, func(j *models.ExportJob) {
		j.Progress = 30
		j.ProcessedRows = models.RowsAt(totalRows, 30)
	}); !ok {
		return
	}

	if !s.sleep(s.config.TickInterval) {
		return
	}
	midway := 60
	if willFail {
		midway = 35
	}
	if _, ok := s.advance(jobID, runSeq, func(j *models.ExportJob) {
		j.Progress = midway
		j.ProcessedRows = models.RowsAt(totalRows, midway)
	}); !ok {
		return
	}

	if !s.sleep(s.config.TickInterval) {
		return
	}

	if willFail {
		completed := time.Now()
		job, ok := s.advance(jobID, runSeq, func(j *models.ExportJob) {
			j.Status = models.JobStatusFailed
			j.CompletedAt = &completed
			j.ErrorMessage = capacityErrorMessage
		})
		if !ok {
			return
		}
		s.logger.Warn().Str("job_id", jobID).Msg("Export run failed")
		s.publish(interfaces.EventJobFailed, job)
		return
	}

	job, ok := s.advance(jobID, runSeq, func(j *models.ExportJob) {
		j.Progress = 85
		j.ProcessedRows = models.RowsAt(totalRows, 85)
	})
	if !ok {
		return
	}
	s.publish(interfaces.EventJobProgress, job)

	if !s.sleep(s.config.TickInterval) {
		return
	}
	completed := time.Now()
	job, ok = s.advance(jobID, runSeq, func(j *models.ExportJob) {
		j.Status = models.JobStatusCompleted
		j.CompletedAt = &completed
		j.Progress = 100
		j.ProcessedRows = j.TotalRows
		j.FileSize = models.FileSizeFor(j.TotalRows)
		j.DownloadURL = models.DownloadURLFor(j.ID)
	})
	if !ok {
		return
	}
	s.logger.Info().Str("job_id", jobID).Str("file_size", job.FileSize).Msg("Export run completed")
	s.publish(interfaces.EventJobCompleted, job)
}

// advance applies one stage write under the run-sequence guard.
// A superseded run logs at debug and reports !ok; a storage failure
// abandons the run.
func (s *Service) advance(jobID string, runSeq int64, mutate func(*models.ExportJob)) (*models.ExportJob, bool) {
	job, err := s.jobs.UpdateJob(s.ctx, jobID, func(j *models.ExportJob) error {
		if j.RunSeq != runSeq {
			return interfaces.ErrRunSuperseded
		}
		mutate(j)
		return nil
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrRunSuperseded) {
			s.logger.Debug().
				Str("job_id", jobID).
				Int64("run_seq", runSeq).
				Msg("Stage write skipped, run superseded")
		} else {
			s.logger.Error().Err(err).Str("job_id", jobID).Msg("Stage write failed, abandoning run")
		}
		return nil, false
	}
	return job, true
}

func (s *Service) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Service) publish(eventType interfaces.EventType, job *models.ExportJob) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(s.ctx, interfaces.Event{
		Type:    eventType,
		Payload: models.NotificationFromJob(job),
	}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish job event")
	}
}
