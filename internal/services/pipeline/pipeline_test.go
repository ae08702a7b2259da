package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	badgerstore "github.com/ternarybob/refero/internal/storage/badger"
)

// stubTransactions sizes the dataset without a real store
type stubTransactions struct {
	count int
}

func (s *stubTransactions) CountTransactions(ctx context.Context, q interfaces.TransactionQuery) (int, error) {
	return s.count, nil
}

func (s *stubTransactions) FetchTransactions(ctx context.Context, q interfaces.TransactionQuery) ([]*models.Transaction, error) {
	return nil, nil
}

func (s *stubTransactions) InsertTransactions(ctx context.Context, txns []*models.Transaction) error {
	return nil
}

// eventRecorder captures published events for assertions
type eventRecorder struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *eventRecorder) Publish(ctx context.Context, event interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) PublishSync(ctx context.Context, event interfaces.Event) error {
	return r.Publish(ctx, event)
}

func (r *eventRecorder) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (r *eventRecorder) Unsubscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (r *eventRecorder) Close() error {
	return nil
}

func (r *eventRecorder) byType(eventType interfaces.EventType) []models.JobNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.JobNotification
	for _, e := range r.events {
		if e.Type == eventType {
			if n, ok := e.Payload.(models.JobNotification); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// faultSequence forces a fixed outcome per run, in order
type faultSequence struct {
	mu       sync.Mutex
	outcomes []bool
	next     int
}

func (f *faultSequence) Draw() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.outcomes) {
		return false
	}
	out := f.outcomes[f.next]
	f.next++
	return out
}

func newTestJobStorage(t *testing.T) interfaces.JobStorage {
	t.Helper()

	logger := arbor.NewLogger()
	manager, err := badgerstore.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		manager.Close()
	})
	return manager.Jobs()
}

func newTestPipeline(t *testing.T, jobs interfaces.JobStorage, faults FaultPolicy, recorder *eventRecorder, totalRows int) *Service {
	t.Helper()

	svc := NewService(jobs, &stubTransactions{count: totalRows}, recorder, faults, Config{
		QueueDelay:   10 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
	}, arbor.NewLogger())
	t.Cleanup(svc.Stop)
	return svc
}

func waitForStatus(t *testing.T, jobs interfaces.JobStorage, id string, status models.JobStatus) *models.ExportJob {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetJob(context.Background(), id)
		require.NoError(t, err)
		if job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", id, status)
	return nil
}

func TestPipeline_SuccessLadder(t *testing.T) {
	jobs := newTestJobStorage(t)
	recorder := &eventRecorder{}
	svc := newTestPipeline(t, jobs, FixedFaults(false), recorder, 2000)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	filters := models.ExportFilters{
		Domain:      "telecom",
		DateFrom:    &from,
		DateTo:      &to,
		Regions:     []string{"Europe", "APAC"},
		NotifyEmail: "analyst@example.com",
	}
	job, err := svc.Submit(context.Background(), models.ReportTypeSummary, models.FormatPDF, filters)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, int64(1), job.RunSeq)
	assert.Equal(t, 2000, job.TotalRows)

	done := waitForStatus(t, jobs, job.ID, models.JobStatusCompleted)
	assert.Equal(t, filters, done.Filters, "filter snapshot survives the run unchanged")
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, done.TotalRows, done.ProcessedRows)
	assert.Equal(t, "0.6 MB", done.FileSize)
	assert.Equal(t, "/api/downloads/"+job.ID, done.DownloadURL)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.ErrorMessage)

	assert.Len(t, recorder.byType(interfaces.EventJobQueued), 1)
	progress := recorder.byType(interfaces.EventJobProgress)
	require.Len(t, progress, 1)
	assert.Equal(t, 85, progress[0].Progress)
	completed := recorder.byType(interfaces.EventJobCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "0.6 MB", completed[0].FileSize)
	assert.Empty(t, recorder.byType(interfaces.EventJobFailed))
}

func TestPipeline_FailureLadder(t *testing.T) {
	jobs := newTestJobStorage(t)
	recorder := &eventRecorder{}
	svc := newTestPipeline(t, jobs, FixedFaults(true), recorder, 1000)

	job, err := svc.Submit(context.Background(), models.ReportTypeDetail, models.FormatXLSX, models.ExportFilters{})
	require.NoError(t, err)

	failed := waitForStatus(t, jobs, job.ID, models.JobStatusFailed)
	assert.Equal(t, 35, failed.Progress)
	assert.Equal(t, capacityErrorMessage, failed.ErrorMessage)
	assert.NotNil(t, failed.CompletedAt)
	assert.Empty(t, failed.FileSize)
	assert.Empty(t, failed.DownloadURL)

	require.Len(t, recorder.byType(interfaces.EventJobFailed), 1)
	assert.Empty(t, recorder.byType(interfaces.EventJobCompleted))
	assert.Empty(t, recorder.byType(interfaces.EventJobProgress), "no progress event on the failure path")
}

func TestPipeline_RetryRejectsNonFailedJob(t *testing.T) {
	jobs := newTestJobStorage(t)
	svc := newTestPipeline(t, jobs, FixedFaults(false), &eventRecorder{}, 100)

	now := time.Now()
	job := &models.ExportJob{
		ID:          common.NewJobID(),
		Name:        models.JobName(models.ReportTypeDetail, now),
		ReportType:  models.ReportTypeDetail,
		Format:      models.FormatPDF,
		Status:      models.JobStatusCompleted,
		Progress:    100,
		RunSeq:      1,
		SubmittedAt: now,
	}
	require.NoError(t, jobs.CreateJob(context.Background(), job))

	_, err := svc.Retry(context.Background(), job.ID)
	assert.ErrorIs(t, err, interfaces.ErrNotRetryable)

	_, err = svc.Retry(context.Background(), "job-missing")
	assert.ErrorIs(t, err, interfaces.ErrJobNotFound)
}

func TestPipeline_RetryResetsAndReruns(t *testing.T) {
	jobs := newTestJobStorage(t)
	recorder := &eventRecorder{}
	faults := &faultSequence{outcomes: []bool{true, false}}
	svc := newTestPipeline(t, jobs, faults, recorder, 1200)

	job, err := svc.Submit(context.Background(), models.ReportTypeException, models.FormatPDF, models.ExportFilters{})
	require.NoError(t, err)

	waitForStatus(t, jobs, job.ID, models.JobStatusFailed)

	retried, err := svc.Retry(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, retried.Status)
	assert.Equal(t, int64(2), retried.RunSeq)
	assert.Equal(t, 0, retried.Progress)
	assert.Equal(t, 0, retried.ProcessedRows)
	assert.Empty(t, retried.ErrorMessage)
	assert.Nil(t, retried.StartedAt)
	assert.Nil(t, retried.CompletedAt)
	assert.Equal(t, 1200, retried.TotalRows, "filter snapshot and sizing are reused")

	done := waitForStatus(t, jobs, job.ID, models.JobStatusCompleted)
	assert.Equal(t, int64(2), done.RunSeq)
	assert.Equal(t, 100, done.Progress)

	assert.Len(t, recorder.byType(interfaces.EventJobQueued), 2)
}

func TestPipeline_SupersededRunCannotWrite(t *testing.T) {
	jobs := newTestJobStorage(t)
	svc := newTestPipeline(t, jobs, FixedFaults(false), &eventRecorder{}, 100)

	now := time.Now()
	job := &models.ExportJob{
		ID:          common.NewJobID(),
		ReportType:  models.ReportTypeDetail,
		Format:      models.FormatPDF,
		Status:      models.JobStatusProcessing,
		Progress:    30,
		RunSeq:      2,
		SubmittedAt: now,
	}
	require.NoError(t, jobs.CreateJob(context.Background(), job))

	// A stage write tagged with an older run sequence must no-op
	_, ok := svc.advance(job.ID, 1, func(j *models.ExportJob) {
		j.Progress = 60
	})
	assert.False(t, ok)

	got, err := jobs.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Progress)
	assert.Equal(t, int64(2), got.RunSeq)

	// The owning run sequence still writes
	_, ok = svc.advance(job.ID, 2, func(j *models.ExportJob) {
		j.Progress = 60
	})
	assert.True(t, ok)

	got, err = jobs.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress)
}

func TestPipeline_RecoverStuckJobs(t *testing.T) {
	jobs := newTestJobStorage(t)
	recorder := &eventRecorder{}
	svc := newTestPipeline(t, jobs, FixedFaults(false), recorder, 100)
	ctx := context.Background()

	now := time.Now()
	oldStart := now.Add(-10 * time.Minute)
	stuck := &models.ExportJob{
		ID:            common.NewJobID(),
		Name:          models.JobName(models.ReportTypeBooklet, oldStart),
		ReportType:    models.ReportTypeBooklet,
		Format:        models.FormatXLSX,
		Status:        models.JobStatusProcessing,
		Progress:      45,
		TotalRows:     0,
		ProcessedRows: 4500,
		RunSeq:        1,
		SubmittedAt:   oldStart,
		StartedAt:     &oldStart,
	}
	require.NoError(t, jobs.CreateJob(ctx, stuck))

	freshStart := now.Add(-5 * time.Second)
	fresh := &models.ExportJob{
		ID:          common.NewJobID(),
		ReportType:  models.ReportTypeDetail,
		Format:      models.FormatPDF,
		Status:      models.JobStatusProcessing,
		RunSeq:      1,
		SubmittedAt: freshStart,
		StartedAt:   &freshStart,
	}
	require.NoError(t, jobs.CreateJob(ctx, fresh))

	recovered, err := svc.RecoverStuckJobs(ctx, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	// The requeue notification carries the recovery note and the
	// assumed row count before the new run overwrites them.
	queued := recorder.byType(interfaces.EventJobQueued)
	require.Len(t, queued, 1)
	assert.Equal(t, stuck.ID, queued[0].JobID)
	assert.Equal(t, recoveryNote, queued[0].ErrorMessage)

	done := waitForStatus(t, jobs, stuck.ID, models.JobStatusCompleted)
	assert.Equal(t, int64(2), done.RunSeq)
	assert.Equal(t, recoveredDefaultRows, done.TotalRows)
	assert.Equal(t, done.TotalRows, done.ProcessedRows)

	// The fresh job was untouched
	got, err := jobs.GetJob(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.RunSeq)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
}

func TestPipeline_RecoverySecondPassFindsNothing(t *testing.T) {
	jobs := newTestJobStorage(t)
	svc := newTestPipeline(t, jobs, FixedFaults(false), &eventRecorder{}, 100)
	ctx := context.Background()

	oldStart := time.Now().Add(-10 * time.Minute)
	stuck := &models.ExportJob{
		ID:          common.NewJobID(),
		ReportType:  models.ReportTypeSummary,
		Format:      models.FormatPDF,
		Status:      models.JobStatusProcessing,
		TotalRows:   500,
		RunSeq:      1,
		SubmittedAt: oldStart,
		StartedAt:   &oldStart,
	}
	require.NoError(t, jobs.CreateJob(ctx, stuck))

	recovered, err := svc.RecoverStuckJobs(ctx, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	recovered, err = svc.RecoverStuckJobs(ctx, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, recovered, "a reset job is not stuck anymore")

	waitForStatus(t, jobs, stuck.ID, models.JobStatusCompleted)
}

func TestPipeline_RecoverySkipsQueueDelayRetryKeepsIt(t *testing.T) {
	jobs := newTestJobStorage(t)
	// Queue delay far beyond the wait deadline: only a run that skips
	// it can complete in time.
	svc := NewService(jobs, &stubTransactions{count: 100}, &eventRecorder{}, FixedFaults(false), Config{
		QueueDelay:   30 * time.Second,
		TickInterval: 10 * time.Millisecond,
	}, arbor.NewLogger())
	t.Cleanup(svc.Stop)
	ctx := context.Background()

	oldStart := time.Now().Add(-10 * time.Minute)
	stuck := &models.ExportJob{
		ID:          common.NewJobID(),
		ReportType:  models.ReportTypeDetail,
		Format:      models.FormatPDF,
		Status:      models.JobStatusProcessing,
		TotalRows:   400,
		RunSeq:      1,
		SubmittedAt: oldStart,
		StartedAt:   &oldStart,
	}
	require.NoError(t, jobs.CreateJob(ctx, stuck))

	recovered, err := svc.RecoverStuckJobs(ctx, 2*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, recovered)
	waitForStatus(t, jobs, stuck.ID, models.JobStatusCompleted)

	now := time.Now()
	failed := &models.ExportJob{
		ID:           common.NewJobID(),
		ReportType:   models.ReportTypeSummary,
		Format:       models.FormatPDF,
		Status:       models.JobStatusFailed,
		Progress:     35,
		TotalRows:    400,
		RunSeq:       1,
		SubmittedAt:  now,
		ErrorMessage: capacityErrorMessage,
	}
	require.NoError(t, jobs.CreateJob(ctx, failed))

	_, err = svc.Retry(ctx, failed.ID)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	got, err := jobs.GetJob(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status, "a retried run waits out the full queue delay")
}

func TestSupervisor_PeriodicSweep(t *testing.T) {
	jobs := newTestJobStorage(t)
	svc := newTestPipeline(t, jobs, FixedFaults(false), &eventRecorder{}, 100)
	ctx := context.Background()

	oldStart := time.Now().Add(-10 * time.Minute)
	stuck := &models.ExportJob{
		ID:          common.NewJobID(),
		ReportType:  models.ReportTypeDetail,
		Format:      models.FormatPDF,
		Status:      models.JobStatusProcessing,
		TotalRows:   300,
		RunSeq:      1,
		SubmittedAt: oldStart,
		StartedAt:   &oldStart,
	}
	require.NoError(t, jobs.CreateJob(ctx, stuck))

	supervisor := NewSupervisor(svc, 2*time.Minute, 20*time.Millisecond, arbor.NewLogger())
	supervisor.Start()
	defer supervisor.Stop()

	done := waitForStatus(t, jobs, stuck.ID, models.JobStatusCompleted)
	assert.GreaterOrEqual(t, done.RunSeq, int64(2))
}

func TestQueryFromFilters(t *testing.T) {
	from := time.Date(2026, 2, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	q := QueryFromFilters(models.ExportFilters{
		Regions:  []string{"Europe", "APAC"},
		DateFrom: &from,
		DateTo:   &to,
	})

	require.NotNil(t, q.DateFrom)
	require.NotNil(t, q.DateTo)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *q.DateFrom)
	assert.Equal(t, 23, q.DateTo.Hour())
	assert.Equal(t, 10, q.DateTo.Day())
	assert.Equal(t, []string{"Europe", "APAC"}, q.Regions)

	empty := QueryFromFilters(models.ExportFilters{})
	assert.Nil(t, empty.DateFrom)
	assert.Nil(t, empty.DateTo)
	assert.Empty(t, empty.Regions)
}
