package schedules

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

// memorySchedules is an in-memory ScheduleStorage for tests
type memorySchedules struct {
	mu        sync.Mutex
	schedules map[string]*models.ReportSchedule
}

func newMemorySchedules() *memorySchedules {
	return &memorySchedules{schedules: make(map[string]*models.ReportSchedule)}
}

func (m *memorySchedules) CreateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *schedule
	m.schedules[schedule.ID] = &s
	return nil
}

func (m *memorySchedules) GetSchedule(ctx context.Context, id string) (*models.ReportSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, interfaces.ErrScheduleNotFound
	}
	s := *schedule
	return &s, nil
}

func (m *memorySchedules) UpdateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[schedule.ID]; !ok {
		return interfaces.ErrScheduleNotFound
	}
	s := *schedule
	m.schedules[schedule.ID] = &s
	return nil
}

func (m *memorySchedules) DeleteSchedule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return interfaces.ErrScheduleNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *memorySchedules) ListSchedules(ctx context.Context) ([]*models.ReportSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ReportSchedule, 0, len(m.schedules))
	for _, schedule := range m.schedules {
		s := *schedule
		out = append(out, &s)
	}
	return out, nil
}

func TestNextRun(t *testing.T) {
	svc := NewService(newMemorySchedules(), arbor.NewLogger())

	// Wednesday 2026-03-04 15:30 UTC
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency models.ScheduleFrequency
		expected  time.Time
	}{
		{
			name:      "daily fires next midnight",
			frequency: models.FrequencyDaily,
			expected:  time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "weekly fires next Monday midnight",
			frequency: models.FrequencyWeekly,
			expected:  time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monthly fires on the 1st",
			frequency: models.FrequencyMonthly,
			expected:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := svc.NextRun(tt.frequency, now)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next)
		})
	}

	_, err := svc.NextRun(models.ScheduleFrequency("hourly"), now)
	assert.Error(t, err)
}

func TestCreateSchedule(t *testing.T) {
	store := newMemorySchedules()
	svc := NewService(store, arbor.NewLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &models.ReportSchedule{
		Name:       "Weekly regional summary",
		Frequency:  models.FrequencyWeekly,
		ReportType: models.ReportTypeSummary,
		Format:     models.FormatPDF,
		Recipients: []string{"ops@refero.local"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.False(t, created.NextRun.IsZero())
	assert.Equal(t, time.Monday, created.NextRun.Weekday())
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekly regional summary", got.Name)
}

func TestUpdateScheduleRecomputesNextRun(t *testing.T) {
	store := newMemorySchedules()
	svc := NewService(store, arbor.NewLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &models.ReportSchedule{
		Name:       "Exports digest",
		Frequency:  models.FrequencyDaily,
		ReportType: models.ReportTypeDetail,
		Format:     models.FormatXLSX,
	})
	require.NoError(t, err)
	originalNextRun := created.NextRun

	// Name-only change keeps the next run
	updated, err := svc.Update(ctx, created.ID, func(s *models.ReportSchedule) error {
		s.Name = "Exports digest (renamed)"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, originalNextRun, updated.NextRun)

	// Frequency change recomputes it
	updated, err = svc.Update(ctx, created.ID, func(s *models.ReportSchedule) error {
		s.Frequency = models.FrequencyMonthly
		return nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, originalNextRun, updated.NextRun)
	assert.Equal(t, 1, updated.NextRun.Day())
}

func TestDeleteSchedule(t *testing.T) {
	store := newMemorySchedules()
	svc := NewService(store, arbor.NewLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &models.ReportSchedule{
		Name:      "Short lived",
		Frequency: models.FrequencyDaily,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, interfaces.ErrScheduleNotFound)

	err = svc.Delete(ctx, "sched-missing")
	assert.ErrorIs(t, err, interfaces.ErrScheduleNotFound)
}
