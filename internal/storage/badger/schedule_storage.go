package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ScheduleStorage implements interfaces.ScheduleStorage backed by badgerhold
type ScheduleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewScheduleStorage creates a new schedule storage instance
func NewScheduleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ScheduleStorage {
	return &ScheduleStorage{
		db:     db,
		logger: logger,
	}
}

// CreateSchedule stores a new schedule
func (s *ScheduleStorage) CreateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	if err := s.db.Store().Insert(schedule.ID, schedule); err != nil {
		return fmt.Errorf("failed to create schedule %s: %w", schedule.ID, err)
	}
	return nil
}

// GetSchedule returns a schedule by ID
func (s *ScheduleStorage) GetSchedule(ctx context.Context, id string) (*models.ReportSchedule, error) {
	var schedule models.ReportSchedule
	if err := s.db.Store().Get(id, &schedule); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule %s: %w", id, err)
	}
	return &schedule, nil
}

// UpdateSchedule overwrites a stored schedule
func (s *ScheduleStorage) UpdateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	if err := s.db.Store().Update(schedule.ID, schedule); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to update schedule %s: %w", schedule.ID, err)
	}
	return nil
}

// DeleteSchedule removes a schedule
func (s *ScheduleStorage) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.ReportSchedule{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrScheduleNotFound
		}
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}
	return nil
}

// ListSchedules returns all schedules ordered by next run
func (s *ScheduleStorage) ListSchedules(ctx context.Context) ([]*models.ReportSchedule, error) {
	var schedules []*models.ReportSchedule
	if err := s.db.Store().Find(&schedules, badgerhold.Where("ID").Ne("").SortBy("NextRun")); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}
