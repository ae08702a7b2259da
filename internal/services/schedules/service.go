package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

// frequencySpecs maps schedule frequencies to cron expressions.
// Weekly runs land on Monday, monthly on the 1st, all at midnight.
var frequencySpecs = map[models.ScheduleFrequency]string{
	models.FrequencyDaily:   "0 0 * * *",
	models.FrequencyWeekly:  "0 0 * * 1",
	models.FrequencyMonthly: "0 0 1 * *",
}

// Service manages recurring report definitions. It only maintains the
// records and their next-run times; nothing here fires exports.
type Service struct {
	storage interfaces.ScheduleStorage
	parser  cron.Parser
	logger  arbor.ILogger
}

// NewService creates the schedule service
func NewService(storage interfaces.ScheduleStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:  logger,
	}
}

// NextRun computes the next fire time for a frequency after now
func (s *Service) NextRun(frequency models.ScheduleFrequency, now time.Time) (time.Time, error) {
	spec, ok := frequencySpecs[frequency]
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported schedule frequency: %s", frequency)
	}
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse schedule spec %q: %w", spec, err)
	}
	return schedule.Next(now), nil
}

// Create stores a new schedule with its computed next run
func (s *Service) Create(ctx context.Context, schedule *models.ReportSchedule) (*models.ReportSchedule, error) {
	nextRun, err := s.NextRun(schedule.Frequency, time.Now())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	schedule.ID = common.NewScheduleID()
	schedule.NextRun = nextRun
	schedule.IsActive = true
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	if err := s.storage.CreateSchedule(ctx, schedule); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("schedule_id", schedule.ID).
		Str("frequency", string(schedule.Frequency)).
		Str("next_run", schedule.NextRun.Format(time.RFC3339)).
		Msg("Report schedule created")
	return schedule, nil
}

// Update applies changes to a stored schedule and recomputes NextRun
// when the frequency changed
func (s *Service) Update(ctx context.Context, id string, apply func(*models.ReportSchedule) error) (*models.ReportSchedule, error) {
	schedule, err := s.storage.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	previousFrequency := schedule.Frequency
	if err := apply(schedule); err != nil {
		return nil, err
	}

	if schedule.Frequency != previousFrequency {
		nextRun, err := s.NextRun(schedule.Frequency, time.Now())
		if err != nil {
			return nil, err
		}
		schedule.NextRun = nextRun
	}
	schedule.UpdatedAt = time.Now()

	if err := s.storage.UpdateSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Delete removes a schedule
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteSchedule(ctx, id)
}

// Get returns one schedule
func (s *Service) Get(ctx context.Context, id string) (*models.ReportSchedule, error) {
	return s.storage.GetSchedule(ctx, id)
}

// List returns all schedules ordered by next run
func (s *Service) List(ctx context.Context) ([]*models.ReportSchedule, error) {
	return s.storage.ListSchedules(ctx)
}
