package models

import "time"

// ScheduleFrequency is how often a scheduled report recurs
type ScheduleFrequency string

const (
	FrequencyDaily   ScheduleFrequency = "daily"
	FrequencyWeekly  ScheduleFrequency = "weekly"
	FrequencyMonthly ScheduleFrequency = "monthly"
)

// ReportSchedule is a recurring export definition. NextRun is computed
// from the frequency when the schedule is created or updated; firing
// schedules is handled outside this service.
type ReportSchedule struct {
	ID         string            `json:"scheduleId" badgerhold:"key"`
	Name       string            `json:"name"`
	Frequency  ScheduleFrequency `json:"frequency"`
	NextRun    time.Time         `json:"nextRun"`
	Recipients []string          `json:"recipients"`
	ReportType ReportType        `json:"reportType"`
	Format     ExportFormat      `json:"format"`
	Filters    ExportFilters     `json:"filters"`
	IsActive   bool              `json:"isActive"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
