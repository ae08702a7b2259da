package models

import "time"

// ExportFilters is the dataset selection captured when a job is
// submitted. It is stored verbatim on the job and never mutated; a
// retry or recovery re-runs the identical snapshot.
type ExportFilters struct {
	Domain      string     `json:"domain,omitempty"`
	DateFrom    *time.Time `json:"dateFrom,omitempty"`
	DateTo      *time.Time `json:"dateTo,omitempty"`
	Regions     []string   `json:"regions,omitempty"`
	NotifyEmail string     `json:"notifyEmail,omitempty"`
}

// DateBounds returns the effective range with the start floored to the
// beginning of its day and the end pushed to the end of its day.
func (f ExportFilters) DateBounds() (from, to *time.Time) {
	if f.DateFrom != nil {
		t := StartOfDay(*f.DateFrom)
		from = &t
	}
	if f.DateTo != nil {
		t := EndOfDay(*f.DateTo)
		to = &t
	}
	return from, to
}

// StartOfDay truncates t to midnight in its location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
