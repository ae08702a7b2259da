package models

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of an export job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true for states that end a run
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReportType selects the view materialization applied at download time
type ReportType string

const (
	ReportTypeDetail    ReportType = "detail"
	ReportTypeSummary   ReportType = "summary"
	ReportTypeException ReportType = "exception"
	ReportTypeBooklet   ReportType = "booklet"
)

// ExportFormat selects the download serializer
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatXLSX ExportFormat = "xlsx"
)

// ExportJob is a single asynchronous report export request.
//
// Progress moves through a fixed ladder within one run and only moves
// backwards when a retry or recovery starts a new run. RunSeq tags the
// run that currently owns the job; stage writes from older runs compare
// it and no-op.
type ExportJob struct {
	ID            string        `json:"jobId"`
	Name          string        `json:"name"`
	ReportType    ReportType    `json:"type"`
	Format        ExportFormat  `json:"format"`
	Status        JobStatus     `json:"status"`
	Progress      int           `json:"progress"`
	TotalRows     int           `json:"totalRows"`
	ProcessedRows int           `json:"processedRows"`
	RunSeq        int64         `json:"runSeq"`
	Filters       ExportFilters `json:"filters"`
	SubmittedAt   time.Time     `json:"submittedAt"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	FileSize      string        `json:"fileSize,omitempty"`
	DownloadURL   string        `json:"downloadUrl,omitempty"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`
}

// JobName builds the display name used at submission time
func JobName(reportType ReportType, submittedAt time.Time) string {
	return fmt.Sprintf("%s Report - %s", reportType, submittedAt.Format("2006-01-02"))
}

// RowsAt returns processed rows for a progress percentage on the ladder
func RowsAt(totalRows, progress int) int {
	return totalRows * progress / 100
}

// FileSizeFor estimates the serialized size label for a completed export
func FileSizeFor(totalRows int) string {
	return fmt.Sprintf("%.1f MB", float64(totalRows)*0.0003)
}

// DownloadURLFor returns the download path for a job token
func DownloadURLFor(jobID string) string {
	return "/api/downloads/" + jobID
}
