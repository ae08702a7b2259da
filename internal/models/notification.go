package models

import "time"

// JobNotification is the payload fanned out to websocket subscribers
// and email when a job changes state.
type JobNotification struct {
	JobID        string       `json:"jobId"`
	Name         string       `json:"name"`
	Status       JobStatus    `json:"status"`
	Progress     int          `json:"progress"`
	ReportType   ReportType   `json:"reportType"`
	Format       ExportFormat `json:"format"`
	FileSize     string       `json:"fileSize,omitempty"`
	DownloadURL  string       `json:"downloadUrl,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// NotificationFromJob snapshots the notification payload for a job
func NotificationFromJob(job *ExportJob) JobNotification {
	return JobNotification{
		JobID:        job.ID,
		Name:         job.Name,
		Status:       job.Status,
		Progress:     job.Progress,
		ReportType:   job.ReportType,
		Format:       job.Format,
		FileSize:     job.FileSize,
		DownloadURL:  job.DownloadURL,
		ErrorMessage: job.ErrorMessage,
		Timestamp:    time.Now(),
	}
}
