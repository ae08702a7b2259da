package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique export job ID with the "job-" prefix.
// The token is opaque and unguessable; it doubles as the download path segment.
func NewJobID() string {
	return "job-" + uuid.New().String()
}

// NewScheduleID generates a unique schedule ID with the "sched-" prefix
func NewScheduleID() string {
	return "sched-" + uuid.New().String()
}

// NewSessionToken generates an opaque session token
func NewSessionToken() string {
	return uuid.New().String()
}
