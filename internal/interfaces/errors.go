package interfaces

import "errors"

// Sentinel errors shared across storage and pipeline. Handlers map them
// to HTTP status codes with errors.Is.
var (
	// ErrJobNotFound is returned when a job ID does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrRunSuperseded is returned when a stage write carries a run
	// sequence older than the one stored on the job
	ErrRunSuperseded = errors.New("run superseded by a newer run")

	// ErrNotRetryable is returned when retry is requested for a job
	// that is not in the failed state
	ErrNotRetryable = errors.New("only failed jobs can be retried")

	// ErrNotStuck is returned when a recovery reset finds the job no
	// longer matches the stuck predicate
	ErrNotStuck = errors.New("job is no longer stuck")

	// ErrScheduleNotFound is returned when a schedule ID does not exist
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrUserNotFound is returned when a username does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid username or password")
)
