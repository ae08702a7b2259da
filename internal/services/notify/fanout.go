package notify

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

// Fanout forwards terminal job events to email. It subscribes to the
// event bus next to the websocket handler; a delivery failure is logged
// and never affects the run that triggered it.
type Fanout struct {
	mailer *Mailer
	jobs   interfaces.JobStorage
	logger arbor.ILogger
}

// NewFanout creates the mail fanout
func NewFanout(mailer *Mailer, jobs interfaces.JobStorage, logger arbor.ILogger) *Fanout {
	return &Fanout{
		mailer: mailer,
		jobs:   jobs,
		logger: logger,
	}
}

// Register subscribes the fanout to terminal job events
func (f *Fanout) Register(events interfaces.EventService) error {
	if err := events.Subscribe(interfaces.EventJobCompleted, f.onJobEvent); err != nil {
		return err
	}
	return events.Subscribe(interfaces.EventJobFailed, f.onJobEvent)
}

func (f *Fanout) onJobEvent(ctx context.Context, event interfaces.Event) error {
	notification, ok := event.Payload.(models.JobNotification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}

	if f.mailer == nil || !f.mailer.IsConfigured() {
		return nil
	}

	// The recipient lives on the stored filter snapshot, not in the
	// broadcast payload.
	job, err := f.jobs.GetJob(ctx, notification.JobID)
	if err != nil {
		return err
	}
	recipient := job.Filters.NotifyEmail
	if recipient == "" {
		return nil
	}

	var subject, htmlBody, textBody string
	switch event.Type {
	case interfaces.EventJobCompleted:
		subject = fmt.Sprintf("Report Ready: %s", notification.Name)
		htmlBody = JobCompletedEmail(notification.Name, notification.DownloadURL)
		textBody = JobCompletedText(notification.Name, notification.DownloadURL)
	case interfaces.EventJobFailed:
		subject = fmt.Sprintf("Export Failed: %s", notification.Name)
		htmlBody = JobFailedEmail(notification.Name, notification.ErrorMessage)
		textBody = JobFailedText(notification.Name, notification.ErrorMessage)
	default:
		return nil
	}

	if err := f.mailer.SendHTMLEmail(ctx, recipient, subject, htmlBody, textBody); err != nil {
		f.logger.Warn().
			Err(err).
			Str("job_id", notification.JobID).
			Str("recipient", recipient).
			Msg("Failed to send job notification email")
		return err
	}

	f.logger.Info().
		Str("job_id", notification.JobID).
		Str("recipient", recipient).
		Str("status", string(notification.Status)).
		Msg("Job notification email sent")
	return nil
}
