package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

func TestJobCompletedEmailContent(t *testing.T) {
	html := JobCompletedEmail("Detail Report - 2026-04-01", "/api/downloads/job-1")
	assert.Contains(t, html, "Export Complete")
	assert.Contains(t, html, "Detail Report - 2026-04-01")
	assert.Contains(t, html, `href="/api/downloads/job-1"`)

	text := JobCompletedText("Detail Report - 2026-04-01", "/api/downloads/job-1")
	assert.Contains(t, text, "Detail Report - 2026-04-01")
	assert.Contains(t, text, "Download: /api/downloads/job-1")
}

func TestJobFailedEmailContent(t *testing.T) {
	html := JobFailedEmail("Summary Report - 2026-04-01", "Memory limit exceeded")
	assert.Contains(t, html, "Export Failed")
	assert.Contains(t, html, "Summary Report - 2026-04-01")
	assert.Contains(t, html, "Memory limit exceeded")

	text := JobFailedText("Summary Report - 2026-04-01", "Memory limit exceeded")
	assert.Contains(t, text, "Memory limit exceeded")
}

func TestMailerIsConfigured(t *testing.T) {
	logger := arbor.NewLogger()

	disabled := NewMailer(common.MailConfig{Host: "localhost", From: "noreply@example.com"}, logger)
	assert.False(t, disabled.IsConfigured())

	missingFrom := NewMailer(common.MailConfig{Enabled: true, Host: "localhost"}, logger)
	assert.False(t, missingFrom.IsConfigured())

	configured := NewMailer(common.MailConfig{Enabled: true, Host: "localhost", From: "noreply@example.com"}, logger)
	assert.True(t, configured.IsConfigured())
}

func TestMailerSendRejectedWhenUnconfigured(t *testing.T) {
	mailer := NewMailer(common.MailConfig{}, arbor.NewLogger())

	err := mailer.SendHTMLEmail(context.Background(), "analyst@example.com", "subject", "<p>body</p>", "body")
	assert.Error(t, err)
}

func TestFanoutSkipsWhenMailDisabled(t *testing.T) {
	logger := arbor.NewLogger()
	mailer := NewMailer(common.MailConfig{}, logger)
	// Job storage is nil on purpose: a disabled mailer must return
	// before any job lookup.
	fanout := NewFanout(mailer, nil, logger)

	err := fanout.onJobEvent(context.Background(), interfaces.Event{
		Type: interfaces.EventJobCompleted,
		Payload: models.JobNotification{
			JobID: "job-1",
			Name:  "Detail Report - 2026-04-01",
		},
	})
	assert.NoError(t, err)
}

func TestFanoutRejectsUnexpectedPayload(t *testing.T) {
	logger := arbor.NewLogger()
	fanout := NewFanout(NewMailer(common.MailConfig{}, logger), nil, logger)

	err := fanout.onJobEvent(context.Background(), interfaces.Event{
		Type:    interfaces.EventJobCompleted,
		Payload: "not a notification",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected payload type")
}
