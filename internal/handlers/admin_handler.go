package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/pipeline"
)

// AdminHandler serves operational endpoints for the dashboard admin role
type AdminHandler struct {
	pipeline   *pipeline.Service
	supervisor *pipeline.Supervisor
	jobs       interfaces.JobStorage
	logger     arbor.ILogger
}

func NewAdminHandler(p *pipeline.Service, supervisor *pipeline.Supervisor, jobs interfaces.JobStorage, logger arbor.ILogger) *AdminHandler {
	return &AdminHandler{
		pipeline:   p,
		supervisor: supervisor,
		jobs:       jobs,
		logger:     logger,
	}
}

// RecoverStuckJobsHandler handles POST /api/admin/recover-stuck-jobs.
// An optional threshold query parameter overrides the supervisor default.
func (h *AdminHandler) RecoverStuckJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	threshold := h.supervisor.Threshold()
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "Invalid threshold duration")
			return
		}
		threshold = parsed
	}

	recovered, err := h.pipeline.RecoverStuckJobs(r.Context(), threshold)
	if err != nil {
		h.logger.Error().Err(err).Msg("Stuck job recovery failed")
		WriteError(w, http.StatusInternalServerError, "Recovery failed")
		return
	}

	h.logger.Info().Int("recovered", recovered).Msg("Manual stuck job recovery completed")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recovered": recovered,
		"threshold": threshold.String(),
	})
}

// PurgeFailedJobsHandler handles DELETE /api/admin/jobs/failed
func (h *AdminHandler) PurgeFailedJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	deleted, err := h.jobs.DeleteJobsByStatus(r.Context(), models.JobStatusFailed)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to purge failed jobs")
		WriteError(w, http.StatusInternalServerError, "Purge failed")
		return
	}

	h.logger.Info().Int("deleted", deleted).Msg("Purged failed jobs")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}

// StatsHandler handles GET /api/admin/stats
func (h *AdminHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	counts, err := h.jobs.CountJobsByStatus(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to gather stats")
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobCounts": counts,
		"totalJobs": total,
	})
}

// CreateStuckJobHandler handles POST /api/admin/test/stuck-job. It
// plants a processing job whose StartedAt is already in the past so
// recovery paths can be exercised end to end.
func (h *AdminHandler) CreateStuckJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	now := time.Now()
	startedAt := now.Add(-5 * time.Minute)
	job := &models.ExportJob{
		ID:            common.NewJobID(),
		Name:          models.JobName(models.ReportTypeDetail, now),
		ReportType:    models.ReportTypeDetail,
		Format:        models.FormatPDF,
		Status:        models.JobStatusProcessing,
		Progress:      45,
		TotalRows:     10000,
		ProcessedRows: 4500,
		SubmittedAt:   startedAt,
		StartedAt:     &startedAt,
	}

	if err := h.jobs.CreateJob(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create test stuck job")
		WriteError(w, http.StatusInternalServerError, "Failed to create test job")
		return
	}

	h.logger.Warn().Str("job_id", job.ID).Msg("Created test stuck job")
	WriteJSON(w, http.StatusCreated, job)
}
