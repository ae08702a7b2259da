package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/exporter"
	"github.com/ternarybob/refero/internal/services/pipeline"
	"github.com/ternarybob/refero/internal/services/reports"
)

const dateLayout = "2006-01-02"

// ExportRequest is the submission payload for a new export job
type ExportRequest struct {
	Type     string   `json:"type" validate:"required,oneof=detail summary exception booklet"`
	Format   string   `json:"format" validate:"required,oneof=pdf xlsx"`
	Domain   string   `json:"domain" validate:"omitempty,alphanum"`
	DateFrom string   `json:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string   `json:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Regions  []string `json:"regions" validate:"omitempty,dive,min=1"`
	Email    string   `json:"email" validate:"omitempty,email"`
}

// PreviewRequest selects one page of the dataset without creating a job
type PreviewRequest struct {
	Type     string   `json:"type" validate:"required,oneof=detail summary exception booklet"`
	Domain   string   `json:"domain" validate:"omitempty,alphanum"`
	DateFrom string   `json:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string   `json:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Regions  []string `json:"regions" validate:"omitempty,dive,min=1"`
	Page     int      `json:"page" validate:"omitempty,min=1"`
	PageSize int      `json:"pageSize" validate:"omitempty,min=1"`
}

// ReportHandler serves export submission, job queries and downloads
type ReportHandler struct {
	pipeline     *pipeline.Service
	jobs         interfaces.JobStorage
	transactions interfaces.TransactionStorage
	exporter     *exporter.Service
	validate     *validator.Validate
	maxRows      int
	logger       arbor.ILogger
}

func NewReportHandler(p *pipeline.Service, jobs interfaces.JobStorage, transactions interfaces.TransactionStorage, exp *exporter.Service, maxRows int, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		pipeline:     p,
		jobs:         jobs,
		transactions: transactions,
		exporter:     exp,
		validate:     validator.New(),
		maxRows:      maxRows,
		logger:       logger,
	}
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return &t, nil
}

func filtersFrom(domain, dateFrom, dateTo string, regions []string, email string) (models.ExportFilters, error) {
	from, err := parseDate(dateFrom)
	if err != nil {
		return models.ExportFilters{}, err
	}
	to, err := parseDate(dateTo)
	if err != nil {
		return models.ExportFilters{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return models.ExportFilters{}, fmt.Errorf("dateTo precedes dateFrom")
	}
	return models.ExportFilters{
		Domain:      domain,
		DateFrom:    from,
		DateTo:      to,
		Regions:     regions,
		NotifyEmail: email,
	}, nil
}

// SubmitExportHandler handles POST /api/reports/export
func (h *ReportHandler) SubmitExportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filters, err := filtersFrom(req.Domain, req.DateFrom, req.DateTo, req.Regions, req.Email)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.pipeline.Submit(r.Context(), models.ReportType(req.Type), models.ExportFormat(req.Format), filters)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to submit export job")
		WriteDomainError(w, err)
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Str("type", req.Type).
		Str("format", req.Format).
		Msg("Export job submitted")

	WriteJSON(w, http.StatusCreated, job)
}

// ListJobsHandler handles GET /api/reports/jobs
func (h *ReportHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobs, err := h.jobs.ListJobs(r.Context(), GetLimitParam(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list export jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// JobRoutesHandler dispatches /api/reports/jobs/{id} and /api/reports/jobs/{id}/retry
func (h *ReportHandler) JobRoutesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/reports/jobs/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getJob(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "retry":
		h.retryJob(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ReportHandler) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

func (h *ReportHandler) retryJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	job, err := h.pipeline.Retry(r.Context(), jobID)
	if err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Retry rejected")
		WriteDomainError(w, err)
		return
	}

	h.logger.Info().Str("job_id", job.ID).Int64("run_seq", job.RunSeq).Msg("Export job retried")
	WriteJSON(w, http.StatusOK, job)
}

// PreviewHandler handles POST /api/reports/preview: materializes a
// capped slice of the dataset without creating a job.
func (h *ReportHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filters, err := filtersFrom(req.Domain, req.DateFrom, req.DateTo, req.Regions, "")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := pipeline.QueryFromFilters(filters)
	total, err := h.transactions.CountTransactions(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count transactions for preview")
		WriteError(w, http.StatusInternalServerError, "Failed to query dataset")
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > h.maxRows {
		pageSize = h.maxRows
	}
	offset := (page - 1) * pageSize
	query.Limit = pageSize
	query.Offset = offset

	txns, err := h.transactions.FetchTransactions(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch transactions for preview")
		WriteError(w, http.StatusInternalServerError, "Failed to query dataset")
		return
	}

	view := reports.Materialize(txns, models.ReportType(req.Type), reports.GetDomainSchema(filters.Domain))

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"view":       view,
		"totalCount": total,
		"page":       page,
		"pageSize":   pageSize,
		"truncated":  total > offset+len(txns),
	})
}

// DownloadHandler handles GET /api/downloads/{id}: re-runs the job's
// stored filter snapshot through the materializer and serializes the
// view in the job's format.
func (h *ReportHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/downloads/"), "/")
	if jobID == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if job.Status != models.JobStatusCompleted {
		WriteError(w, http.StatusConflict, "Export is not complete")
		return
	}

	query := pipeline.QueryFromFilters(job.Filters)
	query.Limit = h.maxRows

	txns, err := h.transactions.FetchTransactions(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to fetch transactions for download")
		WriteError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}

	view := reports.Materialize(txns, job.ReportType, reports.GetDomainSchema(job.Filters.Domain))

	artifact, err := h.exporter.Render(view, job.Format, job.Name)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to render export")
		WriteError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}

	filename := fmt.Sprintf("%s.%s", sanitizeFilename(job.Name), artifact.Extension)
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\"", "", " ", "_")
	return replacer.Replace(name)
}
