package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/schedules"
)

// ScheduleRequest is the create/update payload for a recurring report
type ScheduleRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=120"`
	Frequency  string   `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Recipients []string `json:"recipients" validate:"omitempty,dive,email"`
	ReportType string   `json:"reportType" validate:"required,oneof=detail summary exception booklet"`
	Format     string   `json:"format" validate:"required,oneof=pdf xlsx"`
	Domain     string   `json:"domain" validate:"omitempty,alphanum"`
	Regions    []string `json:"regions" validate:"omitempty,dive,min=1"`
	IsActive   *bool    `json:"isActive"`
}

// ScheduleHandler serves schedule CRUD for recurring reports
type ScheduleHandler struct {
	schedules *schedules.Service
	validate  *validator.Validate
	logger    arbor.ILogger
}

func NewScheduleHandler(svc *schedules.Service, logger arbor.ILogger) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: svc,
		validate:  validator.New(),
		logger:    logger,
	}
}

// SchedulesHandler handles GET and POST /api/schedules
func (h *ScheduleHandler) SchedulesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listSchedules(w, r)
	case http.MethodPost:
		h.createSchedule(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ScheduleRoutesHandler dispatches /api/schedules/{id}
func (h *ScheduleHandler) ScheduleRoutesHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/schedules/"), "/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getSchedule(w, r, id)
	case http.MethodPut:
		h.updateSchedule(w, r, id)
	case http.MethodDelete:
		h.deleteSchedule(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScheduleHandler) listSchedules(w http.ResponseWriter, r *http.Request) {
	list, err := h.schedules.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list schedules")
		WriteError(w, http.StatusInternalServerError, "Failed to list schedules")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": list,
		"count":     len(list),
	})
}

func (h *ScheduleHandler) createSchedule(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	schedule := &models.ReportSchedule{
		Name:       req.Name,
		Frequency:  models.ScheduleFrequency(req.Frequency),
		Recipients: req.Recipients,
		ReportType: models.ReportType(req.ReportType),
		Format:     models.ExportFormat(req.Format),
		Filters: models.ExportFilters{
			Domain:  req.Domain,
			Regions: req.Regions,
		},
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	} else {
		schedule.IsActive = true
	}

	created, err := h.schedules.Create(r.Context(), schedule)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create schedule")
		WriteDomainError(w, err)
		return
	}

	h.logger.Info().Str("schedule_id", created.ID).Str("frequency", req.Frequency).Msg("Schedule created")
	WriteJSON(w, http.StatusCreated, created)
}

func (h *ScheduleHandler) getSchedule(w http.ResponseWriter, r *http.Request, id string) {
	schedule, err := h.schedules.Get(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) updateSchedule(w http.ResponseWriter, r *http.Request, id string) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.schedules.Update(r.Context(), id, func(s *models.ReportSchedule) error {
		s.Name = req.Name
		s.Frequency = models.ScheduleFrequency(req.Frequency)
		s.Recipients = req.Recipients
		s.ReportType = models.ReportType(req.ReportType)
		s.Format = models.ExportFormat(req.Format)
		s.Filters.Domain = req.Domain
		s.Filters.Regions = req.Regions
		if req.IsActive != nil {
			s.IsActive = *req.IsActive
		}
		return nil
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	h.logger.Info().Str("schedule_id", id).Msg("Schedule updated")
	WriteJSON(w, http.StatusOK, updated)
}

func (h *ScheduleHandler) deleteSchedule(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.schedules.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, err)
		return
	}

	h.logger.Info().Str("schedule_id", id).Msg("Schedule deleted")
	WriteSuccess(w, "Schedule deleted")
}

func (h *ScheduleHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*ScheduleRequest, bool) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}
