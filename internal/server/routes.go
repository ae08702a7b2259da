package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/handlers"
	"github.com/ternarybob/refero/internal/models"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (session validated inside the handler, before upgrade)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Health
	mux.HandleFunc("/api/health", s.healthHandler)

	// API routes - Authentication
	mux.HandleFunc("/api/auth/login", s.app.AuthHandler.LoginHandler)
	mux.HandleFunc("/api/auth/logout", s.app.AuthHandler.LogoutHandler)
	mux.HandleFunc("/api/auth/me", s.app.AuthHandler.MeHandler)
	mux.HandleFunc("/api/auth/users", s.requireRole(models.UserRole.CanAdminister, s.app.AuthHandler.UsersHandler))

	// API routes - Reports
	mux.HandleFunc("/api/reports/export", s.requireRole(models.UserRole.CanSubmit, s.app.ReportHandler.SubmitExportHandler))
	mux.HandleFunc("/api/reports/preview", s.requireAuth(s.app.ReportHandler.PreviewHandler))
	mux.HandleFunc("/api/reports/jobs", s.requireAuth(s.app.ReportHandler.ListJobsHandler))
	mux.HandleFunc("/api/reports/jobs/", s.requireAuth(s.jobRoutes)) // GET /{id}, POST /{id}/retry

	// API routes - Downloads
	mux.HandleFunc("/api/downloads/", s.requireAuth(s.app.ReportHandler.DownloadHandler))

	// API routes - Schedules
	mux.HandleFunc("/api/schedules", s.requireRole(models.UserRole.CanSubmit, s.app.ScheduleHandler.SchedulesHandler))
	mux.HandleFunc("/api/schedules/", s.requireRole(models.UserRole.CanSubmit, s.app.ScheduleHandler.ScheduleRoutesHandler))

	// API routes - Admin
	mux.HandleFunc("/api/admin/recover-stuck-jobs", s.requireRole(models.UserRole.CanAdminister, s.app.AdminHandler.RecoverStuckJobsHandler))
	mux.HandleFunc("/api/admin/jobs/failed", s.requireRole(models.UserRole.CanAdminister, s.app.AdminHandler.PurgeFailedJobsHandler))
	mux.HandleFunc("/api/admin/stats", s.requireRole(models.UserRole.CanAdminister, s.app.AdminHandler.StatsHandler))
	mux.HandleFunc("/api/admin/test/stuck-job", s.requireRole(models.UserRole.CanAdminister, s.app.AdminHandler.CreateStuckJobHandler))

	return mux
}

// jobRoutes applies the submitter role check to retry before dispatching
func (s *Server) jobRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/retry") {
		s.requireRole(models.UserRole.CanSubmit, s.app.ReportHandler.JobRoutesHandler)(w, r)
		return
	}
	s.app.ReportHandler.JobRoutesHandler(w, r)
}

// healthHandler reports service status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.RequireMethod(w, r, http.MethodGet) {
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    "refero",
		"version":    s.app.Version,
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}
