package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthCheckTimeout bounds the dependency probes of the health endpoint.
const healthCheckTimeout = 2 * time.Second

// defaultWSPath is the WebSocket route when none is configured.
const defaultWSPath = "/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/arrangements", func(r chi.Router) {
			r.Get("/", s.handleListArrangements)
			r.Post("/", s.handleCreateArrangement)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteArrangement)
				r.Post("/open", s.handleOpenArrangement)
				r.Post("/save", s.handleSaveArrangement)
				r.Post("/close", s.handleCloseArrangement)

				// Seat editing
				r.Put("/assignments", s.handleSetAssignments)
				r.Post("/selection", s.handleSelectMember)
				r.Delete("/selection", s.handleClearSelection)
				r.Post("/seats/{row}/{col}/click", s.handleSeatClick)
				r.Delete("/seats/{row}/{col}", s.handleRemoveMember)
				r.Post("/seats/{row}/{col}/leader", s.handleToggleLeader)
				r.Post("/auto-place", s.handleAutoPlace)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)

				// Grid shape
				r.Put("/layout", s.handleSetLayout)
				r.Post("/layout/recommend", s.handleRecommendLayout)
				r.Post("/layout/compact", s.handleCompactRows)
				r.Put("/rows/{row}/offset", s.handleSetRowOffset)

				// Row leaders
				r.Post("/leaders/auto", s.handleAutoLeaders)
				r.Delete("/leaders", s.handleClearLeaders)

				// Emergency changes
				r.Get("/emergency", s.handleEmergencyLog)
				r.Post("/emergency", s.handleApplyEmergency)
				r.Post("/emergency/preview", s.handlePreviewEmergency)

				// Workflow
				r.Get("/workflow", s.handleGetWorkflow)
				r.Post("/workflow/goto", s.handleGoToStep)
				r.Post("/workflow/complete", s.handleCompleteStep)
				r.Post("/workflow/reset", s.handleResetStep)
				r.Post("/workflow/reset-all", s.handleResetAll)
				r.Post("/workflow/wizard", s.handleToggleWizard)
				r.Post("/workflow/sections/{step}", s.handleToggleSection)

				// Step 7
				r.Post("/publish", s.handlePublish)
				r.Post("/share", s.handleShare)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMember)
				r.Delete("/", s.handleDeleteMember)
				r.Post("/absences", s.handleMarkUnavailable)
				r.Delete("/absences/{date}", s.handleClearUnavailable)
			})
		})
		r.Get("/absences", s.handleListAbsences)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status. A failing database makes
// the server unhealthy; a disconnected broker only degrades it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	checks := map[string]string{}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "ok" {
				status = "degraded"
			}
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}

// wsPath returns the WebSocket route below /api/v1.
func (s *Server) wsPath() string {
	path := s.wsCfg.Path
	if path == "" {
		return defaultWSPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
