package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buildpeek/buildpeek/internal/provider"
	"github.com/buildpeek/buildpeek/internal/service"
)

// Handlers contains HTTP handler functions
type Handlers struct {
	service *service.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{service: svc}
}

// Health handles health check requests
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.HealthCheck(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// GetSummary handles GET /v1/build
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if log != nil {
		log.Debug("build summary retrieved",
			"build_id", summary.BuildID,
			"result", summary.Result)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"summary": summary,
	})
}

// GetTimeline handles GET /v1/builds/{build_id}/timeline
//
// Optional query parameters narrow the record set: type (Stage/Phase/Job/Task),
// result (failed, succeeded, ...) and search (substring match on record name).
func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	buildID, ok := parseBuildIDParam(chi.URLParam(r, "build_id"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid build_id")
		return
	}

	timeline, err := h.service.Timeline(r.Context(), buildID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	records := FilterRecords(timeline.Records,
		query.Get("type"),
		query.Get("result"),
		query.Get("search"))

	if log != nil {
		log.Debug("timeline retrieved",
			"build_id", buildID,
			"records", len(timeline.Records),
			"filtered", len(records))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"build_id": timeline.BuildID,
		"records":  records,
	})
}

// GetFailedTasks handles GET /v1/builds/{build_id}/failures/tasks
func (h *Handlers) GetFailedTasks(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	buildID, ok := parseBuildIDParam(chi.URLParam(r, "build_id"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid build_id")
		return
	}

	tasks, err := h.service.FailedTasks(r.Context(), buildID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if log != nil {
		log.Info("failed tasks retrieved", "build_id", buildID, "count", len(tasks))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"build_id": buildID,
		"tasks":    tasks,
	})
}

// GetFailedTaskLogs handles GET /v1/builds/{build_id}/failures/tasks/logs
func (h *Handlers) GetFailedTaskLogs(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	buildID, ok := parseBuildIDParam(chi.URLParam(r, "build_id"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid build_id")
		return
	}

	logs, err := h.service.FailedTaskLogs(r.Context(), buildID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if log != nil {
		log.Info("failed task logs retrieved", "build_id", buildID, "count", len(logs))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"build_id": buildID,
		"logs":     logs,
	})
}

// GetFailedJobs handles GET /v1/builds/{build_id}/failures/jobs
func (h *Handlers) GetFailedJobs(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	buildID, ok := parseBuildIDParam(chi.URLParam(r, "build_id"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid build_id")
		return
	}

	groups, err := h.service.FailedJobs(r.Context(), buildID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if log != nil {
		log.Info("failed jobs retrieved", "build_id", buildID, "groups", len(groups))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"build_id": buildID,
		"failures": groups,
	})
}

// GetPreviousBuild handles GET /v1/build/previous
func (h *Handlers) GetPreviousBuild(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	previous, err := h.service.PreviousBuild(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if log != nil {
		log.Debug("previous build resolved", "found", previous != nil)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"previous_build_id": previous,
	})
}

// GetComparison handles GET /v1/build/comparison
//
// The previous build defaults to the one resolved from the same definition and
// branch; ?previous= overrides it.
func (h *Handlers) GetComparison(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r.Context())

	var previous *int
	if value := r.URL.Query().Get("previous"); value != "" {
		id, ok := parseBuildIDParam(value)
		if !ok {
			respondError(w, r, http.StatusBadRequest, "invalid previous build id")
			return
		}
		previous = &id
	}

	comparison, err := h.service.Compare(r.Context(), previous)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if log != nil {
		log.Info("builds compared",
			"build_id", comparison.BuildID,
			"verdict", comparison.Verdict)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"comparison": comparison,
	})
}

// respondError writes a JSON error response with logging
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	log := GetLogger(r.Context())
	requestID := GetRequestID(r.Context())

	if log != nil {
		log.Error("returning error response",
			"status", status,
			"message", message,
			"request_id", requestID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message":    message,
			"code":       status,
			"request_id": requestID,
		},
	})
}

// handleServiceError maps service errors to HTTP responses with detailed logging
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := GetLogger(r.Context())
	requestID := GetRequestID(r.Context())

	if log != nil {
		log.Error("service error occurred",
			"error", err.Error(),
			"error_type", fmt.Sprintf("%T", err),
			"request_id", requestID)
	}

	switch {
	case errors.Is(err, service.ErrBuildNotFound):
		respondError(w, r, http.StatusNotFound, "build not found")
	case errors.Is(err, service.ErrTimelineNotFound):
		respondError(w, r, http.StatusNotFound, "timeline not found")
	case errors.Is(err, provider.ErrUnauthorized):
		respondError(w, r, http.StatusUnauthorized, "provider authentication failed")
	case errors.Is(err, provider.ErrProviderUnavailable):
		respondError(w, r, http.StatusBadGateway, "provider temporarily unavailable")
	default:
		var providerErr *provider.ProviderError
		if errors.As(err, &providerErr) {
			if log != nil {
				log.Error("provider error details",
					"provider_code", providerErr.Code,
					"provider_message", providerErr.Message,
					"underlying_error", providerErr.Err)
			}

			if providerErr.Code >= 400 && providerErr.Code < 500 {
				respondError(w, r, providerErr.Code, providerErr.Message)
			} else {
				respondError(w, r, http.StatusBadGateway, "provider error")
			}
		} else {
			respondError(w, r, http.StatusInternalServerError, "internal server error")
		}
	}
}
