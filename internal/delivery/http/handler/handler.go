package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/catalog"
	"github.com/user/annuaire-crawler/internal/delivery/http/request"
	"github.com/user/annuaire-crawler/internal/delivery/http/response"
	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/usecase"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	targets usecase.TargetManager
	checks  map[string]HealthCheck
	logger  *zap.Logger
}

func NewHandler(targets usecase.TargetManager, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		targets: targets,
		checks:  checks,
		logger:  logger,
	}
}

func (h *Handler) HandleSubmitCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		h.writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}

	status, err := h.targets.Submit(r.Context(), req.URL, req.ForceCrawl)
	switch {
	case errors.Is(err, usecase.ErrTargetExists), errors.Is(err, usecase.ErrTargetRecentlyCrawled):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, catalog.ErrInvalidTargetURL), errors.Is(err, catalog.ErrUnknownKind):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to submit target", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitCrawlResponse{
		Status:        "success",
		Message:       "Target queued for crawling",
		URL:           status.URL,
		CurrentStatus: status.CurrentStatus,
	})
}

func (h *Handler) HandleGetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}

	status, err := h.targets.GetStatus(r.Context(), rawURL)
	if err != nil {
		h.logger.Error("failed to get crawl status", zap.String("url", rawURL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if status.CurrentStatus == entity.StatusNotFound {
		h.writeJSONError(w, "Crawl status not found for the given URL", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewCrawlStatusResponse(status))
}

func (h *Handler) HandleListFailures(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	failures, err := h.targets.ListFailures(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list failures", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewFailuresResponse(failures))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("service", name), zap.Error(err))
			health[name] = "unhealthy"
			health["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		health[name] = "healthy"
	}
	h.writeJSON(w, code, health)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
