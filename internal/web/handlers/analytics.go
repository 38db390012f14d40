package handlers

import (
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// AnalyticsHandler handles reporting endpoints
type AnalyticsHandler struct {
	config  *config.Config
	service *attendance.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(cfg *config.Config, svc *attendance.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		config:  cfg,
		service: svc,
	}
}

// Stats returns headcount, today's presence and the attendance rate
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, "attendance stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Trend returns daily check-in counts for ?period=week|month|quarter
func (h *AnalyticsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	period, _ := attendance.TrendPeriod(r.URL.Query().Get("period"))
	trend, err := h.service.Trend(r.Context(), period)
	if err != nil {
		respondServiceError(w, "attendance trend", err)
		return
	}
	respondJSON(w, http.StatusOK, TrendResponse{
		Period: period,
		Dates:  trend.Dates,
		Counts: trend.Counts,
	})
}

// Recent returns the latest check-ins, newest first
func (h *AnalyticsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := database.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, database.MaxRecentLimit)
	}

	activities, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		respondServiceError(w, "recent attendance", err)
		return
	}
	respondJSON(w, http.StatusOK, activities)
}
