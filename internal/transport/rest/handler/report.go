package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"decihire/internal/model"
	"decihire/internal/service"

	"github.com/gorilla/mux"
)

// ReportHandler handles recruiter dashboard endpoints
type ReportHandler struct {
	reportSvc *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// List handles GET /v1/results?minScore=&category=&from=&to=&profile=&limit=
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseResultFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.reportSvc.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// Get handles GET /v1/results/{sessionId}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportSvc.Get(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Rescore handles POST /v1/results/{sessionId}/rescore
func (h *ReportHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportSvc.Rescore(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Leaderboard handles GET /v1/profiles/{profile}/leaderboard?limit=
func (h *ReportHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.reportSvc.Leaderboard(r.Context(), mux.Vars(r)["profile"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
	})
}

// Stats handles GET /v1/profiles/{profile}/stats
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportSvc.Stats(r.Context(), mux.Vars(r)["profile"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseResultFilter(q url.Values) (model.ResultFilter, error) {
	var f model.ResultFilter

	if v := q.Get("minScore"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || score < 0 || score > 100 {
			return f, fmt.Errorf("minScore must be a number between 0 and 100")
		}
		f.MinScore = &score
	}
	if v := q.Get("category"); v != "" {
		f.Category = model.Category(v)
		if !f.Category.Valid() {
			return f, fmt.Errorf("unknown category %q", v)
		}
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if v := q.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, fmt.Errorf("%s must be RFC3339", p.name)
			}
			*p.dst = t
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return f, fmt.Errorf("from must be before to")
	}
	f.Profile = q.Get("profile")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}
