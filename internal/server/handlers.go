package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/wellcast/internal/ingest"
	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/wellness"
)

// maxExportBytes bounds a posted local-storage export.
const maxExportBytes = 16 << 20

func (s *Server) handlePredictExport(w http.ResponseWriter, r *http.Request) {
	snap, err := ingest.ParseSnapshot(http.MaxBytesReader(w, r.Body, maxExportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid export: " + err.Error()})
		return
	}

	res := s.wellness.Pipeline().Run(r.Context(), ingest.NewKVSource(snap, s.log))
	if r.URL.Query().Get("include") == "data_points" {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusOK, res.Predictions)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := s.wellness.GetPredictions(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (s *Server) handleMetricTrend(w http.ResponseWriter, r *http.Request) {
	metric, ok := models.ParseMetric(chi.URLParam(r, "metric"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown metric"})
		return
	}

	p, err := s.wellness.GetMetricTrend(r.Context(), userIDFromContext(r), metric)
	if errors.Is(err, wellness.ErrNoPrediction) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDataPoints(w http.ResponseWriter, r *http.Request) {
	days, err := parseLimit(r, "days", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	points, err := s.wellness.GetDataPoints(r.Context(), userIDFromContext(r), days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseLimit reads a non-negative integer query parameter.
func parseLimit(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
