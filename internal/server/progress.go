package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/metrics"
	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/repositories"
	"github.com/desertthunder/vidtrack/internal/shared"
)

const (
	updatePath  = "/api/progress/update/"
	segmentPath = "/api/progress/segment/{id}/"
)

// SegmentStore looks segments up by id.
type SegmentStore interface {
	Get(id int64) (*models.Segment, error)
}

// ProgressStore records and reads per-user segment progress.
type ProgressStore interface {
	Record(userID string, segmentID int64, percent float64) (*repositories.RecordResult, error)
	GetSegment(userID string, segmentID int64) (*models.SegmentProgress, error)
}

// ProgressHandler serves the progress update and lookup endpoints.
type ProgressHandler struct {
	segments SegmentStore
	progress ProgressStore
	logger   *log.Logger
	mux      *http.ServeMux
}

// NewProgressHandler creates a [ProgressHandler] backed by the given stores.
func NewProgressHandler(segments SegmentStore, progress ProgressStore, logger *log.Logger) *ProgressHandler {
	h := &ProgressHandler{
		segments: segments,
		progress: progress,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("POST "+updatePath, h.update)
	h.mux.HandleFunc("GET "+segmentPath, h.segment)
	return h
}

// Routes implements [Handler].
func (h *ProgressHandler) Routes() []string {
	return []string{updatePath, segmentPath}
}

// ServeHTTP implements [http.Handler].
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ProgressHandler) update(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.reject(w, http.StatusBadRequest, "Invalid request")
		return
	}

	rawID, okID := body["segment_id"]
	rawPercent, okPercent := body["percent_watched"]
	if !okID || !okPercent || isNull(rawPercent) {
		h.reject(w, http.StatusBadRequest, "Invalid request")
		return
	}

	segmentID, err := parseSegmentID(rawID)
	if err != nil {
		h.reject(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if _, err := h.segments.Get(segmentID); err != nil {
		if errors.Is(err, shared.ErrSegmentNotFound) {
			h.reject(w, http.StatusNotFound, "Segment not found")
			return
		}
		h.logger.Error("segment lookup failed", "segment", segmentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	percent, err := parsePercent(rawPercent)
	if err != nil {
		h.reject(w, http.StatusBadRequest, "Invalid percent_watched")
		return
	}
	percent = max(0, min(100, percent))

	result := models.ProgressUpdateResult{SegmentID: segmentID, PercentWatched: percent}

	user := UserFromContext(r.Context())
	if user == "" {
		metrics.ProgressUpdatesTotal.WithLabelValues("anonymous").Inc()
		writeJSON(w, http.StatusOK, result)
		return
	}

	recorded, err := h.progress.Record(user, segmentID, percent)
	if err != nil {
		if errors.Is(err, shared.ErrSegmentNotFound) {
			h.reject(w, http.StatusNotFound, "Segment not found")
			return
		}
		h.logger.Error("failed to record progress", "segment", segmentID, "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	metrics.ProgressUpdatesTotal.WithLabelValues("saved").Inc()
	if recorded.ChapterFirst {
		metrics.CompletionsTotal.WithLabelValues("chapter").Inc()
	}
	if recorded.CourseFirst {
		metrics.CompletionsTotal.WithLabelValues("course").Inc()
	}

	result.Saved = true
	result.ChapterCompleted = recorded.ChapterCompleted
	result.CourseCompleted = recorded.CourseCompleted
	writeJSON(w, http.StatusOK, result)
}

func (h *ProgressHandler) segment(w http.ResponseWriter, r *http.Request) {
	segmentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if _, err := h.segments.Get(segmentID); err != nil {
		if errors.Is(err, shared.ErrSegmentNotFound) {
			writeError(w, http.StatusNotFound, "Segment not found")
			return
		}
		h.logger.Error("segment lookup failed", "segment", segmentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	out := models.SegmentPercent{SegmentID: segmentID}
	if user := UserFromContext(r.Context()); user != "" {
		p, err := h.progress.GetSegment(user, segmentID)
		switch {
		case err == nil:
			out.PercentWatched = p.PercentWatched
		case !errors.Is(err, shared.ErrNotFound):
			h.logger.Error("failed to read progress", "segment", segmentID, "user", user, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProgressHandler) reject(w http.ResponseWriter, status int, msg string) {
	metrics.ProgressUpdatesTotal.WithLabelValues("rejected").Inc()
	writeError(w, status, msg)
}

// parseSegmentID accepts an integral JSON number or a quoted integer.
func parseSegmentID(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// parsePercent accepts a JSON number or a numeric string.
func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func parsePercent(raw json.RawMessage) (float64, error) {
	if string(raw) == "null" {
		return 0, shared.ErrInvalidInput
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, shared.ErrInvalidInput
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, shared.ErrInvalidInput
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, shared.ErrInvalidInput
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
