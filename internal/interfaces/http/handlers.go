package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/walkgate/internal/report"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// summaryResponse shadows the assessment's drift map so undefined (NaN)
// values serialize as nulls.
type summaryResponse struct {
	*walkforward.Assessment
	LatestDrift map[string]interface{} `json:"latest_drift"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	a := s.source.Assessment()
	writeJSON(w, http.StatusOK, summaryResponse{
		Assessment:  a,
		LatestDrift: report.SanitizeDrift(a.LatestDrift),
	})
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Windows())
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Rows())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
