package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/walkgate/internal/overfit"
	"github.com/sawpanic/walkgate/internal/telemetry"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

type stubSource struct {
	validator *walkforward.Validator
}

func (s *stubSource) Windows() []walkforward.Window { return s.validator.Windows() }
func (s *stubSource) Rows() []walkforward.ResultRow { return s.validator.Rows() }
func (s *stubSource) Assessment() *walkforward.Assessment {
	return s.validator.Assess(overfit.DefaultThresholds(), 0.5)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windows, err := walkforward.GenerateWindows(walkforward.WindowConfig{
		Start:       start,
		End:         start.AddDate(0, 6, 0),
		TrainWindow: 60 * 24 * time.Hour,
		TestWindow:  30 * 24 * time.Hour,
		Strategy:    walkforward.StrategyRolling,
	})
	require.NoError(t, err)
	require.NotEmpty(t, windows)

	v := walkforward.NewValidator(windows, nil)
	require.NoError(t, v.RecordWindowResult(0, map[string]float64{"lookback": 10},
		map[string]float64{"sharpe": 1.5}, map[string]float64{"sharpe": 1.4}))

	cfg := DefaultServerConfig()
	cfg.Port = 0 // route tests go through the router, not a listener

	s := &Server{
		config:  cfg,
		source:  &stubSource{validator: v},
		metrics: telemetry.NewRegistry().Handler(),
	}
	s.setupRoutes()
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_Summary(t *testing.T) {
	rec := get(t, newTestServer(t), "/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OverallSeverity string `json:"overall_severity"`
		Summary         struct {
			TotalWindows     int `json:"total_windows"`
			EvaluatedWindows int `json:"evaluated_windows"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "none", body.OverallSeverity)
	assert.Equal(t, 1, body.Summary.EvaluatedWindows)
	assert.Greater(t, body.Summary.TotalWindows, 0)
}

func TestServer_WindowsAndRows(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/windows")
	require.Equal(t, http.StatusOK, rec.Code)
	var windows []walkforward.Window
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	assert.NotEmpty(t, windows)

	rec = get(t, s, "/rows")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []walkforward.ResultRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].WindowID)
}

func TestServer_Metrics(t *testing.T) {
	rec := get(t, newTestServer(t), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
