// Package report writes walk-forward analysis artifacts: the window plan,
// per-window result rows (JSONL and CSV), a compact summary JSON, and a
// markdown report.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sawpanic/walkgate/internal/config"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

// ArtifactPaths lists the files one run produces.
type ArtifactPaths struct {
	PlanJSONL    string `json:"plan_jsonl"`
	ResultsJSONL string `json:"results_jsonl"`
	ResultsCSV   string `json:"results_csv"`
	SummaryJSON  string `json:"summary_json"`
	ReportMD     string `json:"report_md"`
	OutputDir    string `json:"output_dir"`
}

// Writer handles writing analysis artifacts to disk. Each writer owns one
// dated output directory and a run ID stamped into the summary and report.
type Writer struct {
	outputDir string
	runID     string
}

// NewWriter creates an artifact writer under outputDir/<date>.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: filepath.Join(outputDir, time.Now().Format("2006-01-02")),
		runID:     uuid.New().String(),
	}
}

// RunID returns the run identifier stamped into artifacts.
func (w *Writer) RunID() string {
	return w.runID
}

// OutputDir returns the full output directory path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// ArtifactPaths returns the paths of all artifacts this writer produces.
func (w *Writer) ArtifactPaths() *ArtifactPaths {
	return &ArtifactPaths{
		PlanJSONL:    filepath.Join(w.outputDir, "plan.jsonl"),
		ResultsJSONL: filepath.Join(w.outputDir, "results.jsonl"),
		ResultsCSV:   filepath.Join(w.outputDir, "results.csv"),
		SummaryJSON:  filepath.Join(w.outputDir, "summary.json"),
		ReportMD:     filepath.Join(w.outputDir, "report.md"),
		OutputDir:    w.outputDir,
	}
}

func (w *Writer) ensureDir() error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// WritePlan writes the generated window sequence as JSONL, one window per
// line.
func (w *Writer) WritePlan(windows []walkforward.Window) error {
	if err := w.ensureDir(); err != nil {
		return err
	}

	file, err := os.Create(w.ArtifactPaths().PlanJSONL)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, window := range windows {
		if err := enc.Encode(window); err != nil {
			return fmt.Errorf("failed to write window %d: %w", window.ID, err)
		}
	}
	return nil
}

// WriteRows writes the per-window result rows as JSONL, one row per line.
// The row shape is the same one ReadRows consumes, so a finished run can be
// re-analyzed from its artifacts alone.
func (w *Writer) WriteRows(rows []walkforward.ResultRow) error {
	if err := w.ensureDir(); err != nil {
		return err
	}

	file, err := os.Create(w.ArtifactPaths().ResultsJSONL)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write row for window %d: %w", row.WindowID, err)
		}
	}
	return nil
}

// WriteRowsCSV writes the result rows as CSV. Parameter and metric columns
// are the sorted union across all rows; cells for absent keys stay empty.
func (w *Writer) WriteRowsCSV(rows []walkforward.ResultRow) error {
	if err := w.ensureDir(); err != nil {
		return err
	}

	file, err := os.Create(w.ArtifactPaths().ResultsCSV)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	params := keyUnion(rows, func(r walkforward.ResultRow) map[string]float64 { return r.Params })
	trainMetrics := keyUnion(rows, func(r walkforward.ResultRow) map[string]float64 { return r.TrainMetrics })
	testMetrics := keyUnion(rows, func(r walkforward.ResultRow) map[string]float64 { return r.TestMetrics })

	header := []string{"window_id", "train_start", "train_end", "test_start", "test_end"}
	for _, p := range params {
		header = append(header, "param_"+p)
	}
	for _, m := range trainMetrics {
		header = append(header, "train_"+m)
	}
	for _, m := range testMetrics {
		header = append(header, "test_"+m)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.WindowID),
			row.TrainStart.Format(time.RFC3339),
			row.TrainEnd.Format(time.RFC3339),
			row.TestStart.Format(time.RFC3339),
			row.TestEnd.Format(time.RFC3339),
		}
		record = appendCells(record, params, row.Params)
		record = appendCells(record, trainMetrics, row.TrainMetrics)
		record = appendCells(record, testMetrics, row.TestMetrics)

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for window %d: %w", row.WindowID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummary writes a compact summary JSON covering the assessment and
// artifact paths.
func (w *Writer) WriteSummary(cfg *config.AnalysisConfig, a *walkforward.Assessment) error {
	if err := w.ensureDir(); err != nil {
		return err
	}

	file, err := os.Create(w.ArtifactPaths().SummaryJSON)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	summary := map[string]interface{}{
		"run_id":            w.runID,
		"generated_at":      time.Now().Format(time.RFC3339),
		"window_strategy":   cfg.WindowStrategy,
		"total_windows":     a.Summary.TotalWindows,
		"evaluated_windows": a.Summary.EvaluatedWindows,
		"pending_windows":   a.Summary.PendingWindows,
		"overall_severity":  a.Overall.String(),
		"robust_parameters": a.Robust,
		"unstable_params":   a.UnstableParams,
		"low_stability":     lowStabilityMetrics(a, cfg.StabilityFloor),
		"latest_drift":      SanitizeDrift(a.LatestDrift),
		"metrics":           a.Summary.Metrics,
		"artifacts":         w.ArtifactPaths(),
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// WriteReport writes the markdown analysis report.
func (w *Writer) WriteReport(cfg *config.AnalysisConfig, a *walkforward.Assessment) error {
	if err := w.ensureDir(); err != nil {
		return err
	}

	file, err := os.Create(w.ArtifactPaths().ReportMD)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(w.generateMarkdownReport(cfg, a)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (w *Writer) generateMarkdownReport(cfg *config.AnalysisConfig, a *walkforward.Assessment) string {
	var report strings.Builder
	s := a.Summary

	report.WriteString("# Walk-Forward Validation Report\n\n")
	report.WriteString(fmt.Sprintf("**Run ID**: %s\n", w.runID))
	report.WriteString(fmt.Sprintf("**Generated**: %s\n", time.Now().Format("2006-01-02 15:04:05 UTC")))
	report.WriteString(fmt.Sprintf("**Strategy**: %s (train=%v, test=%v, gap=%v)\n\n",
		cfg.WindowStrategy, cfg.TrainWindow.Std(), cfg.TestWindow.Std(), cfg.Gap.Std()))

	report.WriteString("## Verdict\n\n")
	report.WriteString(fmt.Sprintf("- **Overall Severity**: %s\n", a.Overall))
	report.WriteString(fmt.Sprintf("- **Robust Parameters**: %t (drift tolerance %.0f%%)\n",
		a.Robust, cfg.DriftTolerancePct*100))
	if len(a.UnstableParams) > 0 {
		report.WriteString(fmt.Sprintf("- **Unstable Parameters**: %s\n", strings.Join(a.UnstableParams, ", ")))
	}
	if low := lowStabilityMetrics(a, cfg.StabilityFloor); len(low) > 0 {
		report.WriteString(fmt.Sprintf("- **Below Stability Floor** (%.2f): %s\n",
			cfg.StabilityFloor, strings.Join(low, ", ")))
	}
	report.WriteString(fmt.Sprintf("- **Coverage**: %d/%d windows evaluated, %d pending\n\n",
		s.EvaluatedWindows, s.TotalWindows, s.PendingWindows))

	report.WriteString("## Metrics\n\n")
	if len(s.Metrics) > 0 {
		report.WriteString("| Metric | Mean Train | Mean Test | Mean Penalty | Overfit Rate | Stability | Worst Window | Severity |\n")
		report.WriteString("|--------|-----------:|----------:|-------------:|-------------:|----------:|-------------:|----------|\n")

		names := make([]string, 0, len(s.Metrics))
		for name := range s.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ms := s.Metrics[name]
			severity := "none"
			if verdict, ok := a.Metrics[name]; ok {
				severity = verdict.Severity.String()
			}
			report.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.1f%% | %.3f | %d | %s |\n",
				name, ms.MeanTrain, ms.MeanTest, ms.MeanPenalty, ms.OverfitRate*100,
				ms.Stability, ms.WorstWindowID, severity))
		}
		report.WriteString("\n")
	} else {
		report.WriteString("No windows evaluated yet.\n\n")
	}

	if len(a.LatestDrift) > 0 {
		report.WriteString("## Parameter Drift\n\n")
		report.WriteString("| Parameter | Latest Drift | Flagged |\n")
		report.WriteString("|-----------|-------------:|---------|\n")

		names := make([]string, 0, len(a.LatestDrift))
		for name := range a.LatestDrift {
			names = append(names, name)
		}
		sort.Strings(names)

		flagged := make(map[string]bool, len(a.UnstableParams))
		for _, name := range a.UnstableParams {
			flagged[name] = true
		}

		for _, name := range names {
			d := a.LatestDrift[name]
			driftCell := "undefined"
			if !math.IsNaN(d) {
				driftCell = fmt.Sprintf("%+.1f%%", d*100)
			}
			report.WriteString(fmt.Sprintf("| %s | %s | %t |\n", name, driftCell, flagged[name]))
		}
		report.WriteString("\n")
	}

	report.WriteString("## Artifact Paths\n\n")
	paths := w.ArtifactPaths()
	report.WriteString(fmt.Sprintf("- **Results JSONL**: `%s`\n", paths.ResultsJSONL))
	report.WriteString(fmt.Sprintf("- **Results CSV**: `%s`\n", paths.ResultsCSV))
	report.WriteString(fmt.Sprintf("- **Summary JSON**: `%s`\n", paths.SummaryJSON))
	report.WriteString(fmt.Sprintf("- **Output Directory**: `%s`\n", paths.OutputDir))

	return report.String()
}

// lowStabilityMetrics returns the sorted metric names whose stability score
// sits below the configured floor. A floor of zero flags nothing.
func lowStabilityMetrics(a *walkforward.Assessment, floor float64) []string {
	var low []string
	for name, ms := range a.Summary.Metrics {
		if ms.Stability < floor {
			low = append(low, name)
		}
	}
	sort.Strings(low)
	return low
}

func keyUnion(rows []walkforward.ResultRow, pick func(walkforward.ResultRow) map[string]float64) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for key := range pick(row) {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func appendCells(record []string, keys []string, values map[string]float64) []string {
	for _, key := range keys {
		if v, ok := values[key]; ok {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		} else {
			record = append(record, "")
		}
	}
	return record
}

// SanitizeDrift replaces NaN drift values with nulls so the summary stays
// valid JSON.
func SanitizeDrift(drift map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(drift))
	for name, d := range drift {
		if math.IsNaN(d) {
			out[name] = nil
			continue
		}
		out[name] = d
	}
	return out
}
