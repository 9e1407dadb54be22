package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/bondcvar/pkg/logger"
)

// Output file names
const (
	PortfolioFile = "portfolio_summary.csv"
	RiskFile      = "risk_metrics.txt"
	HistoryFile   = "simulation_history.csv"
	JSONFile      = "report.json"
)

// Writer persists report tables under one directory
type Writer struct {
	dir    string
	logger *logger.Logger
}

// NewWriter creates the output directory if needed
func NewWriter(dir string, log *logger.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("report dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{dir: dir, logger: log.Component("report")}, nil
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteAll writes every table the report carries and returns the paths written
func (w *Writer) WriteAll(r *Report) ([]string, error) {
	var written []string

	steps := []struct {
		name string
		skip bool
		fn   func(*Report) (string, error)
	}{
		{PortfolioFile, len(r.Portfolio) == 0, w.WritePortfolio},
		{RiskFile, false, w.WriteRiskMetrics},
		{HistoryFile, len(r.History) == 0, w.WriteHistory},
		{JSONFile, false, w.WriteJSON},
	}

	for _, s := range steps {
		if s.skip {
			continue
		}
		path, err := s.fn(r)
		if err != nil {
			w.logger.WithError(err).Errorf("write %s failed", s.name)
			return written, fmt.Errorf("write %s: %w", s.name, err)
		}
		written = append(written, path)
	}

	w.logger.WithFields(map[string]interface{}{
		"run_id": r.RunID,
		"files":  len(written),
		"dir":    w.dir,
	}).Info("Report written")

	return written, nil
}

// WritePortfolio writes the holdings table as CSV
func (w *Writer) WritePortfolio(r *Report) (string, error) {
	records := [][]string{{"Bond ID", "Market Price", "Weight", "Mod Duration", "DV01 %"}}
	for _, row := range r.Portfolio {
		records = append(records, []string{
			row.ID,
			ftoa(row.Price),
			ftoa(row.Weight),
			ftoa(row.ModifiedDuration),
			ftoa(row.DV01Pct),
		})
	}
	return w.writeCSV(PortfolioFile, records)
}

// WriteHistory writes the simulation history as CSV
func (w *Writer) WriteHistory(r *Report) (string, error) {
	records := [][]string{{"step", "turnover", "portfolio_duration", "portfolio_convexity", "benchmark_yield", "portfolio_cvar", "converged"}}
	for _, h := range r.History {
		records = append(records, []string{
			strconv.Itoa(h.Step),
			ftoa(h.Turnover),
			ftoa(h.PortfolioDuration),
			ftoa(h.PortfolioConvexity),
			ftoa(h.BenchmarkYield),
			ftoa(h.PortfolioCVaR),
			strconv.FormatBool(h.Converged),
		})
	}
	return w.writeCSV(HistoryFile, records)
}

// WriteRiskMetrics writes "key: value" lines
func (w *Writer) WriteRiskMetrics(r *Report) (string, error) {
	return w.writeFile(RiskFile, func(out io.Writer) error {
		for _, line := range riskLines(r.Risk) {
			if _, err := fmt.Fprintf(out, "%s: %s\n", line.key, ftoa(line.value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteJSON writes the full report as indented JSON
func (w *Writer) WriteJSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(w.dir, JSONFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) writeCSV(name string, records [][]string) (string, error) {
	return w.writeFile(name, func(out io.Writer) error {
		return csv.NewWriter(out).WriteAll(records)
	})
}

// writeFile creates name under the output dir and fills it.
// A failed close is reported like a failed write.
func (w *Writer) writeFile(name string, fill func(io.Writer) error) (path string, err error) {
	path = filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			path, err = "", fmt.Errorf("close %s: %w", name, cerr)
		}
	}()

	if err := fill(f); err != nil {
		return "", err
	}
	return path, nil
}

type metricLine struct {
	key   string
	value float64
}

// riskLines orders the headline metrics; keys carry the confidence in percent
func riskLines(m RiskMetrics) []metricLine {
	pct := int(m.Confidence*100 + 0.5)
	lines := []metricLine{
		{fmt.Sprintf("VaR_%d", pct), m.VaR},
		{fmt.Sprintf("CVaR_%d", pct), m.CVaR},
		{"Stress_Loss", m.StressPnL},
	}
	if m.Parametric != nil {
		lines = append(lines,
			metricLine{fmt.Sprintf("Parametric_VaR_%d", pct), m.Parametric.VaR},
			metricLine{fmt.Sprintf("Parametric_CVaR_%d", pct), m.Parametric.CVaR},
		)
	}
	for _, s := range m.Stress {
		lines = append(lines, metricLine{"Stress_" + s.Name, s.PnL})
	}
	return lines
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
