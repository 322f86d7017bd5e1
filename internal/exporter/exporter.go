// Package exporter writes analysis reports to files: the full report as
// JSON and the findings table as CSV for spreadsheet review.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"revlens/internal/analysis"
)

// utf8BOM is prepended to CSV files when Excel compatibility is requested.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer exports reports under a base directory.
type Writer struct {
	baseDir string
	logger  *slog.Logger
}

// NewWriter creates an export writer rooted at baseDir.
func NewWriter(baseDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{baseDir: baseDir, logger: logger}
}

// Options configures an export.
type Options struct {
	// BOMPrefix adds a UTF-8 BOM to CSV output for Excel compatibility.
	BOMPrefix bool
}

// findingsHeader is the column layout of the findings CSV.
var findingsHeader = []string{
	"id", "category", "severity", "affected_rows",
	"financial_impact", "description", "recommendation", "evidence_columns",
}

// WriteJSON writes the full report as indented JSON.
func (w *Writer) WriteJSON(report *analysis.Report, name string) (string, error) {
	path, err := w.prepare(name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	w.logger.Info("wrote JSON report",
		slog.String("path", path),
		slog.Int("findings", len(report.Findings)))
	return path, nil
}

// WriteFindingsCSV writes the findings table as CSV.
func (w *Writer) WriteFindingsCSV(report *analysis.Report, name string, opts Options) (string, error) {
	path, err := w.prepare(name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create findings file: %w", err)
	}
	defer f.Close()

	if opts.BOMPrefix {
		if _, err := f.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(findingsHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, finding := range report.Findings {
		if err := cw.Write(findingRecord(finding)); err != nil {
			return "", fmt.Errorf("write finding %s: %w", finding.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush findings: %w", err)
	}

	w.logger.Info("wrote findings CSV",
		slog.String("path", path),
		slog.Int("findings", len(report.Findings)))
	return path, nil
}

func findingRecord(f analysis.Finding) []string {
	return []string{
		f.ID,
		f.Category,
		string(f.Severity),
		strconv.Itoa(f.AffectedRows),
		strconv.FormatFloat(f.FinancialImpact, 'f', 2, 64),
		f.Description,
		f.Recommendation,
		strings.Join(f.EvidenceColumns, ";"),
	}
}

func (w *Writer) prepare(name string) (string, error) {
	path := filepath.Join(w.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	return path, nil
}
