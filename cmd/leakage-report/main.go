package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"revlens/internal/analysis"
	"revlens/internal/config"
	"revlens/internal/dataset"
	"revlens/internal/exporter"
	"revlens/internal/infrastructure"
)

func main() {
	inputPath := flag.String("in", "", "input CSV file (defaults to stdin)")
	outputPath := flag.String("out", "", "output JSON report file (defaults to stdout)")
	findingsPath := flag.String("findings-csv", "", "optional findings CSV output file")
	configPath := flag.String("config", "", "optional YAML config file")
	sequential := flag.Bool("sequential", false, "run detectors sequentially")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.NewLogger(cfg.Logging)
	slog.SetDefault(logger)
	ctx := infrastructure.EnsureTraceID(context.Background())

	logger.InfoContext(ctx, "starting analysis", "config", cfg.String())

	header, records, err := readCSV(*inputPath)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read input", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "loaded input", "rows", len(records), "columns", len(header))

	// An input without a header still yields a valid, empty report.
	var table *dataset.Table
	if len(header) > 0 {
		table, err = dataset.NewTable(header, records)
		if err != nil {
			logger.ErrorContext(ctx, "failed to build table", "error", err)
			os.Exit(1)
		}
	}

	ac := cfg.AnalysisConfig()
	if *sequential {
		ac.Parallel = false
	}

	analyzer, err := analysis.NewAnalyzer(ac, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create analyzer", "error", err)
		os.Exit(1)
	}

	report := analyzer.Analyze(ctx, table)

	if err := writeReport(report, *outputPath); err != nil {
		logger.ErrorContext(ctx, "failed to write report", "error", err)
		os.Exit(1)
	}

	if *findingsPath != "" {
		w := exporter.NewWriter(filepath.Dir(*findingsPath), logger)
		if _, err := w.WriteFindingsCSV(report, filepath.Base(*findingsPath), exporter.Options{BOMPrefix: true}); err != nil {
			logger.ErrorContext(ctx, "failed to write findings CSV", "error", err)
			os.Exit(1)
		}
	}
	logger.InfoContext(ctx, "report written",
		"findings", len(report.Findings),
		"quality_score", report.QualityScore,
		"revenue_at_risk", report.Metrics.RevenueAtRisk)
}

// readCSV loads the input file or stdin into a header and record rows.
func readCSV(path string) ([]string, [][]string, error) {
	var src io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		src = f
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return header, records, nil
}

func writeReport(report *analysis.Report, path string) error {
	var dst io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		dst = f
	}

	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
