package analysis

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"revlens/internal/dataset"

	apperrors "revlens/internal/errors"
)

// Analyzer runs the full leakage analysis over tables. It holds only
// immutable configuration, so a single Analyzer is safe for concurrent use
// and repeated runs over the same table produce identical reports.
type Analyzer struct {
	cfg        Config
	classifier *Classifier
	pipeline   *pipeline
	logger     *slog.Logger
}

// NewAnalyzer validates the configuration and builds the analyzer.
func NewAnalyzer(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.IsValid() {
		return nil, apperrors.NewValidationError("config", "invalid analysis configuration")
	}
	return &Analyzer{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Keywords, cfg.FuzzyDistance, logger),
		pipeline:   newPipeline(cfg, logger),
		logger:     logger,
	}, nil
}

// Analyze runs classification, profiling, detection, aggregation and scoring
// over one table and assembles the report. An empty table yields an empty
// report with a quality score of 0 rather than an error.
func (a *Analyzer) Analyze(ctx context.Context, t *dataset.Table) *Report {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "analyzer.analyze")
	defer span.End()

	if t == nil || t.IsEmpty() {
		a.logger.InfoContext(ctx, "empty table, returning empty report")
		return &Report{
			Findings:      []Finding{},
			Insights:      buildInsights(nil, FinancialMetrics{}, 0),
			ColumnProfile: map[string]ColumnProfile{},
			QualityBand:   qualityBand(0),
		}
	}

	classes := a.classifier.Classify(t)
	profile := BuildProfile(t, classes)

	findings := a.pipeline.run(ctx, t, profile)
	metrics := computeMetrics(profile, findings)
	score := scoreQuality(profile, findings)

	report := &Report{
		Findings:      findings,
		Metrics:       metrics,
		Insights:      buildInsights(findings, metrics, profile.Rows),
		QualityScore:  score,
		QualityBand:   qualityBand(score),
		ColumnProfile: profile.Columns(),
		Rows:          profile.Rows,
		DuplicateRows: profile.DuplicateRows,
	}
	if report.Findings == nil {
		report.Findings = []Finding{}
	}

	span.SetAttributes(
		attribute.Int("rows", report.Rows),
		attribute.Int("findings", len(report.Findings)),
		attribute.Float64("quality_score", report.QualityScore),
	)
	a.logger.InfoContext(ctx, "analysis complete",
		slog.Int("rows", report.Rows),
		slog.Int("findings", len(report.Findings)),
		slog.Float64("quality_score", report.QualityScore),
		slog.Float64("revenue_at_risk", report.Metrics.RevenueAtRisk))

	return report
}
