package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"revlens/internal/dataset"
)

const tracerName = "revlens/analysis"

// pipeline runs a fixed set of detectors over one table and merges their
// findings. Detectors are fail-isolated: a panicking detector contributes
// nothing and the rest still run.
type pipeline struct {
	detectors []Detector
	logger    *slog.Logger

	parallel       bool
	maxConcurrency int
}

func newPipeline(cfg Config, logger *slog.Logger) *pipeline {
	return &pipeline{
		detectors:      buildDetectors(cfg),
		logger:         logger,
		parallel:       cfg.Parallel,
		maxConcurrency: cfg.MaxConcurrency,
	}
}

// buildDetectors assembles the enabled detectors in their canonical order.
// The order only matters for deterministic tie-breaking when findings sort
// equal on severity and impact.
func buildDetectors(cfg Config) []Detector {
	t := cfg.Thresholds
	var ds []Detector
	if cfg.Detectors.NegativeRevenue {
		ds = append(ds, negativeRevenueDetector{cfg: t})
	}
	if cfg.Detectors.ExcessiveDiscount {
		ds = append(ds, excessiveDiscountDetector{cfg: t})
	}
	if cfg.Detectors.MissingData {
		ds = append(ds, missingDataDetector{cfg: t})
	}
	if cfg.Detectors.DuplicateRows {
		ds = append(ds, duplicateRowsDetector{})
	}
	if cfg.Detectors.PricingInconsistency {
		ds = append(ds, pricingInconsistencyDetector{cfg: t})
	}
	if cfg.Detectors.CustomerConcentration {
		ds = append(ds, customerConcentrationDetector{cfg: t})
	}
	if cfg.Detectors.UnprofitableProduct {
		ds = append(ds, unprofitableProductDetector{})
	}
	if cfg.Detectors.LowValueTransaction {
		ds = append(ds, lowValueTransactionDetector{cfg: t})
	}
	if cfg.Detectors.RefundRate {
		ds = append(ds, refundRateDetector{cfg: t})
	}
	if cfg.Detectors.ZeroRevenue {
		ds = append(ds, zeroRevenueDetector{})
	}
	if cfg.Detectors.CostOutlier {
		ds = append(ds, costOutlierDetector{cfg: t})
	}
	if cfg.Detectors.NegativeQuantity {
		ds = append(ds, negativeQuantityDetector{})
	}
	return ds
}

// run executes every runnable detector and returns the merged findings sorted
// by severity, then financial impact descending.
func (pl *pipeline) run(ctx context.Context, t *dataset.Table, p *Profile) []Finding {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.run")
	defer span.End()

	// Each detector writes into its own slot so parallel and sequential runs
	// merge in the same order.
	results := make([][]Finding, len(pl.detectors))

	if pl.parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pl.maxConcurrency)
		for i, d := range pl.detectors {
			i, d := i, d
			g.Go(func() error {
				results[i] = pl.runDetector(gctx, d, t, p)
				return nil
			})
		}
		// Detectors never return errors; Wait only synchronizes.
		_ = g.Wait()
	} else {
		for i, d := range pl.detectors {
			results[i] = pl.runDetector(ctx, d, t, p)
		}
	}

	var findings []Finding
	for _, fs := range results {
		findings = append(findings, fs...)
	}
	sortFindings(findings)

	span.SetAttributes(attribute.Int("findings", len(findings)))
	return findings
}

// runDetector checks role requirements, then runs one detector under a panic
// guard so a single faulty rule cannot take down the whole analysis.
func (pl *pipeline) runDetector(ctx context.Context, d Detector, t *dataset.Table, p *Profile) (findings []Finding) {
	for _, role := range d.Requires() {
		if !p.HasRole(role) {
			pl.logger.Debug("detector skipped, required role missing",
				slog.String("detector", d.Name()),
				slog.String("role", role.String()))
			return nil
		}
	}

	_, span := otel.Tracer(tracerName).Start(ctx, "detector."+d.Name())
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			pl.logger.Error("detector panicked",
				slog.String("detector", d.Name()),
				slog.String("panic", fmt.Sprint(r)))
			findings = nil
		}
	}()

	findings = d.Detect(t, p)
	span.SetAttributes(attribute.Int("findings", len(findings)))
	return findings
}

// sortFindings orders findings by severity rank, then impact descending, then
// category for a stable order.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.FinancialImpact != b.FinancialImpact {
			return a.FinancialImpact > b.FinancialImpact
		}
		return a.Category < b.Category
	})
}
