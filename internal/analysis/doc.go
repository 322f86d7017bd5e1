// Package analysis implements the revenue-leakage analysis engine.
//
// The engine takes a parsed tabular dataset and runs it through four stages:
//
//  1. Classification: every column is assigned a semantic role (revenue,
//     cost, discount, customer, ...) from fuzzy name matching plus
//     value-shape heuristics.
//  2. Profiling: per-column statistics and the duplicate-row count are
//     computed once and shared read-only by everything downstream.
//  3. Detection: independent leakage detectors inspect the table and
//     profile, each producing zero or more quantified findings. Detectors
//     are fail-isolated and may run in parallel.
//  4. Aggregation: financial metrics, a data quality score and rule-based
//     insights are assembled into the final Report.
//
// # Design Constraints
//
// The engine is deterministic: analyzing the same table with the same
// configuration twice produces identical reports, including finding IDs.
// Detectors never mutate the table or profile, never return errors and are
// skipped cleanly when the roles they require are absent. A table where no
// column classifies still yields a valid report with zero metrics.
//
// # Usage
//
//	analyzer, err := analysis.NewAnalyzer(analysis.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	report := analyzer.Analyze(ctx, table)
package analysis
