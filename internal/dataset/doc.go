// Package dataset provides the immutable in-memory table the analysis engine
// consumes. A Table is built once from a decoded header and record rows;
// column kinds (numeric, date, boolean, text) are inferred from the values,
// currency symbols and thousands separators are stripped, and recognized
// null markers plus unparseable typed values become nulls.
package dataset
