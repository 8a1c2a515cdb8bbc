// Package equipment turns uploaded CSV files into classified equipment rows
// and aggregates them.
//
// The package owns the single completeness predicate of the system: a value
// is absent when it is empty after trimming or equals "nan" in any case, and
// a row is complete only when all five fields are present and the numeric
// ones parse as finite numbers. Ingestion, aggregation, the HTTP detail view,
// report rendering and the CLI table all call into this package rather than
// re-deriving the rule.
package equipment
