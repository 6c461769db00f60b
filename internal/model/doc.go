// Package model defines the core data structures used throughout cxrbalance.
//
// This package contains the following main types:
//   - ClassTable: The ordered class-name table of the detection dataset
//   - CountTable: Per-class annotation tallies
//   - Strategy: The imbalance handling strategy derived from the imbalance ratio
//   - Issue: A single dataset problem found during analysis or quality checks
//   - AnalysisReport: The complete result of analyzing one dataset
//   - Detection: One object reported by the external detection model
//
// Models live in their own package so that the analyzer, the pipeline, the
// report writers and the history store can share them without import cycles.
// All report types are serializable to JSON for report output and database
// storage.
package model
