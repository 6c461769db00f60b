// Package pipeline runs the analysis of a dataset as a sequence of steps.
//
// A dataset is processed through counting, quality checking, strategy
// selection, weight calculation and target recommendations. Each stage is
// a Step that receives the current model.AnalysisReport and fills in its
// part. Degenerate data (a class with zero samples, missing directories)
// is recorded in the report as issues and never stops the pipeline.
//
// BatchProcessor analyzes several dataset directories concurrently with
// errgroup and a concurrency limit, keeping results in input order.
package pipeline
