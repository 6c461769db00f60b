package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/config"
	"github.com/nao1215/cxrbalance/internal/database"
	"github.com/nao1215/cxrbalance/internal/model"
	"github.com/nao1215/cxrbalance/internal/pipeline"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [data-dir...]",
		Short: "Analyze class balance of one or more datasets",
		Long: `Analyze counts the annotations of every class across the train, val and test
splits of a dataset, computes the imbalance ratio, selects a training strategy
and class weights, compares the counts with the configured target balance and
checks that every image has a label file.

A dataset directory contains images/<split> and labels/<split> for the splits
train, val and test. Each label file holds one annotation per line:
"<class_id> <x_center> <y_center> <width> <height>".

Examples:
  # Analyze ./data
  cxrbalance analyze

  # Analyze two datasets concurrently and print Markdown
  cxrbalance analyze --markdown data/v1 data/v2

  # Write data.yaml with the selected strategy next to the dataset
  cxrbalance analyze --data-yaml data

  # Save a JSON report without recording it in the history
  cxrbalance analyze --json -o reports/data.json --no-save data`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of datasets analyzed concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cxrbalance in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().Bool("no-save", false,
		"Do not record the analysis in the history database")
	cmd.Flags().Bool("data-yaml", false,
		"Write data.yaml with the selected strategy into each dataset directory")
	cmd.Flags().Bool("skip-quality", false,
		"Skip the image/label pairing check")
	cmd.Flags().Bool("duplicates", false,
		"Report images with identical content")
	cmd.Flags().Bool("metadata", false,
		"Report images carrying identifying EXIF metadata")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)

	cfg, err := buildAnalyzeConfig(cmd, args, logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runAnalyze(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildAnalyzeConfig creates a Config from cobra command flags.
func buildAnalyzeConfig(cmd *cobra.Command, args []string, logger *slog.Logger) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if len(args) > 0 {
		cfg.DataDirs = args
	}

	var err error
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.WriteDataYAML, err = cmd.Flags().GetBool("data-yaml"); err != nil {
		return nil, err
	}
	if cfg.SkipQuality, err = cmd.Flags().GetBool("skip-quality"); err != nil {
		return nil, err
	}
	if cfg.CheckDuplicates, err = cmd.Flags().GetBool("duplicates"); err != nil {
		return nil, err
	}
	if cfg.CheckMetadata, err = cmd.Flags().GetBool("metadata"); err != nil {
		return nil, err
	}

	cfg.Dataset, cfg.ConfigFilePath, err = loadDatasetConfig(cmd, logger)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// runAnalyze analyzes every dataset of cfg and writes the reports to stdout
// or cfg.ReportFile.
func runAnalyze(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	dirs := make([]string, len(cfg.DataDirs))
	for i, dir := range cfg.DataDirs {
		path, err := datasetPath(dir)
		if err != nil {
			return err
		}
		dirs[i] = path
	}

	logger.Info("starting analysis",
		"datasets", dirs,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.AnalysisDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	out, closeOut, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // best effort on the error path
	writer := newReportWriter(cfg, out)

	// Reports are emitted as they complete; the mutex keeps them whole.
	var mu sync.Mutex
	emit := func(r *model.AnalysisReport) {
		mu.Lock()
		defer mu.Unlock()

		if _, err := writer.Write(r); err != nil {
			logger.Error("report failed", "dataset", r.Dataset, "error", err)
		}
		if err := saveAnalysis(ctx, db, r, logger); err != nil {
			logger.Error("failed to save analysis", "dataset", r.Dataset, "error", err)
		}
	}

	start := time.Now()
	if len(dirs) > 1 && cfg.BatchSize > 1 {
		bp := pipeline.NewBatchProcessor(
			func() *pipeline.Pipeline { return pipeline.DefaultPipeline(pipelineConfig(cfg), logger) },
			cfg.Dataset.Classes,
			pipeline.WithConcurrency(cfg.BatchSize),
			pipeline.WithBatchLogger(logger),
		)
		err = bp.ProcessBatchWithCallback(ctx, dirs, func(r *model.AnalysisReport, _ int) {
			emit(r)
		})
	} else {
		for _, dir := range dirs {
			if err = ctx.Err(); err != nil {
				break
			}
			r := model.NewAnalysisReport(dir, cfg.Dataset.Classes)
			_ = pipeline.DefaultPipeline(pipelineConfig(cfg), logger).Execute(ctx, r) //nolint:errcheck // error is stored in report
			emit(r)
		}
	}

	logger.Info("analysis complete", "datasets", len(dirs), "elapsed", time.Since(start))
	if err != nil {
		return err
	}
	return closeOut()
}

// saveAnalysis stores the report in the history database. If db is nil or
// the analysis was interrupted, this function is a no-op.
func saveAnalysis(ctx context.Context, db *database.AnalysisDB, r *model.AnalysisReport, logger *slog.Logger) error {
	if db == nil || r.Cancelled {
		return nil
	}
	id, err := db.SaveAnalysis(ctx, r)
	if err != nil {
		return err
	}
	logger.Info("analysis saved to history", "dataset", r.Dataset, "id", id)
	return nil
}
