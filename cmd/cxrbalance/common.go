package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/config"
	securelog "github.com/nao1215/cxrbalance/internal/log"
	"github.com/nao1215/cxrbalance/internal/model"
	"github.com/nao1215/cxrbalance/internal/pipeline"
	"github.com/nao1215/cxrbalance/internal/report"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getPersistentBool(cmd, "verbose")
}

// getPersistentBool reads a root persistent flag. Commands run on their
// own, as in tests, report false.
func getPersistentBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// setupLogger creates a stderr logger that masks patient identifiers,
// in JSON when --log-json is set.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	return newLogger(os.Stderr, getVerboseFlag(cmd), getPersistentBool(cmd, "log-json"))
}

func newLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return securelog.NewSecureJSONLogger(w, verbose)
	}
	return securelog.NewSecureLogger(w, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// loadDatasetConfig resolves the dataset configuration file named by the
// --config flag, or the discovered one, or the defaults.
func loadDatasetConfig(cmd *cobra.Command, logger *slog.Logger) (*config.File, string, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", err
	}
	file, path, err := config.Resolve(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if path != "" {
		logger.Debug("configuration loaded", "path", path)
	}
	return file, path, nil
}

// datasetPath returns the absolute, cleaned form of a dataset directory so
// that history rows of the same dataset match.
func datasetPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return filepath.Clean(abs), nil
}

// openOutput returns the report destination: the given file, created with
// owner-only permissions, or stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter selects the report format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// pipelineConfig maps the runtime configuration onto the analysis steps.
func pipelineConfig(cfg *config.Config) pipeline.DefaultPipelineConfig {
	return pipeline.DefaultPipelineConfig{
		Classes:         cfg.Dataset.Classes,
		Targets:         cfg.Dataset.Targets,
		SkipQuality:     cfg.SkipQuality,
		CheckDuplicates: cfg.CheckDuplicates,
		CheckMetadata:   cfg.CheckMetadata,
		WriteDataYAML:   cfg.WriteDataYAML,
	}
}

// analyzeDataset runs the analysis pipeline on a single dataset.
func analyzeDataset(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger) (*model.AnalysisReport, error) {
	path, err := datasetPath(dir)
	if err != nil {
		return nil, err
	}
	r := model.NewAnalysisReport(path, cfg.Dataset.Classes)
	if err := pipeline.DefaultPipeline(pipelineConfig(cfg), logger).Execute(ctx, r); err != nil {
		return r, err
	}
	return r, nil
}
