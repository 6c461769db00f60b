package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/config"
	"github.com/nao1215/cxrbalance/internal/detector"
	"github.com/nao1215/cxrbalance/internal/model"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train [data-dir]",
		Short: "Train the detection model with the selected imbalance strategy",
		Long: `Train analyzes the dataset, writes data.yaml with the selected imbalance
strategy and class weights, and asks the detection service to train on it.

The service address and retry policy come from the detector section of the
configuration file.

Examples:
  # Train on ./data with the default hyperparameters
  cxrbalance train

  # Train for 100 epochs with a smaller batch
  cxrbalance train --epochs 100 --batch-size 8 data`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTrainCmd,
	}

	cmd.Flags().Int("epochs", detector.DefaultEpochs, "Number of training epochs")
	cmd.Flags().Int("imgsz", detector.DefaultImageSize, "Training image size")
	cmd.Flags().Int("batch-size", detector.DefaultBatch, "Training batch size")
	cmd.Flags().Int("patience", detector.DefaultPatience, "Epochs without improvement before early stopping")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cxrbalance in current or home directory)")

	return cmd
}

// NewEvaluateCmd creates the evaluate command.
func NewEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [data-dir]",
		Short: "Evaluate the detection model on the test split",
		Long: `Evaluate analyzes the dataset, writes data.yaml and asks the detection service
to validate the model on the test split, printing mAP50, mAP50-95, precision
and recall.

With --image, a single image is sent for inference instead.

Examples:
  # Evaluate on the test split of ./data
  cxrbalance evaluate

  # Evaluate specific weights on the validation split
  cxrbalance evaluate --model runs/detect/train/weights/best.pt --split val data

  # Run inference on one image
  cxrbalance evaluate --image data/images/test/p001.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEvaluateCmd,
	}

	cmd.Flags().String("model", "", "Trained weights to evaluate (default: the service's current model)")
	cmd.Flags().String("split", model.SplitTest, "Dataset split to evaluate")
	cmd.Flags().String("image", "", "Predict a single image instead of evaluating a split")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cxrbalance in current or home directory)")

	return cmd
}

// newDetectorClient creates a detection service client from the configuration.
func newDetectorClient(file *config.File, logger *slog.Logger) *detector.Client {
	return detector.NewClient(file.Detector.URL, file.Classes,
		detector.WithTimeout(file.Detector.Timeout),
		detector.WithRetries(file.Detector.Retries),
		detector.WithLogger(logger),
	)
}

// prepareDataset analyzes dir and writes its data.yaml. Reports of datasets
// without a strategy are returned with a nil strategy.
func prepareDataset(ctx context.Context, cmd *cobra.Command, args []string, logger *slog.Logger) (*config.Config, *model.AnalysisReport, error) {
	cfg := config.NewConfig()
	var err error
	cfg.Dataset, cfg.ConfigFilePath, err = loadDatasetConfig(cmd, logger)
	if err != nil {
		return nil, nil, err
	}
	if len(args) > 0 {
		cfg.DataDirs = args
	}
	cfg.SaveToDB = false
	cfg.WriteDataYAML = true
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	r, err := analyzeDataset(ctx, cfg, cfg.DataDirs[0], logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, r, nil
}

func runTrainCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	cfg, r, err := prepareDataset(ctx, cmd, args, logger)
	if err != nil {
		return err
	}

	req := detector.NewTrainRequest(filepath.Join(r.Dataset, config.DataYAMLFile)).
		WithImbalance(r.Strategy, r.Classes, r.Weights)
	flags := cmd.Flags()
	if req.Epochs, err = flags.GetInt("epochs"); err != nil {
		return err
	}
	if req.ImageSize, err = flags.GetInt("imgsz"); err != nil {
		return err
	}
	if req.Batch, err = flags.GetInt("batch-size"); err != nil {
		return err
	}
	if req.Patience, err = flags.GetInt("patience"); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeStrategy(out, r)

	client := newDetectorClient(cfg.Dataset, logger)
	if err := client.Health(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "Training on %s (%d epochs, imgsz %d, batch %d)...\n",
		req.DataYAML, req.Epochs, req.ImageSize, req.Batch)
	metrics, err := client.Train(ctx, req)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Fprintln(out, "\nTraining complete.")
	writeMetrics(out, metrics)
	return nil
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	image, err := cmd.Flags().GetString("image")
	if err != nil {
		return err
	}
	if image != "" {
		file, _, err := loadDatasetConfig(cmd, logger)
		if err != nil {
			return err
		}
		detections, err := newDetectorClient(file, logger).Predict(ctx, image, file.Detector.Confidence)
		if err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		writeDetections(cmd.OutOrStdout(), image, detections)
		return nil
	}

	cfg, r, err := prepareDataset(ctx, cmd, args, logger)
	if err != nil {
		return err
	}
	splitName, err := cmd.Flags().GetString("split")
	if err != nil {
		return err
	}
	modelPath, err := cmd.Flags().GetString("model")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeStrategy(out, r)

	metrics, err := newDetectorClient(cfg.Dataset, logger).Validate(ctx, detector.ValidateRequest{
		DataYAML:  filepath.Join(r.Dataset, config.DataYAMLFile),
		Split:     splitName,
		ModelPath: modelPath,
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	fmt.Fprintf(out, "Evaluation on the %s split:\n", splitName)
	writeMetrics(out, metrics)
	return nil
}

func writeStrategy(w io.Writer, r *model.AnalysisReport) {
	if r.Strategy == nil {
		fmt.Fprintf(w, "Imbalance strategy: undetermined (%d annotations); training without class weights\n\n", r.TotalAnnotations())
		return
	}
	fmt.Fprintf(w, "Imbalance ratio %.2f (%s): %s\n\n", r.ImbalanceRatio, r.Strategy.Tier(), r.Strategy)
}

func writeMetrics(w io.Writer, m model.Metrics) {
	fmt.Fprintf(w, "  mAP50:     %.4f\n", m.MAP50)
	fmt.Fprintf(w, "  mAP50-95:  %.4f\n", m.MAP5095)
	fmt.Fprintf(w, "  Precision: %.4f\n", m.Precision)
	fmt.Fprintf(w, "  Recall:    %.4f\n", m.Recall)
	if m.ModelPath != "" {
		fmt.Fprintf(w, "  Model:     %s\n", m.ModelPath)
	}
}

func writeDetections(w io.Writer, image string, detections []model.Detection) {
	fmt.Fprintf(w, "Results for %s:\n", image)
	for _, d := range detections {
		fmt.Fprintf(w, "  %-24s %6.2f%%", model.DisplayName(d.Class), d.Confidence*100)
		if d.BBox != nil {
			fmt.Fprintf(w, "  %s", d.BBox)
		}
		fmt.Fprintln(w)
	}
}
