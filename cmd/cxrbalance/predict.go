package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/detector"
	"github.com/nao1215/cxrbalance/internal/model"
)

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run inference on an image or a directory of images",
		Long: `Predict sends images to the detection service.

For a single image the detections are printed. For a directory every image
is sent concurrently, the detections are written to <output>/predictions.csv
(image,class,confidence,bbox) and a per-class summary is printed. An image
without any detection is reported as normal with confidence 1.0.

Examples:
  # Predict one image
  cxrbalance predict --source scans/p001.png

  # Predict a directory with a lower confidence threshold
  cxrbalance predict --source scans --output predictions --conf 0.25`,
		Args: cobra.NoArgs,
		RunE: runPredictCmd,
	}

	cmd.Flags().StringP("source", "s", "", "Image file or directory of images")
	cmd.Flags().StringP("output", "o", "predictions", "Output directory for predictions.csv")
	cmd.Flags().Float64("conf", 0, "Confidence threshold (default from configuration, 0.5)")
	cmd.Flags().IntP("workers", "w", detector.DefaultWorkers, "Number of concurrent requests")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cxrbalance in current or home directory)")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runPredictCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)

	file, _, err := loadDatasetConfig(cmd, logger)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	source, err := flags.GetString("source")
	if err != nil {
		return err
	}
	outputDir, err := flags.GetString("output")
	if err != nil {
		return err
	}
	conf := file.Detector.Confidence
	if flags.Changed("conf") {
		if conf, err = flags.GetFloat64("conf"); err != nil {
			return err
		}
		if conf < 0 || conf > 1 {
			return fmt.Errorf("confidence must be within [0, 1], got %g", conf)
		}
	}
	workers, err := flags.GetInt("workers")
	if err != nil {
		return err
	}

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source not found: %w", err)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	client := newDetectorClient(file, logger)
	out := cmd.OutOrStdout()

	if !info.IsDir() {
		detections, err := client.Predict(ctx, source, conf)
		if err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		writeDetections(out, source, detections)
		return nil
	}

	images, err := detector.ListImages(source)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Processing %d images from %s...\n", len(images), source)

	results, err := detector.PredictBatch(ctx, client, images, conf, workers, logger)
	if err != nil {
		return err
	}
	path, err := detector.WriteCSVFile(outputDir, results)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Results saved to %s\n\n", path)

	return writePredictionSummary(out, results)
}

// writePredictionSummary prints the per-class summary and fails when no
// image could be processed.
func writePredictionSummary(w io.Writer, results []detector.ImageResult) error {
	counts, failed := detector.Summarize(results)

	fmt.Fprintln(w, "Detections per class:")
	for _, c := range counts {
		fmt.Fprintf(w, "  %-24s %d\n", model.DisplayName(c.Class), c.Count)
	}

	if failed > 0 {
		fmt.Fprintf(w, "\n%d of %d image(s) failed:\n", failed, len(results))
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(w, "  %s: %v\n", r.Image, r.Err)
			}
		}
		if failed == len(results) {
			return errors.New("every prediction failed")
		}
	}
	return nil
}
