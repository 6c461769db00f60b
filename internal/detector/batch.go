package detector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cxrbalance/internal/model"
)

// DefaultWorkers is the default number of concurrent inference requests.
const DefaultWorkers = 4

// PredictionsFile is the CSV written by directory inference.
const PredictionsFile = "predictions.csv"

// ErrNoImages is returned when a directory holds no image files.
var ErrNoImages = errors.New("no images found")

// ImageResult holds the detections of one image, or the error that
// prevented them.
type ImageResult struct {
	Image      string
	Detections []model.Detection
	Err        error
}

// ListImages returns the image files of dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !model.IsImageFile(entry.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, entry.Name()))
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(images)
	return images, nil
}

// PredictBatch runs m.Predict over images with at most workers requests in
// flight. Results are in input order. A failed image is recorded in its
// result and does not stop the others; only cancellation returns an error.
func PredictBatch(ctx context.Context, m Model, images []string, conf float64, workers int, logger *slog.Logger) ([]ImageResult, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]ImageResult, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, image := range images {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			detections, err := m.Predict(gctx, image, conf)
			results[i] = ImageResult{
				Image:      filepath.Base(image),
				Detections: detections,
				Err:        err,
			}
			if err != nil {
				logger.Warn("prediction failed", "image", filepath.Base(image), "error", err)
			} else {
				logger.Debug("prediction completed", "image", filepath.Base(image), "detections", len(detections))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// WriteCSV writes one row per detection with the header
// image,class,confidence,bbox. Failed images are skipped.
func WriteCSV(w io.Writer, results []ImageResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"image", "class", "confidence", "bbox"}); err != nil {
		return err
	}
	for _, result := range results {
		if result.Err != nil {
			continue
		}
		for _, d := range result.Detections {
			bbox := ""
			if d.BBox != nil {
				bbox = d.BBox.String()
			}
			row := []string{
				result.Image,
				d.Class,
				strconv.FormatFloat(d.Confidence, 'f', 4, 64),
				bbox,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the predictions CSV into dir, creating it if needed,
// and returns the file path.
func WriteCSVFile(dir string, results []ImageResult) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, PredictionsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create predictions file: %w", err)
	}

	if err := WriteCSV(f, results); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write predictions: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close predictions file: %w", err)
	}
	return path, nil
}

// ClassCount is the number of detections of one class.
type ClassCount struct {
	Class string
	Count int
}

// Summarize counts detections per class, most frequent first and then by
// name. Failed images are counted separately.
func Summarize(results []ImageResult) (counts []ClassCount, failed int) {
	byClass := make(map[string]int)
	for _, result := range results {
		if result.Err != nil {
			failed++
			continue
		}
		for _, d := range result.Detections {
			byClass[d.Class]++
		}
	}

	for class, n := range byClass {
		counts = append(counts, ClassCount{Class: class, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Class < counts[j].Class
	})
	return counts, failed
}
