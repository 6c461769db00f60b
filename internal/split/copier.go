package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cxrbalance/internal/labels"
	"github.com/nao1215/cxrbalance/internal/model"
)

// DefaultWorkers is the default number of concurrent file copies.
const DefaultWorkers = 4

// EnsureLayout creates images/<split> and labels/<split> for every split.
func EnsureLayout(dir string) error {
	for _, split := range model.Splits {
		for _, d := range []string{model.ImageDir(dir, split), model.LabelDir(dir, split)} {
			if err := os.MkdirAll(d, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", d, err)
			}
		}
	}
	return nil
}

// CopyResult summarizes a Copy run.
type CopyResult struct {
	// Images is the number of images copied per split.
	Images map[string]int

	// Labels is the number of label files copied per split.
	Labels map[string]int

	// MissingLabels lists images copied without a label file.
	MissingLabels []string
}

// Copier writes a partition of a Source into the split layout.
type Copier struct {
	workers int
	logger  *slog.Logger
}

// CopierOption configures a Copier.
type CopierOption func(*Copier)

// WithWorkers sets the number of concurrent copies.
func WithWorkers(n int) CopierOption {
	return func(c *Copier) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CopierOption {
	return func(c *Copier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCopier creates a Copier.
func NewCopier(opts ...CopierOption) *Copier {
	c := &Copier{
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy copies every image of p and its label file from src into dst.
// The first copy failure cancels the remaining copies.
func (c *Copier) Copy(ctx context.Context, src *Source, dst string, p Partition) (*CopyResult, error) {
	if err := EnsureLayout(dst); err != nil {
		return nil, err
	}

	result := &CopyResult{
		Images: make(map[string]int),
		Labels: make(map[string]int),
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, split := range model.Splits {
		files, err := p.Files(split)
		if err != nil {
			return nil, err
		}
		for _, name := range files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				imageDst := filepath.Join(model.ImageDir(dst, split), name)
				if err := copyFile(src.ImagePath(name), imageDst); err != nil {
					return err
				}

				labelName := model.Basename(name) + labels.Extension
				labelDst := filepath.Join(model.LabelDir(dst, split), labelName)
				labelErr := copyFile(src.LabelPath(name), labelDst)
				if labelErr != nil && !errors.Is(labelErr, fs.ErrNotExist) {
					return labelErr
				}

				mu.Lock()
				defer mu.Unlock()
				result.Images[split]++
				if labelErr == nil {
					result.Labels[split]++
				} else {
					result.MissingLabels = append(result.MissingLabels, name)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	sort.Strings(result.MissingLabels)

	c.logger.Debug("partition copied",
		"dst", dst,
		"train", result.Images[model.SplitTrain],
		"val", result.Images[model.SplitVal],
		"test", result.Images[model.SplitTest],
		"missing_labels", len(result.MissingLabels),
	)
	return result, nil
}

// copyFile copies src to dst, preserving the modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from the source listing
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // destination is under the output root
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
