package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/cxrbalance/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, model.DefaultClassTable())
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, nil, WithConcurrency(2))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, nil, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency, got %d", bp.concurrency)
		}
	})
}

// TestProcessBatch tests ordering, concurrency limits and failure handling.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order", func(t *testing.T) {
		t.Parallel()

		dirs := make([]string, 12)
		for i := range dirs {
			dirs[i] = fmt.Sprintf("dataset-%02d", i)
		}

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "tag", doFunc: func(_ context.Context, r *model.AnalysisReport) error {
				time.Sleep(time.Millisecond)
				r.LabelFiles = len(r.Dataset)
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, model.DefaultClassTable(), WithConcurrency(4))
		reports, err := bp.ProcessBatch(context.Background(), dirs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != len(dirs) {
			t.Fatalf("expected %d reports, got %d", len(dirs), len(reports))
		}
		for i, r := range reports {
			if r.Dataset != dirs[i] {
				t.Errorf("report %d is for %s, want %s", i, r.Dataset, dirs[i])
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "slow", doFunc: func(_ context.Context, _ *model.AnalysisReport) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, nil, WithConcurrency(2))
		if _, err := bp.ProcessBatch(context.Background(), make([]string, 8)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := atomic.LoadInt32(&peak); got > 2 {
			t.Errorf("expected at most 2 concurrent analyses, got %d", got)
		}
	})

	t.Run("failed analysis keeps its report", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "fail", doFunc: func(_ context.Context, r *model.AnalysisReport) error {
				if r.Dataset == "bad" {
					return errors.New("unreadable")
				}
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, nil)
		reports, err := bp.ProcessBatch(context.Background(), []string{"good", "bad"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[0].Error != nil {
			t.Error("expected good dataset without error")
		}
		if reports[1].ErrorMessage != "unreadable" {
			t.Errorf("expected error recorded, got %q", reports[1].ErrorMessage)
		}
	})

	t.Run("callback receives every report", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		seen := make(map[int]string)
		bp := NewBatchProcessor(func() *Pipeline { return New() }, nil, WithConcurrency(3))
		err := bp.ProcessBatchWithCallback(context.Background(), []string{"a", "b", "c"}, func(r *model.AnalysisReport, i int) {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = r.Dataset
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
			t.Errorf("unexpected callbacks %v", seen)
		}
	})
}
