package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/cxrbalance/internal/database"
	"github.com/nao1215/cxrbalance/internal/model"
)

func openTestDB(t *testing.T) *database.AnalysisDB {
	t.Helper()
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// saveRun stores a run of dataset with the given counts and ratio.
func saveRun(t *testing.T, db *database.AnalysisDB, dataset string, at time.Time, counts model.CountTable, ratio float64) int64 {
	t.Helper()
	r := model.NewAnalysisReport(dataset, model.DefaultClassTable())
	r.DateAnalyzed = at
	r.Counts = counts
	r.ImbalanceRatio = ratio
	s := model.StrategyForRatio(ratio)
	r.Strategy = &s

	id, err := db.SaveAnalysis(context.Background(), r)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	return id
}

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history [data-dir]" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"list":          "l",
		"list-datasets": "L",
		"id":            "i",
		"json":          "j",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
}

func TestWriteDatasetList(t *testing.T) {
	t.Parallel()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := writeDatasetList(context.Background(), openTestDB(t), &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No analyzed datasets") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("lists datasets", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		now := time.Now()
		saveRun(t, db, "/data/v1", now, model.CountTable{0: 1, 1: 1, 2: 1}, 1)
		saveRun(t, db, "/data/v2", now, model.CountTable{0: 1, 1: 1, 2: 1}, 1)

		var buf bytes.Buffer
		if err := writeDatasetList(context.Background(), db, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"(2)", "/data/v1", "/data/v2"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, buf.String())
			}
		}
	})
}

func TestWriteRunHistory(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	saveRun(t, db, "/data", base, model.CountTable{0: 10, 1: 2, 2: 20}, 10)
	saveRun(t, db, "/data", base.Add(time.Hour), model.CountTable{0: 10, 1: 5, 2: 20}, 4)

	var buf bytes.Buffer
	if err := writeRunHistory(context.Background(), db, &buf, "/data"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "(2 runs)") {
		t.Errorf("expected 2 runs, got %q", output)
	}
	if !strings.Contains(output, "oversampling") || !strings.Contains(output, "focal_loss") {
		t.Errorf("expected both strategies, got %q", output)
	}
	// Newest first.
	if strings.Index(output, "focal_loss") > strings.Index(output, "oversampling") {
		t.Errorf("expected newest run first, got %q", output)
	}

	buf.Reset()
	if err := writeRunHistory(context.Background(), db, &buf, "/other"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No analysis history") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteComparison(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("latest two runs", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		saveRun(t, db, "/data", base, model.CountTable{0: 10, 1: 2, 2: 20}, 10)
		saveRun(t, db, "/data", base.Add(time.Hour), model.CountTable{0: 10, 1: 5, 2: 20}, 4)

		var buf bytes.Buffer
		if err := writeComparison(context.Background(), db, &buf, "/data", 0, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"Foreign Body Bronchus", "+3", "10.00 -> 4.00", database.DirectionImproved, "oversampling -> focal_loss"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("json with a specific run", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		first := saveRun(t, db, "/data", base, model.CountTable{0: 10, 1: 5, 2: 20}, 4)
		saveRun(t, db, "/data", base.Add(time.Hour), model.CountTable{0: 10, 1: 2, 2: 20}, 10)
		saveRun(t, db, "/data", base.Add(2*time.Hour), model.CountTable{0: 10, 1: 4, 2: 20}, 5)

		var buf bytes.Buffer
		if err := writeComparison(context.Background(), db, &buf, "/data", first, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var c database.Comparison
		if err := json.Unmarshal(buf.Bytes(), &c); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if c.Direction != database.DirectionWorsened {
			t.Errorf("expected worsened, got %s", c.Direction)
		}
		if c.Classes[1].Delta != -1 {
			t.Errorf("expected delta -1 for class 1, got %d", c.Classes[1].Delta)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		ctx := context.Background()
		if err := writeComparison(ctx, db, &bytes.Buffer{}, "/data", 0, false); err == nil {
			t.Error("expected error without history")
		}

		saveRun(t, db, "/data", base, model.CountTable{0: 1, 1: 1, 2: 1}, 1)
		if err := writeComparison(ctx, db, &bytes.Buffer{}, "/data", 0, false); err == nil {
			t.Error("expected error with a single run")
		}

		other := saveRun(t, db, "/other", base, model.CountTable{0: 1, 1: 1, 2: 1}, 1)
		if err := writeComparison(ctx, db, &bytes.Buffer{}, "/data", other, false); err == nil {
			t.Error("expected error for a run of another dataset")
		}
		if err := writeComparison(ctx, db, &bytes.Buffer{}, "/data", 999, false); err == nil {
			t.Error("expected error for an unknown run")
		}
	})
}

func TestRunHistoryCmdListDatasets(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	var buf bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--list-datasets", "--db-dir", dbDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No analyzed datasets") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
