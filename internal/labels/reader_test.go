package labels

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// writeLabel writes a label file into dir and returns its path.
func writeLabel(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write label file: %v", err)
	}
	return path
}

// TestParseLine tests parsing of single annotation lines.
func TestParseLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		line    string
		wantID  int
		wantBox bool
		wantErr bool
	}{
		{name: "full record", line: "1 0.5 0.5 0.2 0.1", wantID: 1, wantBox: true},
		{name: "class id only", line: "2", wantID: 2},
		{name: "extra whitespace", line: "  0\t0.1  0.2 0.3 0.4 ", wantID: 0, wantBox: true},
		{name: "segmentation polygon", line: "0 0.1 0.1 0.2 0.2 0.3 0.3", wantID: 0},
		{name: "non-numeric class", line: "fracture 0.5 0.5 0.2 0.1", wantErr: true},
		{name: "float class", line: "1.0 0.5 0.5 0.2 0.1", wantErr: true},
		{name: "negative class", line: "-1 0.5 0.5 0.2 0.1", wantErr: true},
		{name: "bad bbox", line: "1 0.5 x 0.2 0.1", wantErr: true},
		{name: "whitespace only", line: "   ", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLine(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if int(got.ClassID) != tc.wantID {
				t.Errorf("expected class %d, got %d", tc.wantID, got.ClassID)
			}
			if (got.BBox != nil) != tc.wantBox {
				t.Errorf("expected bbox presence %v, got %v", tc.wantBox, got.BBox != nil)
			}
		})
	}
}

// TestReadFile tests tallying a label file.
func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("counts every non-blank line", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeLabel(t, dir, "a.txt", "0 0.5 0.5 0.1 0.1\n\n0 0.2 0.2 0.1 0.1\n1 0.3 0.3 0.1 0.1\n   \n")

		result, err := ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Lines != 3 {
			t.Errorf("expected 3 lines, got %d", result.Lines)
		}
		if result.Counts[0] != 2 || result.Counts[1] != 1 {
			t.Errorf("unexpected counts: %v", result.Counts)
		}
		if result.Counts.Total() != result.Lines {
			t.Errorf("count sum %d differs from line count %d", result.Counts.Total(), result.Lines)
		}
		if len(result.ParseErrors) != 0 {
			t.Errorf("expected no parse errors, got %v", result.ParseErrors)
		}
	})

	t.Run("records malformed lines and keeps reading", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeLabel(t, dir, "b.txt", "2 0.5 0.5 0.1 0.1\nabc 0.1 0.1 0.1 0.1\n2 0.4 0.4 0.1 0.1\n")

		result, err := ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Counts[2] != 2 {
			t.Errorf("expected 2 annotations of class 2, got %d", result.Counts[2])
		}
		if len(result.ParseErrors) != 1 {
			t.Fatalf("expected 1 parse error, got %d", len(result.ParseErrors))
		}
		if result.ParseErrors[0].Line != 2 {
			t.Errorf("expected parse error on line 2, got %d", result.ParseErrors[0].Line)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		_, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected fs.ErrNotExist, got %v", err)
		}
	})

	t.Run("empty file has no dominant class", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeLabel(t, dir, "empty.txt", "")

		result, err := ReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := result.DominantClass(); ok {
			t.Error("expected no dominant class for empty file")
		}
	})
}

// TestDominantClass tests majority class selection with ties.
func TestDominantClass(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeLabel(t, dir, "c.txt", "2\n1\n1\n2\n")

	result, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok := result.DominantClass()
	if !ok {
		t.Fatal("expected a dominant class")
	}
	if id != 1 {
		t.Errorf("expected tie to resolve to lowest id 1, got %d", id)
	}
}

// TestBasename tests label name helpers.
func TestBasename(t *testing.T) {
	t.Parallel()

	if !IsLabelFile("img_001.txt") {
		t.Error("expected .txt to be a label file")
	}
	if IsLabelFile("img_001.jpg") {
		t.Error("expected .jpg not to be a label file")
	}
	if got := Basename("img_001.txt"); got != "img_001" {
		t.Errorf("unexpected basename %q", got)
	}
}
