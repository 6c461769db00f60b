package quality

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/cxrbalance/internal/model"
)

// layout creates images/<split> and labels/<split> with the given files.
// A nil slice leaves the directory absent.
type splitFiles struct {
	images []string
	labels []string
}

func buildDataset(t *testing.T, files map[string]splitFiles) string {
	t.Helper()
	root := t.TempDir()
	for split, sf := range files {
		if sf.images != nil {
			writeFiles(t, model.ImageDir(root, split), sf.images, "img-"+split)
		}
		if sf.labels != nil {
			writeFiles(t, model.LabelDir(root, split), sf.labels, "0 0.5 0.5 0.1 0.1\n")
		}
	}
	return root
}

func writeFiles(t *testing.T, dir string, names []string, contentPrefix string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	for _, name := range names {
		content := contentPrefix
		if !strings.HasSuffix(name, ".txt") {
			content += "-" + name
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
}

func TestCheckMatchedDataset(t *testing.T) {
	t.Parallel()

	root := buildDataset(t, map[string]splitFiles{
		model.SplitTrain: {images: []string{"a.jpg", "b.PNG"}, labels: []string{"a.txt", "b.txt"}},
		model.SplitVal:   {images: []string{"c.jpeg"}, labels: []string{"c.txt"}},
		model.SplitTest:  {images: []string{}, labels: []string{}},
	})

	result, err := NewChecker().Check(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected OK, got issues %v", result.Issues)
	}
	if result.ImagesChecked != 3 {
		t.Errorf("expected 3 images, got %d", result.ImagesChecked)
	}
	if result.LabelsChecked != 3 {
		t.Errorf("expected 3 labels, got %d", result.LabelsChecked)
	}
}

func TestCheckOrphans(t *testing.T) {
	t.Parallel()

	root := buildDataset(t, map[string]splitFiles{
		model.SplitTrain: {images: []string{"a.jpg", "b.jpg", "c.png"}, labels: []string{"a.txt", "z.txt"}},
		model.SplitVal:   {images: []string{}, labels: []string{}},
		model.SplitTest:  {images: []string{}, labels: []string{}},
	})

	result, err := NewChecker().Check(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK {
		t.Fatal("expected issues")
	}

	images := issuesOf(result.Issues, model.IssueOrphanedImage)
	if len(images) != 1 {
		t.Fatalf("expected 1 orphaned image issue, got %d", len(images))
	}
	if got := strings.Join(images[0].Files, ","); got != "b,c" {
		t.Errorf("expected orphaned images b,c, got %s", got)
	}
	if !strings.HasPrefix(images[0].Message, "2 image(s)") {
		t.Errorf("unexpected message %q", images[0].Message)
	}

	labels := issuesOf(result.Issues, model.IssueOrphanedLabel)
	if len(labels) != 1 || len(labels[0].Files) != 1 || labels[0].Files[0] != "z" {
		t.Errorf("expected orphaned label z, got %v", labels)
	}
}

func TestCheckMissingDirectories(t *testing.T) {
	t.Parallel()

	root := buildDataset(t, map[string]splitFiles{
		model.SplitTrain: {images: []string{"a.jpg"}},
		model.SplitVal:   {images: []string{}, labels: []string{}},
	})

	result, err := NewChecker().Check(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := issuesOf(result.Issues, model.IssueMissingDirectory)
	// labels/train, images/test, labels/test
	if len(missing) != 3 {
		t.Errorf("expected 3 missing directory issues, got %d: %v", len(missing), missing)
	}
	if n := len(issuesOf(result.Issues, model.IssueOrphanedImage)); n != 0 {
		t.Errorf("split with a missing directory must not be compared, got %d orphan issues", n)
	}
	if result.OK {
		t.Error("expected not OK")
	}
}

func TestCheckDuplicates(t *testing.T) {
	t.Parallel()

	root := buildDataset(t, map[string]splitFiles{
		model.SplitTrain: {images: []string{"a.jpg", "b.jpg"}, labels: []string{"a.txt", "b.txt"}},
		model.SplitVal:   {images: []string{}, labels: []string{}},
		model.SplitTest:  {images: []string{"t.jpg"}, labels: []string{"t.txt"}},
	})

	// Copy a.jpg into test to simulate leakage.
	data, err := os.ReadFile(filepath.Join(model.ImageDir(root, model.SplitTrain), "a.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(model.ImageDir(root, model.SplitTest), "t.jpg"), data, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()
		result, err := NewChecker().Check(context.Background(), root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.OK {
			t.Errorf("expected OK without duplicate check, got %v", result.Issues)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		result, err := NewChecker(WithDuplicates(true)).Check(context.Background(), root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dups := issuesOf(result.Issues, model.IssueDuplicateImage)
		if len(dups) != 1 {
			t.Fatalf("expected 1 duplicate issue, got %d", len(dups))
		}
		if len(dups[0].Files) != 2 {
			t.Errorf("expected 2 files in group, got %v", dups[0].Files)
		}
		if !strings.Contains(dups[0].Message, "across splits") {
			t.Errorf("expected cross-split note, got %q", dups[0].Message)
		}
	})
}

func TestWithMaxImageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int64
		want int64
	}{
		{name: "custom limit", n: 1024, want: 1024},
		{name: "zero keeps default", n: 0, want: DefaultMaxImageSize},
		{name: "negative keeps default", n: -1, want: DefaultMaxImageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewChecker(WithMaxImageSize(tt.n)).maxImageSize; got != tt.want {
				t.Errorf("maxImageSize = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadLimited(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("0123456789"), 0o600); err != nil {
		t.Fatal(err)
	}
	data, err := readLimited(path, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "0123" {
		t.Errorf("expected the first 4 bytes, got %q", data)
	}
}

func TestCheckMetadataWithoutExif(t *testing.T) {
	t.Parallel()

	root := buildDataset(t, map[string]splitFiles{
		model.SplitTrain: {images: []string{"a.jpg"}, labels: []string{"a.txt"}},
		model.SplitVal:   {images: []string{}, labels: []string{}},
		model.SplitTest:  {images: []string{}, labels: []string{}},
	})

	result, err := NewChecker(WithMetadata(true)).Check(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected OK for images without EXIF, got %v", result.Issues)
	}
}

func TestIdentifyingTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag      string
		want     bool
		category string
	}{
		{tag: "Artist", want: true, category: "author"},
		{tag: "BodySerialNumber", want: true, category: "device serial"},
		{tag: "GPSLatitude", want: true, category: "location"},
		{tag: "ImageWidth", want: false},
		{tag: "Orientation", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()
			category, ok := IdentifyingTag(tt.tag)
			if ok != tt.want {
				t.Errorf("IdentifyingTag(%q) = %v, want %v", tt.tag, ok, tt.want)
			}
			if category != tt.category {
				t.Errorf("category = %q, want %q", category, tt.category)
			}
		})
	}
}

func TestIdentifyingEntriesNoExif(t *testing.T) {
	t.Parallel()

	if tags := identifyingEntries([]byte("not an image")); len(tags) != 0 {
		t.Errorf("expected no tags, got %v", tags)
	}
}

func TestCheckCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecker().Check(ctx, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func issuesOf(issues []model.Issue, kind model.IssueKind) []model.Issue {
	var out []model.Issue
	for _, issue := range issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}
