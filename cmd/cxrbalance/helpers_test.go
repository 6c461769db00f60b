package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/cxrbalance/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeSample writes a paired image and label into root/<kind>/<split>.
// An empty label skips the label file.
func writeSample(t *testing.T, root, split, base, label string) {
	t.Helper()
	imageDir := model.ImageDir(root, split)
	labelDir := model.LabelDir(root, split)
	for _, dir := range []string{imageDir, labelDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(imageDir, base+".png"), []byte(base), 0o600); err != nil {
		t.Fatal(err)
	}
	if label == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(labelDir, base+".txt"), []byte(label), 0o600); err != nil {
		t.Fatal(err)
	}
}

// writeDataset builds a clean dataset with 3 clavicle fractures, one
// foreign body and 3 normal annotations (ratio 3, focal loss).
func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeSample(t, root, model.SplitTrain, "a", "0 0.5 0.5 0.1 0.1\n0 0.4 0.4 0.1 0.1\n1 0.3 0.3 0.2 0.2\n")
	writeSample(t, root, model.SplitVal, "b", "0 0.5 0.5 0.1 0.1\n")
	writeSample(t, root, model.SplitTest, "c", "2 0.1 0.1 0.1 0.1\n2 0.2 0.2 0.1 0.1\n2 0.3 0.3 0.1 0.1\n")
	return root
}

// writeConfig writes a dataset configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cxrbalance.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
