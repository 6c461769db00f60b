package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/cxrbalance/internal/model"
)

// writeFlatSource creates <root>/images and <root>/labels with n labelled
// clavicle fracture images and one image without a label.
func writeFlatSource(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	imageDir := filepath.Join(root, model.ImagesDir)
	labelDir := filepath.Join(root, model.LabelsDir)
	for _, dir := range []string{imageDir, labelDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
	}
	for i := range n {
		name := fmt.Sprintf("p%03d", i)
		if err := os.WriteFile(filepath.Join(imageDir, name+".png"), []byte(name), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(labelDir, name+".txt"), []byte("0 0.5 0.5 0.1 0.1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(imageDir, "unlabelled.png"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	return root
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	return len(entries)
}

func TestRunSplitCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		extra []string
		mode  string
	}{
		{name: "stratified", extra: nil, mode: "stratified (seed 42)"},
		{name: "positional", extra: []string{"--positional"}, mode: "positional"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := writeFlatSource(t, 20)
			dst := filepath.Join(t.TempDir(), "out")
			cfgPath := writeConfig(t, "split:\n  seed: 42\n")

			var buf bytes.Buffer
			cmd := NewSplitCmd()
			cmd.SetOut(&buf)
			cmd.SetArgs(append([]string{"--config", cfgPath, src, dst}, tt.extra...))
			if err := cmd.Execute(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			images, labels := 0, 0
			for _, s := range model.Splits {
				images += countFiles(t, model.ImageDir(dst, s))
				labels += countFiles(t, model.LabelDir(dst, s))
			}
			if images != 21 {
				t.Errorf("expected 21 images copied, got %d", images)
			}
			if labels != 20 {
				t.Errorf("expected 20 labels copied, got %d", labels)
			}

			output := buf.String()
			if !strings.Contains(output, tt.mode) {
				t.Errorf("expected mode %q in output %q", tt.mode, output)
			}
			if !strings.Contains(output, "unlabelled.png") {
				t.Errorf("expected the unlabelled image to be reported, got %q", output)
			}
		})
	}
}

func TestRunSplitCmdInvalidRatios(t *testing.T) {
	t.Parallel()

	src := writeFlatSource(t, 4)
	cmd := NewSplitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", writeConfig(t, ""), "--train", "0.9", src, t.TempDir()})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for ratios that do not sum to 1")
	}
}
