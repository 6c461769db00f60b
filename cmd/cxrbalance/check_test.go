package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/cxrbalance/internal/model"
	"github.com/nao1215/cxrbalance/internal/quality"
)

func TestRunCheckCmd(t *testing.T) {
	t.Parallel()

	t.Run("clean dataset", func(t *testing.T) {
		t.Parallel()
		root := writeDataset(t)

		var buf bytes.Buffer
		cmd := NewCheckCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{root})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No issues found.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("missing label", func(t *testing.T) {
		t.Parallel()
		root := writeDataset(t)
		writeSample(t, root, model.SplitTrain, "orphan", "")

		var buf bytes.Buffer
		cmd := NewCheckCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{root})
		err := cmd.Execute()
		if !errors.Is(err, quality.ErrQualityIssues) {
			t.Fatalf("expected ErrQualityIssues, got %v", err)
		}
		if !strings.Contains(buf.String(), "orphan") {
			t.Errorf("expected the orphan image to be listed, got %q", buf.String())
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()
		root := writeDataset(t)

		var buf bytes.Buffer
		cmd := NewCheckCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--json", root})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var result quality.Result
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !result.OK || result.ImagesChecked != 3 || result.LabelsChecked != 3 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("metadata with a read limit", func(t *testing.T) {
		t.Parallel()
		root := writeDataset(t)

		cmd := NewCheckCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--metadata", "--max-image-size", "16", root})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-positive read limit", func(t *testing.T) {
		t.Parallel()
		root := writeDataset(t)

		cmd := NewCheckCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--max-image-size", "0", root})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for a zero read limit")
		}
	})
}
