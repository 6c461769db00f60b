package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/cxrbalance/internal/config"
	"github.com/nao1215/cxrbalance/internal/model"
)

// writeSample writes a paired image and label into root/<kind>/<split>.
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
	if err := os.WriteFile(filepath.Join(labelDir, base+".txt"), []byte(label), 0o600); err != nil {
		t.Fatal(err)
	}
}

func defaultConfig() DefaultPipelineConfig {
	return DefaultPipelineConfig{
		Classes: model.DefaultClassTable(),
		Targets: config.DefaultTargets(),
	}
}

func TestDefaultPipelineSteps(t *testing.T) {
	t.Parallel()

	p := DefaultPipeline(defaultConfig(), nil)
	want := []string{StepCount, StepQuality, StepStrategy, StepWeights, StepRecommend}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, got[i], want[i])
		}
	}

	cfg := defaultConfig()
	cfg.SkipQuality = true
	cfg.WriteDataYAML = true
	names := DefaultPipeline(cfg, nil).StepNames()
	if names[1] != StepStrategy || names[len(names)-1] != StepDataYAML {
		t.Errorf("unexpected steps %v", names)
	}
}

func TestDefaultPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSample(t, root, model.SplitTrain, "a", "0 0.5 0.5 0.1 0.1\n0 0.4 0.4 0.1 0.1\n1 0.3 0.3 0.2 0.2\n")
	writeSample(t, root, model.SplitVal, "b", "0 0.5 0.5 0.1 0.1\n")
	writeSample(t, root, model.SplitTest, "c", "2 0.1 0.1 0.1 0.1\n2 0.2 0.2 0.1 0.1\n2 0.3 0.3 0.1 0.1\n")

	cfg := defaultConfig()
	cfg.WriteDataYAML = true
	report := model.NewAnalysisReport(root, cfg.Classes)
	if err := DefaultPipeline(cfg, nil).Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Error != nil {
		t.Fatalf("unexpected step error: %v", report.Error)
	}
	if report.TotalAnnotations() != 7 {
		t.Errorf("expected 7 annotations, got %d", report.TotalAnnotations())
	}
	if math.Abs(report.ImbalanceRatio-3.0) > 1e-9 {
		t.Errorf("expected ratio 3, got %f", report.ImbalanceRatio)
	}
	if report.StrategyName() != "focal_loss" {
		t.Errorf("expected focal_loss, got %s", report.StrategyName())
	}
	if math.Abs(report.Weights[1]-7.0/3.0) > 1e-9 {
		t.Errorf("unexpected weight for class 1: %f", report.Weights[1])
	}
	if !report.QualityChecked || !report.QualityOK {
		t.Errorf("expected a clean quality check, issues: %v", report.Issues)
	}
	if len(report.Recommendations) != 3 {
		t.Errorf("expected 3 recommendations, got %d", len(report.Recommendations))
	}
	if len(report.PerformedSteps) != 6 {
		t.Errorf("expected 6 performed steps, got %v", report.PerformedSteps)
	}

	d, err := config.ReadDataYAML(filepath.Join(root, config.DataYAMLFile))
	if err != nil {
		t.Fatalf("data.yaml not written: %v", err)
	}
	if d.ImbalanceStrategy != "focal_loss" || len(d.ClassWeights) != 3 {
		t.Errorf("unexpected data.yaml %+v", d)
	}
}

func TestDefaultPipelineZeroCountClass(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSample(t, root, model.SplitTrain, "a", "0\n2\n")
	writeSample(t, root, model.SplitVal, "b", "2\n")

	report := model.NewAnalysisReport(root, model.DefaultClassTable())
	if err := DefaultPipeline(defaultConfig(), nil).Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Error != nil {
		t.Errorf("zero-count class must not fail a step: %v", report.Error)
	}
	if report.Strategy != nil || report.Weights != nil {
		t.Error("expected strategy and weights to stay undefined")
	}
	if report.StrategyName() != "undetermined" {
		t.Errorf("unexpected strategy name %q", report.StrategyName())
	}

	insufficient := report.IssuesByKind(model.IssueInsufficientClassData)
	if len(insufficient) != 1 {
		t.Fatalf("expected one insufficient_class_data issue, got %d", len(insufficient))
	}
	if len(insufficient[0].Files) != 1 || insufficient[0].Files[0] != model.ClassForeignBodyBronchus {
		t.Errorf("expected foreign_body_bronchus reported, got %v", insufficient[0].Files)
	}

	missing := report.IssuesByKind(model.IssueMissingDirectory)
	// labels/test from counting, images/test from the quality check.
	if len(missing) != 2 {
		t.Errorf("expected 2 missing directory issues without duplicates, got %v", missing)
	}
}

func TestQualityStepDeduplicates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	report := model.NewAnalysisReport(root, model.DefaultClassTable())
	if err := NewCountStep(report.Classes, nil).Do(context.Background(), report); err != nil {
		t.Fatal(err)
	}
	before := len(report.Issues)
	if before != 3 {
		t.Fatalf("expected 3 missing label directories, got %d", before)
	}

	if err := NewQualityStep().Do(context.Background(), report); err != nil {
		t.Fatal(err)
	}
	// Only the three image directories are new.
	if len(report.Issues) != before+3 {
		t.Errorf("expected %d issues, got %d", before+3, len(report.Issues))
	}
	if report.QualityOK {
		t.Error("expected quality not OK")
	}
}
