package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nao1215/cxrbalance/internal/balance"
	"github.com/nao1215/cxrbalance/internal/config"
	"github.com/nao1215/cxrbalance/internal/model"
	"github.com/nao1215/cxrbalance/internal/quality"
)

// Step names.
const (
	StepCount     = "count"
	StepQuality   = "quality"
	StepStrategy  = "strategy"
	StepWeights   = "weights"
	StepRecommend = "recommend"
	StepDataYAML  = "data_yaml"
)

// CountStep reads every label file and fills the count tables.
type CountStep struct {
	analyzer *balance.Analyzer
}

// NewCountStep creates a counting step for the given class table.
func NewCountStep(classes model.ClassTable, logger *slog.Logger) *CountStep {
	return &CountStep{
		analyzer: balance.NewAnalyzer(classes, balance.WithAnalyzerLogger(logger)),
	}
}

// Name returns the step name.
func (s *CountStep) Name() string {
	return StepCount
}

// Do counts annotations and records data issues.
func (s *CountStep) Do(ctx context.Context, report *model.AnalysisReport) error {
	analysis, err := s.analyzer.Analyze(ctx, report.Dataset)
	if err != nil {
		return err
	}
	report.Counts = analysis.Counts
	report.SplitCounts = analysis.SplitCounts
	report.LabelFiles = analysis.LabelFiles
	report.AddIssues(analysis.Issues...)
	return nil
}

// QualityStep pairs images with labels and runs the optional checks.
type QualityStep struct {
	checker *quality.Checker
}

// NewQualityStep creates a quality step.
func NewQualityStep(opts ...quality.Option) *QualityStep {
	return &QualityStep{checker: quality.NewChecker(opts...)}
}

// Name returns the step name.
func (s *QualityStep) Name() string {
	return StepQuality
}

// Do runs the quality check. Issues already reported by an earlier step
// (a missing labels directory, for example) are not repeated.
func (s *QualityStep) Do(ctx context.Context, report *model.AnalysisReport) error {
	result, err := s.checker.Check(ctx, report.Dataset)
	if err != nil {
		return err
	}
	report.QualityChecked = true
	report.QualityOK = result.OK
	for _, issue := range result.Issues {
		if !hasIssue(report, issue) {
			report.AddIssue(issue)
		}
	}
	return nil
}

func hasIssue(report *model.AnalysisReport, issue model.Issue) bool {
	for _, existing := range report.Issues {
		if existing.Kind == issue.Kind && existing.Split == issue.Split && existing.Path == issue.Path && existing.Line == issue.Line {
			return true
		}
	}
	return false
}

// StrategyStep computes the imbalance ratio and selects a strategy.
type StrategyStep struct{}

// NewStrategyStep creates a strategy step.
func NewStrategyStep() *StrategyStep {
	return &StrategyStep{}
}

// Name returns the step name.
func (s *StrategyStep) Name() string {
	return StepStrategy
}

// Do selects the strategy. A class without samples leaves the strategy
// undetermined and records an insufficient_class_data issue.
func (s *StrategyStep) Do(_ context.Context, report *model.AnalysisReport) error {
	strategy, ratio, err := balance.SelectStrategy(report.Counts)
	if err != nil {
		return recordInsufficient(report, err)
	}
	report.ImbalanceRatio = ratio
	report.Strategy = &strategy
	return nil
}

// WeightsStep computes inverse-frequency class weights.
type WeightsStep struct{}

// NewWeightsStep creates a weights step.
func NewWeightsStep() *WeightsStep {
	return &WeightsStep{}
}

// Name returns the step name.
func (s *WeightsStep) Name() string {
	return StepWeights
}

// Do computes the weights. A class without samples leaves them unset.
func (s *WeightsStep) Do(_ context.Context, report *model.AnalysisReport) error {
	weights, err := balance.Weights(report.Counts)
	if err != nil {
		return recordInsufficient(report, err)
	}
	report.Weights = weights
	return nil
}

// recordInsufficient turns an InsufficientClassDataError into a single
// report issue and passes any other error through.
func recordInsufficient(report *model.AnalysisReport, err error) error {
	var insufficient *balance.InsufficientClassDataError
	if errors.As(err, &insufficient) {
		if len(report.IssuesByKind(model.IssueInsufficientClassData)) == 0 {
			names := make([]string, len(insufficient.Classes))
			for i, id := range insufficient.Classes {
				names[i] = report.Classes.MustName(id)
			}
			report.AddIssue(model.Issue{
				Kind:    model.IssueInsufficientClassData,
				Message: fmt.Sprintf("no samples for %s: imbalance ratio and class weights are undefined", strings.Join(names, ", ")),
				Files:   names,
			})
		}
		return nil
	}
	if errors.Is(err, balance.ErrEmptyCountTable) {
		return nil
	}
	return err
}

// RecommendStep compares counts with the target balance.
type RecommendStep struct {
	targets map[string]int
}

// NewRecommendStep creates a recommendation step.
func NewRecommendStep(targets map[string]int) *RecommendStep {
	return &RecommendStep{targets: targets}
}

// Name returns the step name.
func (s *RecommendStep) Name() string {
	return StepRecommend
}

// Do fills report.Recommendations.
func (s *RecommendStep) Do(_ context.Context, report *model.AnalysisReport) error {
	report.Recommendations = balance.Recommend(report.Counts, report.Classes, s.targets)
	return nil
}

// DataYAMLStep writes data.yaml into the dataset root with the selected
// strategy and weights.
type DataYAMLStep struct{}

// NewDataYAMLStep creates a data.yaml step.
func NewDataYAMLStep() *DataYAMLStep {
	return &DataYAMLStep{}
}

// Name returns the step name.
func (s *DataYAMLStep) Name() string {
	return StepDataYAML
}

// Do writes the file. Without a strategy the file is written without
// imbalance_strategy and class_weights.
func (s *DataYAMLStep) Do(_ context.Context, report *model.AnalysisReport) error {
	d := config.NewDataYAML(report.Dataset, report.Classes)
	if report.Strategy != nil {
		d = d.WithStrategy(*report.Strategy, report.Classes, report.Weights)
	}
	return config.WriteDataYAML(filepath.Join(report.Dataset, config.DataYAMLFile), d)
}

// DefaultPipelineConfig selects the steps of the default pipeline.
type DefaultPipelineConfig struct {
	Classes         model.ClassTable
	Targets         map[string]int
	SkipQuality     bool
	CheckDuplicates bool
	CheckMetadata   bool
	WriteDataYAML   bool
}

// DefaultPipeline creates a pipeline with the standard analysis steps:
// count, quality, strategy, weights, recommend and optionally data_yaml.
// Steps continue after a failure so that one report shows every problem.
func DefaultPipeline(cfg DefaultPipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := New(WithLogger(logger), WithContinueOnError(true))

	p.AddStep(NewCountStep(cfg.Classes, logger))
	if !cfg.SkipQuality {
		p.AddStep(NewQualityStep(
			quality.WithDuplicates(cfg.CheckDuplicates),
			quality.WithMetadata(cfg.CheckMetadata),
			quality.WithLogger(logger),
		))
	}
	p.AddSteps(
		NewStrategyStep(),
		NewWeightsStep(),
		NewRecommendStep(cfg.Targets),
	)
	if cfg.WriteDataYAML {
		p.AddStep(NewDataYAMLStep())
	}
	return p
}
