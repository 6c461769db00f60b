package database

import (
	"sort"
	"time"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Balance directions between two runs.
const (
	DirectionImproved  = "improved"
	DirectionWorsened  = "worsened"
	DirectionUnchanged = "unchanged"
	DirectionUnknown   = "unknown"
)

// RunSummary holds the headline numbers of one run in a comparison.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	DateAnalyzed   time.Time `json:"date_analyzed"`
	Total          int       `json:"total"`
	ImbalanceRatio float64   `json:"imbalance_ratio"`
	Strategy       string    `json:"strategy"`
}

// ClassDelta is the count change of one class between two runs.
type ClassDelta struct {
	ID       model.ClassID `json:"id"`
	Class    string        `json:"class"`
	Previous int           `json:"previous"`
	Current  int           `json:"current"`
	Delta    int           `json:"delta"`
}

// Comparison describes how a dataset changed between two analysis runs.
type Comparison struct {
	Dataset         string       `json:"dataset"`
	Previous        RunSummary   `json:"previous"`
	Current         RunSummary   `json:"current"`
	Classes         []ClassDelta `json:"classes"`
	StrategyChanged bool         `json:"strategy_changed"`

	// Direction tells whether the imbalance ratio went down (improved)
	// or up (worsened). It is unknown when either ratio is undefined.
	Direction string `json:"direction"`
}

func summarize(report *model.AnalysisReport) RunSummary {
	return RunSummary{
		RunID:          report.RunID,
		DateAnalyzed:   report.DateAnalyzed,
		Total:          report.TotalAnnotations(),
		ImbalanceRatio: report.ImbalanceRatio,
		Strategy:       report.StrategyName(),
	}
}

// Compare computes per-class count deltas between two runs of a dataset.
// Class names come from the current run's class table; ids present in only
// one run are still listed.
func Compare(previous, current *model.AnalysisReport) *Comparison {
	result := &Comparison{
		Dataset:  current.Dataset,
		Previous: summarize(previous),
		Current:  summarize(current),
	}
	result.StrategyChanged = result.Previous.Strategy != result.Current.Strategy

	seen := make(map[model.ClassID]bool)
	var ids []model.ClassID
	for _, counts := range []model.CountTable{current.Counts, previous.Counts} {
		for id := range counts {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name := current.Classes.DisplayName(id)
		if !current.Classes.Contains(id) && previous.Classes.Contains(id) {
			name = previous.Classes.DisplayName(id)
		}
		prev, cur := previous.Counts[id], current.Counts[id]
		result.Classes = append(result.Classes, ClassDelta{
			ID:       id,
			Class:    name,
			Previous: prev,
			Current:  cur,
			Delta:    cur - prev,
		})
	}

	switch {
	case previous.Strategy == nil || current.Strategy == nil:
		result.Direction = DirectionUnknown
	case current.ImbalanceRatio < previous.ImbalanceRatio:
		result.Direction = DirectionImproved
	case current.ImbalanceRatio > previous.ImbalanceRatio:
		result.Direction = DirectionWorsened
	default:
		result.Direction = DirectionUnchanged
	}

	return result
}
