package balance

import (
	"sort"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Recommend compares the current counts with the target balance.
// Targets are keyed by class name and matched to counts through the class
// table; a target class missing from the table counts as zero.
// Recommendations follow the class table order, then the remaining target
// names alphabetically.
func Recommend(counts model.CountTable, classes model.ClassTable, targets map[string]int) []model.Recommendation {
	names := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, name := range classes.Names() {
		if _, ok := targets[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range targets {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	recommendations := make([]model.Recommendation, 0, len(names))
	for _, name := range names {
		target := targets[name]
		current := 0
		if id, ok := classes.Lookup(name); ok {
			current = counts[id]
		}
		needed := target - current

		action := model.ActionOptimal
		switch {
		case needed > 0:
			action = model.ActionAdd
		case needed < 0:
			action = model.ActionReduce
		}

		recommendations = append(recommendations, model.Recommendation{
			Class:   name,
			Current: current,
			Target:  target,
			Needed:  needed,
			Action:  action,
		})
	}
	return recommendations
}
