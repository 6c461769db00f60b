package balance

import "github.com/nao1215/cxrbalance/internal/model"

// ImbalanceRatio returns max(count) / min(count) over the supplied table.
// Every entry of the table takes part, so a class with zero samples yields
// an InsufficientClassDataError.
func ImbalanceRatio(counts model.CountTable) (float64, error) {
	if err := checkCounts(counts); err != nil {
		return 0, err
	}

	first := true
	var lowest, highest int
	for _, n := range counts {
		if first {
			lowest, highest = n, n
			first = false
			continue
		}
		lowest = min(lowest, n)
		highest = max(highest, n)
	}

	return float64(highest) / float64(lowest), nil
}

// SelectStrategy computes the imbalance ratio and maps it to a strategy
// through model.StrategyForRatio.
func SelectStrategy(counts model.CountTable) (model.Strategy, float64, error) {
	ratio, err := ImbalanceRatio(counts)
	if err != nil {
		return 0, 0, err
	}
	return model.StrategyForRatio(ratio), ratio, nil
}
