package balance

import "github.com/nao1215/cxrbalance/internal/model"

// Weights computes inverse-frequency class weights:
//
//	weight[c] = total / (num_classes * count[c])
//
// so that sum(weight[c] * count[c]) == total. A class with zero samples
// yields an InsufficientClassDataError.
func Weights(counts model.CountTable) (map[model.ClassID]float64, error) {
	if err := checkCounts(counts); err != nil {
		return nil, err
	}

	total := float64(counts.Total())
	numClasses := float64(len(counts))

	weights := make(map[model.ClassID]float64, len(counts))
	for id, n := range counts {
		weights[id] = total / (numClasses * float64(n))
	}
	return weights, nil
}
