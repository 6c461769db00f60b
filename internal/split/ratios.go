package split

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRatios is returned when split ratios are not finite, are
// negative or do not sum to one.
var ErrInvalidRatios = errors.New("invalid split ratios")

// ratioTolerance bounds floating point error in ratio sums and products.
const ratioTolerance = 1e-9

// Ratios are the fractions of a dataset assigned to each split.
type Ratios struct {
	Train float64 `json:"train" yaml:"train"`
	Val   float64 `json:"val" yaml:"val"`
	Test  float64 `json:"test" yaml:"test"`
}

// DefaultRatios returns the 70/15/15 split.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.7, Val: 0.15, Test: 0.15}
}

// Validate checks that every ratio is a finite non-negative number and that
// they sum to 1.
func (r Ratios) Validate() error {
	for _, v := range []float64{r.Train, r.Val, r.Test} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: ratios must be finite (train=%g val=%g test=%g)", ErrInvalidRatios, r.Train, r.Val, r.Test)
		}
	}
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return fmt.Errorf("%w: ratios must be non-negative (train=%g val=%g test=%g)", ErrInvalidRatios, r.Train, r.Val, r.Test)
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1) > ratioTolerance {
		return fmt.Errorf("%w: ratios must sum to 1, got %g", ErrInvalidRatios, sum)
	}
	return nil
}

// Sizes returns the number of items of each split for n items.
// train = floor(n*Train); the remainder is shared between val and test in
// proportion to their ratios, val rounding down.
func (r Ratios) Sizes(n int) (train, val, test int) {
	train = int(math.Floor(float64(n)*r.Train + ratioTolerance))
	train = min(max(train, 0), n)
	rest := n - train

	if share := r.Val + r.Test; share > 0 {
		val = int(math.Floor(float64(rest)*r.Val/share + ratioTolerance))
		val = min(max(val, 0), rest)
	}
	test = rest - val
	return train, val, test
}
