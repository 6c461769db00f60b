package model

import "fmt"

// Strategy is the class-imbalance handling strategy passed to the trainer.
//
// The same three tiers were historically reported under two vocabularies
// (weighted_loss/focal_loss/oversampling and minor/moderate/severe).
// Strategy is the single canonical enumeration; Tier returns the second
// vocabulary for display.
type Strategy int

const (
	// StrategyWeightedLoss handles a minor imbalance by weighting the loss
	// with inverse class frequencies.
	StrategyWeightedLoss Strategy = iota

	// StrategyFocalLoss handles a moderate imbalance with focal loss.
	StrategyFocalLoss

	// StrategyOversampling handles a severe imbalance by duplicating
	// minority-class samples.
	StrategyOversampling
)

// Imbalance ratio thresholds. Each bound is inclusive on the lower side:
// a ratio of exactly ModerateImbalanceRatio is moderate and a ratio of
// exactly SevereImbalanceRatio is severe.
const (
	ModerateImbalanceRatio = 3.0
	SevereImbalanceRatio   = 10.0
)

// StrategyForRatio maps an imbalance ratio (max count / min count) to a
// strategy. It is monotonic: a larger ratio never yields a lower tier.
func StrategyForRatio(ratio float64) Strategy {
	switch {
	case ratio >= SevereImbalanceRatio:
		return StrategyOversampling
	case ratio >= ModerateImbalanceRatio:
		return StrategyFocalLoss
	default:
		return StrategyWeightedLoss
	}
}

// String returns the canonical strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyWeightedLoss:
		return "weighted_loss"
	case StrategyFocalLoss:
		return "focal_loss"
	case StrategyOversampling:
		return "oversampling"
	default:
		return "unknown"
	}
}

// Tier returns the imbalance tier name for the strategy.
func (s Strategy) Tier() string {
	switch s {
	case StrategyWeightedLoss:
		return "minor"
	case StrategyFocalLoss:
		return "moderate"
	case StrategyOversampling:
		return "severe"
	default:
		return "unknown"
	}
}

// ParseStrategy accepts either the canonical name or the tier name.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "weighted_loss", "minor":
		return StrategyWeightedLoss, nil
	case "focal_loss", "moderate":
		return StrategyFocalLoss, nil
	case "oversampling", "severe":
		return StrategyOversampling, nil
	default:
		return 0, fmt.Errorf("unknown imbalance strategy %q", s)
	}
}

// MarshalText encodes the strategy by its canonical name.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a canonical or tier name.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
