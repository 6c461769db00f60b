package config

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/nao1215/cxrbalance/internal/model"
	"github.com/nao1215/cxrbalance/internal/split"
)

// Detector defaults.
const (
	// DefaultDetectorURL is the address of the local inference service.
	DefaultDetectorURL = "http://127.0.0.1:8000"

	// DefaultConfidence is the minimum detection confidence.
	DefaultConfidence = 0.5

	// DefaultDetectorTimeout bounds a single inference request. Training
	// requests use their own, longer deadline.
	DefaultDetectorTimeout = 60 * time.Second

	// DefaultDetectorRetries is the number of retries after a failed request.
	DefaultDetectorRetries = 3

	// DefaultSplitSeed seeds the stratified shuffle.
	DefaultSplitSeed = 42
)

// File represents the structure of the .cxrbalance configuration file.
type File struct {
	// Classes is the class table of the dataset (index → name).
	Classes model.ClassTable `yaml:"classes"`

	// Targets maps class names to the desired number of annotations.
	Targets map[string]int `yaml:"targets"`

	// Split configures the splitter.
	Split SplitConfig `yaml:"split"`

	// Detector configures the remote detection model service.
	Detector DetectorConfig `yaml:"detector"`
}

// SplitConfig holds the split ratios and the stratification settings.
type SplitConfig struct {
	Train      float64 `yaml:"train"`
	Val        float64 `yaml:"val"`
	Test       float64 `yaml:"test"`
	Seed       uint64  `yaml:"seed"`
	Stratified bool    `yaml:"stratified"`
}

// Ratios returns the split ratios.
func (s SplitConfig) Ratios() split.Ratios {
	return split.Ratios{Train: s.Train, Val: s.Val, Test: s.Test}
}

// DetectorConfig holds the connection settings of the detection service.
type DetectorConfig struct {
	// URL is the base URL of the service.
	URL string `yaml:"url"`

	// Confidence is the minimum detection confidence in [0, 1].
	Confidence float64 `yaml:"confidence"`

	// Timeout bounds a single inference request ("60s", "2m").
	Timeout time.Duration `yaml:"timeout"`

	// Retries is the number of retries on transport errors and 5xx responses.
	Retries int `yaml:"retries"`
}

// DefaultTargets returns the default target balance.
func DefaultTargets() map[string]int {
	return map[string]int{
		model.ClassNormal:              250,
		model.ClassClavicleFracture:    125,
		model.ClassForeignBodyBronchus: 85,
	}
}

// DefaultFile returns the built-in dataset configuration.
func DefaultFile() *File {
	ratios := split.DefaultRatios()
	return &File{
		Classes: model.DefaultClassTable(),
		Targets: DefaultTargets(),
		Split: SplitConfig{
			Train:      ratios.Train,
			Val:        ratios.Val,
			Test:       ratios.Test,
			Seed:       DefaultSplitSeed,
			Stratified: true,
		},
		Detector: DetectorConfig{
			URL:        DefaultDetectorURL,
			Confidence: DefaultConfidence,
			Timeout:    DefaultDetectorTimeout,
			Retries:    DefaultDetectorRetries,
		},
	}
}

// Validate checks every section of the file.
func (f *File) Validate() error {
	if err := validateClasses(f.Classes); err != nil {
		return err
	}
	if err := validateTargets(f.Targets); err != nil {
		return err
	}
	if err := f.Split.Ratios().Validate(); err != nil {
		return err
	}
	return f.Detector.Validate()
}

// validateClasses requires ids 0..n-1 and unique, known names.
func validateClasses(classes model.ClassTable) error {
	if len(classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidClasses)
	}

	ids := make([]int, 0, len(classes))
	names := make(map[string]bool, len(classes))
	for _, c := range classes {
		if !model.IsKnownClassName(c.Name) {
			return fmt.Errorf("%w: unknown class name %q", ErrInvalidClasses, c.Name)
		}
		if names[c.Name] {
			return fmt.Errorf("%w: duplicate class name %q", ErrInvalidClasses, c.Name)
		}
		names[c.Name] = true
		ids = append(ids, int(c.ID))
	}

	sort.Ints(ids)
	for i, id := range ids {
		if id != i {
			return fmt.Errorf("%w: class ids must be 0..%d without gaps or duplicates", ErrInvalidClasses, len(classes)-1)
		}
	}
	return nil
}

func validateTargets(targets map[string]int) error {
	for name, n := range targets {
		if !model.IsKnownClassName(name) {
			return fmt.Errorf("%w: unknown class %q", ErrInvalidTargets, name)
		}
		if n < 0 {
			return fmt.Errorf("%w: target for %s must be non-negative, got %d", ErrInvalidTargets, name, n)
		}
	}
	return nil
}

// Validate checks the detector settings.
func (d DetectorConfig) Validate() error {
	u, err := url.Parse(d.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an http(s) URL, got %q", ErrInvalidDetector, d.URL)
	}
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be within [0, 1], got %g", ErrInvalidDetector, d.Confidence)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidDetector)
	}
	if d.Retries < 0 {
		return fmt.Errorf("%w: retries must be non-negative", ErrInvalidDetector)
	}
	return nil
}
