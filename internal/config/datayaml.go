package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/cxrbalance/internal/model"
)

// DataYAMLFile is the name of the dataset file read by the detection framework.
const DataYAMLFile = "data.yaml"

// DataYAML is the dataset description consumed by the detection framework.
type DataYAML struct {
	Path              string    `yaml:"path"`
	Train             string    `yaml:"train"`
	Val               string    `yaml:"val"`
	Test              string    `yaml:"test"`
	NC                int       `yaml:"nc"`
	Names             []string  `yaml:"names"`
	ImbalanceStrategy string    `yaml:"imbalance_strategy,omitempty"`
	ClassWeights      []float64 `yaml:"class_weights,omitempty"`
}

// NewDataYAML describes dataDir with the given class table. Names and
// weights are indexed by class id.
func NewDataYAML(dataDir string, classes model.ClassTable) DataYAML {
	ids := classes.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = classes.MustName(id)
	}
	return DataYAML{
		Path:  dataDir,
		Train: filepath.ToSlash(filepath.Join(model.ImagesDir, model.SplitTrain)),
		Val:   filepath.ToSlash(filepath.Join(model.ImagesDir, model.SplitVal)),
		Test:  filepath.ToSlash(filepath.Join(model.ImagesDir, model.SplitTest)),
		NC:    len(names),
		Names: names,
	}
}

// WithStrategy sets the imbalance strategy and the class weights in class
// id order. Weights for unknown ids are left out.
func (d DataYAML) WithStrategy(strategy model.Strategy, classes model.ClassTable, weights map[model.ClassID]float64) DataYAML {
	d.ImbalanceStrategy = strategy.String()
	d.ClassWeights = nil
	if len(weights) > 0 {
		for _, id := range classes.IDs() {
			d.ClassWeights = append(d.ClassWeights, weights[id])
		}
	}
	return d
}

// WriteDataYAML writes d to path, creating parent directories.
func WriteDataYAML(path string, d DataYAML) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode %s: %w", DataYAMLFile, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", DataYAMLFile, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadDataYAML reads a data.yaml file.
func ReadDataYAML(path string) (*DataYAML, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided dataset path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var d DataYAML
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &d, nil
}
