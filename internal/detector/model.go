package detector

import (
	"context"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Training defaults used by the train command.
const (
	DefaultEpochs    = 50
	DefaultImageSize = 640
	DefaultBatch     = 16
	DefaultPatience  = 10
)

// Model is the remote detection model.
type Model interface {
	// Train fits the model on the dataset described by req.
	Train(ctx context.Context, req TrainRequest) (model.Metrics, error)

	// Validate evaluates the model on one split of a dataset.
	Validate(ctx context.Context, req ValidateRequest) (model.Metrics, error)

	// Predict runs inference on a single image. An image without any
	// detection yields exactly one normal detection with confidence 1.0.
	Predict(ctx context.Context, imagePath string, conf float64) ([]model.Detection, error)
}

// TrainRequest carries the dataset and hyperparameters of a training run.
type TrainRequest struct {
	// DataYAML is the path of the dataset description file.
	DataYAML string `json:"data"`

	Epochs    int `json:"epochs"`
	ImageSize int `json:"imgsz"`
	Batch     int `json:"batch"`
	Patience  int `json:"patience"`

	// Strategy is the imbalance strategy name, empty when undetermined.
	Strategy string `json:"imbalance_strategy,omitempty"`

	// ClassWeights are indexed by class id.
	ClassWeights []float64 `json:"class_weights,omitempty"`
}

// NewTrainRequest returns a request with the default hyperparameters.
func NewTrainRequest(dataYAML string) TrainRequest {
	return TrainRequest{
		DataYAML:  dataYAML,
		Epochs:    DefaultEpochs,
		ImageSize: DefaultImageSize,
		Batch:     DefaultBatch,
		Patience:  DefaultPatience,
	}
}

// WithImbalance sets the strategy and the class weights ordered by id.
// Classes without a weight get 1.0.
func (r TrainRequest) WithImbalance(strategy *model.Strategy, classes model.ClassTable, weights map[model.ClassID]float64) TrainRequest {
	if strategy != nil {
		r.Strategy = strategy.String()
	}
	if len(weights) > 0 {
		r.ClassWeights = make([]float64, len(classes))
		for i, id := range classes.IDs() {
			w, ok := weights[id]
			if !ok {
				w = 1.0
			}
			r.ClassWeights[i] = w
		}
	}
	return r
}

// ValidateRequest selects the dataset split to evaluate.
type ValidateRequest struct {
	DataYAML string `json:"data"`
	Split    string `json:"split"`

	// ModelPath optionally names trained weights; empty means the
	// service's current model.
	ModelPath string `json:"model,omitempty"`
}
