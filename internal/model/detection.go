package model

import "fmt"

// BoundingBox is a detection box in pixel coordinates (x1, y1, x2, y2).
type BoundingBox [4]float64

// String formats the box for CSV output.
func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.1f %.1f %.1f %.1f]", b[0], b[1], b[2], b[3])
}

// Detection is one object found by the detection model.
type Detection struct {
	// Image is the basename of the analyzed image.
	Image string `json:"image,omitempty"`

	// ClassID is the predicted class index.
	ClassID ClassID `json:"class_id"`

	// Class is the predicted class name.
	Class string `json:"class"`

	// Confidence is the model score in [0, 1].
	Confidence float64 `json:"confidence"`

	// BBox is nil when the image was classified as normal without a box.
	BBox *BoundingBox `json:"bbox,omitempty"`
}

// Metrics are the box metrics reported by the detection framework.
type Metrics struct {
	MAP50     float64 `json:"map50"`
	MAP5095   float64 `json:"map50_95"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`

	// ModelPath is the trained weights location, set by training only.
	ModelPath string `json:"model_path,omitempty"`
}
