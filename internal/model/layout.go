package model

import (
	"path/filepath"
	"strings"
)

// Dataset split names.
const (
	SplitTrain = "train"
	SplitVal   = "val"
	SplitTest  = "test"
)

// Splits lists the dataset splits in processing order.
var Splits = []string{SplitTrain, SplitVal, SplitTest}

// Directory names of the YOLO dataset layout.
const (
	ImagesDir = "images"
	LabelsDir = "labels"
)

// imageExtensions are the recognized image file extensions (lower case).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImageFile reports whether name has a recognized image extension.
// The comparison is case-insensitive.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Basename strips the extension from a file name.
func Basename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ImageDir returns <root>/images/<split>.
func ImageDir(root, split string) string {
	return filepath.Join(root, ImagesDir, split)
}

// LabelDir returns <root>/labels/<split>.
func LabelDir(root, split string) string {
	return filepath.Join(root, LabelsDir, split)
}
