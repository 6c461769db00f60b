// Package labels reads YOLO-format annotation files.
//
// Each image has one plain-text label file with one annotation per line:
//
//	<class_id> <x_center> <y_center> <width> <height>
//
// Coordinates are normalized to the image size. Blank lines are ignored.
// A line whose class id is missing or non-numeric is reported as a
// ParseError and is not counted; the rest of the file is still read.
package labels
