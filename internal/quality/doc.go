// Package quality checks the integrity of a YOLO dataset.
//
// The base check pairs every image of images/<split> with a label file of
// the same basename in labels/<split> and reports orphans on either side.
// Two optional checks are available: duplicate image content across splits,
// which leaks training images into evaluation, and EXIF metadata that may
// identify a patient, an operator or a device.
package quality
