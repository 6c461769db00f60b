// Package split partitions a flat image collection into train, val and
// test splits and materializes the YOLO directory layout.
//
// Positional keeps the caller's order and cuts it by ratio. Stratified
// groups images by their dominant class and cuts each group separately
// after a seeded shuffle, so that rare classes reach every split.
package split
