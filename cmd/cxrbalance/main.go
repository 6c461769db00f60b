// Package main provides the entry point for the cxrbalance CLI.
//
// cxrbalance audits and prepares YOLO-format chest X-ray detection datasets:
// it counts annotations per class, measures the class imbalance, selects a
// training strategy with class weights, checks that images and labels pair
// up, splits raw data into train/val/test and drives an external detection
// model service.
//
// Usage:
//
//	cxrbalance analyze [data-dir...]
//	cxrbalance split <source-dir> <dest-dir>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
