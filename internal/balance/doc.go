// Package balance measures class imbalance in a YOLO detection dataset.
//
// It aggregates annotation counts across the train, val and test splits,
// computes the imbalance ratio (most frequent / least frequent class),
// selects an imbalance strategy from that ratio, derives inverse-frequency
// class weights for the trainer and compares the counts with a target
// balance.
//
// Data problems never abort an analysis. Missing directories, unreadable
// files, malformed lines and unknown class ids are accumulated as
// model.Issue values so that one pass reports every problem. A class with
// zero samples makes the ratio and the weights undefined; those operations
// return an InsufficientClassDataError instead of dividing by zero.
package balance
