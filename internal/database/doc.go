// Package database stores analysis history in SQLite.
//
// Every analysis run is saved as one row of the analyses table holding the
// full report as JSON next to the dataset path, the run timestamp, the
// merged class counts and the selected strategy. The history command reads
// the rows back to list past runs and compare the two most recent ones.
//
// The driver is modernc.org/sqlite, so the binary stays CGO-free and the
// database is a single file under the XDG data directory.
package database
