package balance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/cxrbalance/internal/model"
)

// ErrInsufficientClassData is the sentinel matched by errors.Is for every
// InsufficientClassDataError.
var ErrInsufficientClassData = errors.New("insufficient class data")

// ErrEmptyCountTable is returned when a ratio or weights are requested for
// a count table without classes.
var ErrEmptyCountTable = errors.New("count table has no classes")

// InsufficientClassDataError reports the classes that have no samples.
type InsufficientClassDataError struct {
	// Classes lists the class ids with a zero count, ascending.
	Classes []model.ClassID
}

// Error implements the error interface.
func (e *InsufficientClassDataError) Error() string {
	ids := make([]string, len(e.Classes))
	for i, id := range e.Classes {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%s: no samples for class %s", ErrInsufficientClassData, strings.Join(ids, ", "))
}

// Unwrap returns ErrInsufficientClassData.
func (e *InsufficientClassDataError) Unwrap() error {
	return ErrInsufficientClassData
}

// checkCounts validates a count table before dividing by its entries.
func checkCounts(counts model.CountTable) error {
	if len(counts) == 0 {
		return ErrEmptyCountTable
	}
	var empty []model.ClassID
	for _, id := range counts.IDs() {
		if counts[id] <= 0 {
			empty = append(empty, id)
		}
	}
	if len(empty) > 0 {
		return &InsufficientClassDataError{Classes: empty}
	}
	return nil
}
