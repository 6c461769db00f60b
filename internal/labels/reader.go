package labels

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Extension is the file extension of label files.
const Extension = ".txt"

// bboxFields is the number of fields of a full detection record.
const bboxFields = 5

// Annotation is one parsed label line.
type Annotation struct {
	// ClassID is the first field of the line.
	ClassID model.ClassID

	// BBox holds x_center, y_center, width and height when the line has
	// exactly five fields.
	BBox *[4]float64
}

// ErrMissingClassID is returned by ParseLine for a line without fields.
var ErrMissingClassID = errors.New("missing class id")

// ParseError describes one malformed line of a label file.
type ParseError struct {
	// Line is the 1-based line number.
	Line int

	// Text is the raw line content.
	Text string

	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileResult is the outcome of reading one label file.
type FileResult struct {
	// Path is the label file path.
	Path string

	// Counts tallies annotations per class id found in the file,
	// including ids outside any class table.
	Counts model.CountTable

	// Annotations holds every successfully parsed line in file order.
	Annotations []Annotation

	// Lines is the number of non-blank lines.
	Lines int

	// ParseErrors lists malformed lines.
	ParseErrors []ParseError
}

// DominantClass returns the most frequent class id of the file.
// Ties go to the lowest id. ok is false for a file without annotations.
func (r *FileResult) DominantClass() (id model.ClassID, ok bool) {
	best := -1
	for _, candidate := range r.Counts.IDs() {
		if n := r.Counts[candidate]; n > best {
			best = n
			id = candidate
		}
	}
	return id, best > 0
}

// ParseLine parses a single non-blank label line.
func ParseLine(line string) (Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Annotation{}, ErrMissingClassID
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Annotation{}, fmt.Errorf("invalid class id %q", fields[0])
	}
	if id < 0 {
		return Annotation{}, fmt.Errorf("negative class id %d", id)
	}

	annotation := Annotation{ClassID: model.ClassID(id)}
	if len(fields) == bboxFields {
		var box [4]float64
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Annotation{}, fmt.Errorf("invalid bounding box value %q", field)
			}
			box[i] = v
		}
		annotation.BBox = &box
	}

	return annotation, nil
}

// ReadFile reads and tallies a label file.
// A missing or unreadable file is returned as an error; malformed lines are
// collected in FileResult.ParseErrors instead.
func ReadFile(path string) (*FileResult, error) {
	f, err := os.Open(path) //nolint:gosec // label paths come from directory listings
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	result := &FileResult{
		Path:   path,
		Counts: make(model.CountTable),
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		result.Lines++

		annotation, err := ParseLine(text)
		if err != nil {
			result.ParseErrors = append(result.ParseErrors, ParseError{
				Line: lineNo,
				Text: text,
				Err:  err,
			})
			continue
		}

		result.Counts.Add(annotation.ClassID, 1)
		result.Annotations = append(result.Annotations, annotation)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	return result, nil
}

// IsLabelFile reports whether name has the label file extension.
func IsLabelFile(name string) bool {
	return strings.HasSuffix(name, Extension)
}

// Basename strips the label extension from a file name.
func Basename(name string) string {
	return strings.TrimSuffix(name, Extension)
}
