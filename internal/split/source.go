package split

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/cxrbalance/internal/labels"
	"github.com/nao1215/cxrbalance/internal/model"
)

// Source is a flat, unsplit dataset: <dir>/images/* and <dir>/labels/*.txt.
type Source struct {
	// Dir is the source root.
	Dir string

	// Items lists every image with its dominant class, sorted by name.
	Items []Item

	// Unlabeled lists images without a label file.
	Unlabeled []string
}

// Names returns the image names in source order.
func (s *Source) Names() []string {
	names := make([]string, len(s.Items))
	for i, item := range s.Items {
		names[i] = item.Name
	}
	return names
}

// ImagePath returns the path of an image of the source.
func (s *Source) ImagePath(name string) string {
	return filepath.Join(s.Dir, model.ImagesDir, name)
}

// LabelPath returns the path of the label file paired with an image.
func (s *Source) LabelPath(name string) string {
	return filepath.Join(s.Dir, model.LabelsDir, model.Basename(name)+labels.Extension)
}

// ScanSource lists the images of dir and assigns each the dominant class
// of its label file. Images with an empty, missing or unreadable label file
// get BackgroundClass.
func ScanSource(dir string, classes model.ClassTable) (*Source, error) {
	entries, err := os.ReadDir(filepath.Join(dir, model.ImagesDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list source images: %w", err)
	}

	src := &Source{Dir: dir}
	for _, entry := range entries {
		if entry.IsDir() || !model.IsImageFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		item := Item{Name: name, Class: BackgroundClass}

		result, err := labels.ReadFile(src.LabelPath(name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			src.Unlabeled = append(src.Unlabeled, name)
		case err != nil:
			return nil, err
		default:
			if id, ok := result.DominantClass(); ok {
				item.Class = classes.MustName(id)
			}
		}
		src.Items = append(src.Items, item)
	}
	return src, nil
}
