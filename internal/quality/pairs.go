package quality

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/cxrbalance/internal/labels"
	"github.com/nao1215/cxrbalance/internal/model"
)

// imageFile is an image found during the pairing check.
type imageFile struct {
	split string
	path  string
}

// checkPairs compares image and label basenames of one split.
// It returns the images of the split for the optional checks.
func (c *Checker) checkPairs(dataDir, split string, result *Result) ([]imageFile, error) {
	imageDir := model.ImageDir(dataDir, split)
	labelDir := model.LabelDir(dataDir, split)

	imageEntries, imageErr := os.ReadDir(imageDir)
	labelEntries, labelErr := os.ReadDir(labelDir)
	if imageErr != nil {
		result.Issues = append(result.Issues, directoryIssue(split, imageDir, imageErr))
	}
	if labelErr != nil {
		result.Issues = append(result.Issues, directoryIssue(split, labelDir, labelErr))
	}

	imageBases := make(map[string]bool)
	var images []imageFile
	if imageErr == nil {
		for _, entry := range imageEntries {
			if entry.IsDir() || !model.IsImageFile(entry.Name()) {
				continue
			}
			imageBases[model.Basename(entry.Name())] = true
			images = append(images, imageFile{split: split, path: filepath.Join(imageDir, entry.Name())})
		}
		result.ImagesChecked += len(images)
	}

	labelBases := make(map[string]bool)
	if labelErr == nil {
		for _, entry := range labelEntries {
			if entry.IsDir() || !labels.IsLabelFile(entry.Name()) {
				continue
			}
			labelBases[labels.Basename(entry.Name())] = true
			result.LabelsChecked++
		}
	}

	if imageErr != nil || labelErr != nil {
		return images, nil
	}

	if orphans := difference(imageBases, labelBases); len(orphans) > 0 {
		result.Issues = append(result.Issues, model.Issue{
			Kind:    model.IssueOrphanedImage,
			Split:   split,
			Path:    imageDir,
			Message: fmt.Sprintf("%d image(s) without labels: %s", len(orphans), preview(orphans)),
			Files:   orphans,
		})
	}
	if orphans := difference(labelBases, imageBases); len(orphans) > 0 {
		result.Issues = append(result.Issues, model.Issue{
			Kind:    model.IssueOrphanedLabel,
			Split:   split,
			Path:    labelDir,
			Message: fmt.Sprintf("%d label(s) without images: %s", len(orphans), preview(orphans)),
			Files:   orphans,
		})
	}

	return images, nil
}

// difference returns the sorted keys of a that are not in b.
func difference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// previewLimit is the number of basenames quoted in an issue message.
const previewLimit = 5

func preview(names []string) string {
	if len(names) <= previewLimit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:previewLimit], ", "), len(names)-previewLimit)
}

func directoryIssue(split, dir string, err error) model.Issue {
	if errors.Is(err, fs.ErrNotExist) {
		return model.Issue{
			Kind:    model.IssueMissingDirectory,
			Split:   split,
			Path:    dir,
			Message: "directory not found",
		}
	}
	return model.Issue{
		Kind:    model.IssueReadError,
		Split:   split,
		Path:    dir,
		Message: err.Error(),
	}
}
