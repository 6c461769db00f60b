package quality

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/cxrbalance/internal/model"
)

// identifyingTags are EXIF tags that can identify a person, a device or a
// place. Radiographs exported from a PACS should carry none of them.
var identifyingTags = map[string]string{
	"Artist":             "author",
	"Author":             "author",
	"XPAuthor":           "author",
	"Copyright":          "author",
	"ImageDescription":   "free text",
	"UserComment":        "free text",
	"XPComment":          "free text",
	"Make":               "device",
	"Model":              "device",
	"SerialNumber":       "device serial",
	"CameraSerialNumber": "device serial",
	"BodySerialNumber":   "device serial",
	"LensSerialNumber":   "device serial",
	"HostComputer":       "host",
	"Software":           "software",
	"ProcessingSoftware": "software",
	"DateTime":           "timestamp",
	"DateTimeOriginal":   "timestamp",
	"DateTimeDigitized":  "timestamp",
	"GPSLatitude":        "location",
	"GPSLongitude":       "location",
	"GPSLatitudeRef":     "location",
	"GPSLongitudeRef":    "location",
}

// IdentifyingTag reports whether an EXIF tag may identify a person, device
// or place, and returns its category.
func IdentifyingTag(name string) (string, bool) {
	category, ok := identifyingTags[name]
	return category, ok
}

// scanMetadata reports one issue per image carrying identifying tags.
// Images without EXIF data are skipped.
func scanMetadata(ctx context.Context, images []imageFile, maxSize int64) ([]model.Issue, error) {
	var issues []model.Issue
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return issues, err
		}

		data, err := readLimited(img.path, maxSize)
		if err != nil {
			issues = append(issues, model.Issue{
				Kind:    model.IssueReadError,
				Split:   img.split,
				Path:    img.path,
				Message: err.Error(),
			})
			continue
		}

		tags := identifyingEntries(data)
		if len(tags) == 0 {
			continue
		}
		issues = append(issues, model.Issue{
			Kind:    model.IssueImageMetadata,
			Split:   img.split,
			Path:    img.path,
			Message: fmt.Sprintf("image carries identifying EXIF tags: %s", strings.Join(tags, ", ")),
			Files:   tags,
		})
	}
	return issues, nil
}

// identifyingEntries extracts EXIF data and returns the sorted names of
// the identifying tags present. Values are never returned.
func identifyingEntries(data []byte) []string {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	for _, entry := range entries {
		if _, ok := identifyingTags[entry.TagName]; !ok || seen[entry.TagName] {
			continue
		}
		if strings.TrimSpace(entry.Formatted) == "" {
			continue
		}
		seen[entry.TagName] = true
		tags = append(tags, entry.TagName)
	}
	sort.Strings(tags)
	return tags
}

func readLimited(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // image paths come from directory listings
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
