package quality

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/cxrbalance/internal/model"
)

// findDuplicates groups images by BLAKE2b-256 digest and reports every
// group with more than one file.
func findDuplicates(ctx context.Context, images []imageFile) ([]model.Issue, error) {
	groups := make(map[string][]imageFile)
	var digests []string
	var issues []model.Issue

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return issues, err
		}
		digest, err := fileDigest(img.path)
		if err != nil {
			issues = append(issues, model.Issue{
				Kind:    model.IssueReadError,
				Split:   img.split,
				Path:    img.path,
				Message: err.Error(),
			})
			continue
		}
		if _, ok := groups[digest]; !ok {
			digests = append(digests, digest)
		}
		groups[digest] = append(groups[digest], img)
	}

	sort.Strings(digests)
	for _, digest := range digests {
		group := groups[digest]
		if len(group) < 2 {
			continue
		}
		files := make([]string, len(group))
		splits := make(map[string]bool)
		for i, img := range group {
			files[i] = img.path
			splits[img.split] = true
		}
		sort.Strings(files)

		message := fmt.Sprintf("%d identical images (blake2b %s)", len(group), digest[:16])
		if len(splits) > 1 {
			message += ", shared across splits"
		}
		issues = append(issues, model.Issue{
			Kind:    model.IssueDuplicateImage,
			Path:    files[0],
			Message: message,
			Files:   files,
		})
	}

	return issues, nil
}

// fileDigest returns the hex BLAKE2b-256 digest of a file.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // image paths come from directory listings
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
