package split

import (
	"math/rand/v2"
	"sort"
)

// BackgroundClass is the group key of images without annotations.
const BackgroundClass = "background"

// Item is an image file with the class used for stratification.
type Item struct {
	// Name is the image file name relative to the source images directory.
	Name string `json:"name"`

	// Class is the stratification key, usually the dominant class name.
	Class string `json:"class"`
}

// Stratified groups items by Class and splits every group separately.
// Groups and their members are sorted before a shuffle seeded with seed,
// so the result depends only on the item set, the ratios and the seed.
func Stratified(items []Item, r Ratios, seed uint64) (Partition, error) {
	if err := r.Validate(); err != nil {
		return Partition{}, err
	}

	groups := make(map[string][]string)
	for _, item := range items {
		groups[item.Class] = append(groups[item.Class], item.Name)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible shuffle, not security sensitive

	var result Partition
	for _, key := range keys {
		names := groups[key]
		sort.Strings(names)
		rng.Shuffle(len(names), func(i, j int) {
			names[i], names[j] = names[j], names[i]
		})
		result.append(cut(names, r))
	}
	return result, nil
}

// GroupSizes returns the number of items per class key.
func GroupSizes(items []Item) map[string]int {
	sizes := make(map[string]int)
	for _, item := range items {
		sizes[item.Class]++
	}
	return sizes
}
