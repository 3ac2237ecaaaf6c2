package modpack

import (
	"slices"
	"strings"
)

// ModLoader is a mod loader identifier such as "forge-14.23.4.2715".
type ModLoader struct {
	ID      string `json:"id"`
	Primary bool   `json:"primary"`
}

// ModLoaders is the ordered mod loader list of a manifest.
type ModLoaders []ModLoader

// ParseModLoaders splits a comma separated list of loader IDs. Blank items
// are dropped and the first loader becomes the primary one.
func ParseModLoaders(s string) ModLoaders {
	loaders := ModLoaders{}
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		loaders = append(loaders, ModLoader{ID: id, Primary: len(loaders) == 0})
	}
	return loaders
}

// Sorted returns a copy with the primary loader moved to the front.
func (l ModLoaders) Sorted() ModLoaders {
	sorted := slices.Clone(l)
	slices.SortStableFunc(sorted, func(a, b ModLoader) int {
		switch {
		case a.Primary && !b.Primary:
			return -1
		case !a.Primary && b.Primary:
			return 1
		}
		return 0
	})
	return sorted
}

// Primary returns the primary loader, if one is marked.
func (l ModLoaders) Primary() (ModLoader, bool) {
	for _, ml := range l {
		if ml.Primary {
			return ml, true
		}
	}
	return ModLoader{}, false
}

// String joins the loader IDs with commas, primary first.
func (l ModLoaders) String() string {
	ids := make([]string, 0, len(l))
	for _, ml := range l.Sorted() {
		ids = append(ids, ml.ID)
	}
	return strings.Join(ids, ",")
}
