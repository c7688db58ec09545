package file

import (
	"path/filepath"
	"sort"
)

type FileNumToMidiPath = map[uint32]string

// CreateFileNumMap numbers paths in sorted order so a batch is reproducible.
func CreateFileNumMap(paths []string) FileNumToMidiPath {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	res := make(FileNumToMidiPath)
	for i, v := range sorted {
		res[uint32(i)] = v
	}
	return res
}

// MetadataKey is the name a file is known by in the metadata table: its path
// relative to the media dir, or its base name when it lies outside of it.
func MetadataKey(mediaDir string, path string) string {
	if mediaDir != "" {
		if rel, err := filepath.Rel(mediaDir, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasParentPrefix(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
