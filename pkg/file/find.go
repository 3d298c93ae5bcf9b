package file

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// FindSubtitles walks dir and returns the paths accepted by match, sorted.
// Files this tool wrote (OutputPrefix) are never returned.
func FindSubtitles(dir string, match func(name string) bool) ([]string, error) {
	var found []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsOutput(d.Name()) || !match(d.Name()) {
			return nil
		}
		found = append(found, path)
		return nil
	})

	sort.Strings(found)
	return found, err
}
