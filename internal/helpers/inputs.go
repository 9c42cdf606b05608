package helpers

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExpandInputs replaces every directory in paths with the regular files it
// contains, recursively and in lexical order. Hidden files and directories
// are skipped. Paths that do not exist are kept so that the caller can report
// them per input. Duplicates are removed, the first occurrence wins.
func ExpandInputs(paths []string) ([]string, error) {
	var inputs []string
	seen := make(map[string]struct{})

	add := func(path string) {
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		inputs = append(inputs, path)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			add(path)
			continue
		}

		found := 0
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if p != path && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type().IsRegular() {
				add(p)
				found++
			}

			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read directory %s", path)
		}

		if found == 0 {
			return nil, errors.Errorf("no capture files found in %s", path)
		}
	}

	return inputs, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
