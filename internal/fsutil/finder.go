// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultNames are the bake file names probed, in order, when no explicit
// file is given.
var defaultNames = []string{
	"docker-bake.hcl",
	"docker-bake.json",
	"bake.hcl",
}

// FindConfigFiles resolves the given paths into a deduplicated, ordered list
// of configuration files. A directory contributes every `.hcl` and `.json`
// file directly inside it; a file path is taken as-is. With no paths, the
// default bake file names are probed in the current directory.
func FindConfigFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		for _, name := range defaultNames {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				return []string{name}, nil
			}
		}
		return nil, fmt.Errorf("no bake file found: looked for %v", defaultNames)
	}

	var files []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			files = append(files, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch filepath.Ext(entry.Name()) {
			case ".hcl", ".json":
				add(filepath.Join(path, entry.Name()))
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl or .json configuration files found in %v", paths)
	}
	return files, nil
}
