// Package utils provides small filesystem helpers shared by the CLI
// and the batch runner.
package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts are the extensions accepted as processable input.
var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
	".webp": {},
}

// IsImageFile reports whether the path has a supported image extension.
func IsImageFile(path string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsEmbeddable reports whether metadata can be written to the file.
// Only JPEG output is supported for embedding.
func IsEmbeddable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}

// ListImageFiles returns the sorted absolute paths of all image files
// under dir. When recursive is false only the top level is scanned.
func ListImageFiles(dir string, recursive bool) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	if recursive {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsImageFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if IsImageFile(path) {
				add(path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
