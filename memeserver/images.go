package memeserver

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// ScanImages walks dir and returns every jpg/jpeg/png/gif file (extension
// matched case-insensitively), sorted. A missing dir yields no images.
func ScanImages(dir string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && imageExts[strings.ToLower(filepath.Ext(path))] {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(images)
	return images, nil
}
