package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isRemoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(strings.TrimSpace(source), "data:")
}

// listImages expands directories into the image files below them. Files
// and remote sources are passed through as given.
func listImages(sources []string) ([]string, error) {
	var images []string
	for _, source := range sources {
		if isRemoteSource(source) {
			images = append(images, source)
			continue
		}

		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", source, err)
		}
		if !info.IsDir() {
			images = append(images, source)
			continue
		}

		if err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if isImageFile(path) {
				images = append(images, path)
			}
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", source, err)
		}
	}
	return images, nil
}
