// Package discovery enumerates raw images waiting in the input directory.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Image is a candidate source file.
type Image struct {
	Path string
	// Name is the base name without extension.
	Name string
	// Ext is the lowercase extension without the leading dot.
	Ext  string
	Size int64
}

// FileName returns the base name including extension.
func (i Image) FileName() string {
	return filepath.Base(i.Path)
}

// Find walks root recursively and returns files whose extension is in exts,
// compared case-insensitively. Entries whose name starts with a dot are
// skipped, directories included. A missing root yields no images.
func Find(root string, exts []string) ([]Image, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %q is not a directory", root)
	}

	want := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			want[ext] = struct{}{}
		}
	}

	var images []Image
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rawExt := filepath.Ext(d.Name())
		ext := strings.ToLower(strings.TrimPrefix(rawExt, "."))
		if _, ok := want[ext]; !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		images = append(images, Image{
			Path: path,
			Name: strings.TrimSuffix(d.Name(), rawExt),
			Ext:  ext,
			Size: fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}
	return images, nil
}
