// Package linklog maintains the newest-first URL log files.
package linklog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Separator divides entries in a log file.
const Separator = "\n\n"

// LogStore is the text persistence capability used by Prepend.
type LogStore interface {
	// Read returns the file content, or "" when the file does not exist.
	Read(path string) (string, error)
	Write(path, content string) error
}

// FileStore keeps logs on the local filesystem.
type FileStore struct{}

func (FileStore) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (FileStore) Write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// Prepend writes links ahead of the existing content of path. The file is
// rewritten in full; nothing happens when links is empty.
func Prepend(store LogStore, path string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	old, err := store.Read(path)
	if err != nil {
		return fmt.Errorf("read link log %s: %w", path, err)
	}
	content := strings.Join(links, Separator) + Separator + old
	if err := store.Write(path, content); err != nil {
		return fmt.Errorf("write link log %s: %w", path, err)
	}
	return nil
}
