// Package archive moves converted originals into a date-partitioned tree.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileMover is the filesystem capability the archiver needs.
type FileMover interface {
	MkdirAll(dir string) error
	Rename(src, dst string) error
}

// OSMover moves files on the local filesystem.
type OSMover struct{}

func (OSMover) MkdirAll(dir string) error { return os.MkdirAll(dir, 0o755) }

func (OSMover) Rename(src, dst string) error { return os.Rename(src, dst) }

// Dir returns root/<year>/<Month>/<day> for t, e.g. root/2026/January/14.
func Dir(root string, t time.Time) string {
	return filepath.Join(root, strconv.Itoa(t.Year()), t.Month().String(), strconv.Itoa(t.Day()))
}

// Archiver files originals under a root directory.
type Archiver struct {
	Root  string
	Mover FileMover
}

// New returns an Archiver rooted at root. A nil mover uses the OS.
func New(root string, mover FileMover) *Archiver {
	if mover == nil {
		mover = OSMover{}
	}
	return &Archiver{Root: root, Mover: mover}
}

// Archive moves src into the directory for now, keeping its base name, and
// returns the destination path.
func (a *Archiver) Archive(src string, now time.Time) (string, error) {
	dir := Dir(a.Root, now)
	if err := a.Mover.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("create archive directory %s: %w", dir, err)
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := a.Mover.Rename(src, dst); err != nil {
		return "", fmt.Errorf("move %s to archive: %w", filepath.Base(src), err)
	}
	return dst, nil
}
