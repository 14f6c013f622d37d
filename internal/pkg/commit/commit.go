// Package commit applies a staged change-set to a loaded document and writes
// it back to its source path, optionally preserving a backup copy first.
package commit

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pmc-tools/pmcconf/internal/pkg/document"
	"github.com/pmc-tools/pmcconf/internal/pkg/params"
)

// Commit validates and applies changes to dev, then serializes doc back to
// its source path. An empty change-set is a no-op: no backup, no write.
//
// When backup is requested, the pre-save file is copied to <path>.backup
// before anything mutates, so a failure partway through never leaves the
// original overwritten without a backup. The final write goes through a
// temp file renamed over the source path.
func Commit(doc *document.Document, dev *document.Device, changes *params.ChangeSet, backup bool) error {
	if changes.Empty() {
		return nil
	}

	logger := zap.L()

	if backup {
		backupPath := doc.Path() + ".backup"
		if err := copyFile(doc.Path(), backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		logger.Info("backup created", zap.String("path", backupPath))
	}

	for _, change := range changes.Entries() {
		if err := params.SetRaw(dev, change.Name, change.Value); err != nil {
			return err
		}
	}

	data, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	if err := writeAtomic(doc.Path(), data); err != nil {
		return fmt.Errorf("failed to save %q: %w", doc.Path(), err)
	}

	logger.Info("changes saved",
		zap.String("path", doc.Path()),
		zap.String("device", dev.Name),
		zap.Int("changes", changes.Len()))
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func writeAtomic(path string, data []byte) error {
	// The rename replaces path with the temp file, so the temp file must
	// carry the original's mode rather than os.CreateTemp's 0600.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pmcconf-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
