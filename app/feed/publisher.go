package feed

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

// Publisher replaces a file atomically: readers of path see either the old
// document or the complete new one.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Run(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewWriteError("create directory", dir, err)
	}

	perm := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewWriteError("create", "temp file", err)
	}
	tempPath := tempFile.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return apperrors.NewWriteError("write", tempPath, err)
	}
	if err := tempFile.Sync(); err != nil {
		return apperrors.NewWriteError("sync", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		return apperrors.NewWriteError("close", tempPath, err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return apperrors.NewWriteError("chmod", tempPath, err)
	}

	// Atomically move temp file to final location
	if err := os.Rename(tempPath, path); err != nil {
		return apperrors.NewWriteError("rename", path, err)
	}
	committed = true

	slog.Debug("Appcast published", "path", path, "bytes", len(data))

	return nil
}
