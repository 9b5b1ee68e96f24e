package email

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var errIsDirectory = errors.New("destination is a directory")

// SaveAttachment writes the attachment at the 1-based ordinal to dst,
// replacing any existing file.
//
// An out-of-range ordinal returns false and a nil error without touching dst.
// A failed write returns false and an *IOError; dst is then either absent or
// holds its previous content, never a partial one.
func (m *Message) SaveAttachment(ordinal int, dst string) (bool, error) {
	if count := m.CountAttachments(); ordinal < 1 || ordinal > count {
		m.logger.Debug("attachment ordinal out of range", slog.Int("ordinal", ordinal), slog.Int("count", count))
		return false, nil
	}

	content, err := m.AttachmentBytes(ordinal)
	if err != nil {
		return false, err
	}

	if err = writeFileAtomic(dst, content, m.opts.FileMode); err != nil {
		return false, &IOError{Path: dst, Err: err}
	}

	m.logger.Info("attachment saved",
		slog.Int("ordinal", ordinal),
		slog.String("path", dst),
		slog.Int("size", len(content)),
	)
	return true, nil
}

// writeFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte, mode os.FileMode) (err error) {
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		return errIsDirectory
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}
