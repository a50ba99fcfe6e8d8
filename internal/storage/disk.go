package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore abstracts the resume file location so the attachment service can
// compensate a failed record write without knowing about the filesystem.
type FileStore interface {
	Save(name string, r io.Reader) (string, error)
	Remove(path string) error
}

type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Save(name string, r io.Reader) (string, error) {
	path := filepath.Join(s.root, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}

// Remove tolerates an already-missing file: a stale record pointing nowhere
// must not block replacing the resume.
func (s *DiskStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
