package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore ghi file vào một thư mục trên đĩa, mặc định là "uploads".
type LocalStore struct {
	Dir string
}

var _ AttachmentStore = (*LocalStore)(nil)

func NewLocalStore(dir string) *LocalStore {
	if dir == "" {
		dir = "uploads"
	}
	return &LocalStore{Dir: dir}
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	location := filepath.Join(s.Dir, filepath.Base(key))

	f, err := os.Create(location)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(location)
		return "", fmt.Errorf("failed to write attachment file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return location, nil
}

// Open only resolves locations inside Dir.
func (s *LocalStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return nil, err
	}
	target, err := filepath.Abs(location)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(target, dir+string(filepath.Separator)) {
		return nil, fmt.Errorf("attachment %q is outside %s", location, s.Dir)
	}
	return os.Open(target)
}
