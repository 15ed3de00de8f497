package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/pagekeeper/internal/filex"
)

// Store persists upload bytes under a slash-separated key such as
// "images/image-1700000000000-0a1b2c3d.png".
type Store interface {
	// Put writes the content and returns where it landed (a disk path or an
	// object key).
	Put(ctx context.Context, key string, r io.Reader, size int64, mimeType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore keeps uploads on disk under root; the HTTP layer serves root at
// /uploads/.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

// Put overwrites any existing file with the same key.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	path, err := filex.Resolve(s.root, filepath.FromSlash(key))
	if err != nil {
		return "", err
	}
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return path, nil
}

// Delete removes the file; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := filex.Resolve(s.root, filepath.FromSlash(key))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
