package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// FileStore keeps each bucket in a directory below Root.
type FileStore struct {
	Root string
}

// NewFileStore creates the bucket directories under root.
func NewFileStore(root string) (*FileStore, error) {
	for _, bucket := range []Bucket{Staging, Production} {
		if err := os.MkdirAll(filepath.Join(root, string(bucket)), 0o755); err != nil {
			return nil, fmt.Errorf("blobs: create bucket dir: %w", err)
		}
	}
	return &FileStore{Root: root}, nil
}

func (s *FileStore) path(bucket Bucket, name string) string {
	return filepath.Join(s.Root, string(bucket), name)
}

func (s *FileStore) Put(_ context.Context, bucket Bucket, name, _ string, r io.Reader) error {
	if err := checkObject(bucket, name); err != nil {
		return err
	}
	dir := filepath.Join(s.Root, string(bucket))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("blobs: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("blobs: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blobs: close %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), s.path(bucket, name))
}

func (s *FileStore) Open(_ context.Context, bucket Bucket, name string) (io.ReadCloser, string, error) {
	if err := checkObject(bucket, name); err != nil {
		return nil, "", err
	}
	f, err := os.Open(s.path(bucket, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", &NotFoundError{Bucket: bucket, Name: name}
	}
	if err != nil {
		return nil, "", err
	}
	return f, mime.TypeByExtension(filepath.Ext(name)), nil
}

func (s *FileStore) Copy(ctx context.Context, from, to Bucket, name string) error {
	if err := checkObject(to, name); err != nil {
		return err
	}
	src, contentType, err := s.Open(ctx, from, name)
	if err != nil {
		return err
	}
	defer src.Close()
	return s.Put(ctx, to, name, contentType, src)
}

func (s *FileStore) Delete(_ context.Context, bucket Bucket, name string) error {
	if err := checkObject(bucket, name); err != nil {
		return err
	}
	err := os.Remove(s.path(bucket, name))
	if errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{Bucket: bucket, Name: name}
	}
	return err
}

func (s *FileStore) Exists(_ context.Context, bucket Bucket, name string) (bool, error) {
	if err := checkObject(bucket, name); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(bucket, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
