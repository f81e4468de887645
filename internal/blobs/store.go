package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Bucket is a logical blob area.
type Bucket string

const (
	Staging    Bucket = "staging"
	Production Bucket = "production"
)

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	return b == Staging || b == Production
}

var (
	ErrBlobNotFound  = errors.New("blobs: object not found")
	ErrInvalidName   = errors.New("blobs: invalid object name")
	ErrUnknownBucket = errors.New("blobs: unknown bucket")
)

// NotFoundError reports a missing object.
type NotFoundError struct {
	Bucket Bucket
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob %q not found in %s", e.Name, e.Bucket)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrBlobNotFound
}

// Store persists objects in buckets.
type Store interface {
	Put(ctx context.Context, bucket Bucket, name, contentType string, r io.Reader) error
	Open(ctx context.Context, bucket Bucket, name string) (io.ReadCloser, string, error)
	Copy(ctx context.Context, from, to Bucket, name string) error
	Delete(ctx context.Context, bucket Bucket, name string) error
	Exists(ctx context.Context, bucket Bucket, name string) (bool, error)
}

// Move transfers name from one bucket to another by copy then delete. An
// object already present only in the target counts as moved.
func Move(ctx context.Context, store Store, from, to Bucket, name string) error {
	err := store.Copy(ctx, from, to, name)
	if errors.Is(err, ErrBlobNotFound) {
		ok, existsErr := store.Exists(ctx, to, name)
		if existsErr != nil {
			return existsErr
		}
		if ok {
			return nil
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", name, to, err)
	}
	if err := store.Delete(ctx, from, name); err != nil && !errors.Is(err, ErrBlobNotFound) {
		return fmt.Errorf("delete %s from %s: %w", name, from, err)
	}
	return nil
}

func checkObject(bucket Bucket, name string) error {
	if !bucket.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
