package blobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

const (
	DefaultMaxUploadBytes = 2 << 20
	DefaultMaxDimension   = 2000
)

var (
	ErrNoFile         = errors.New("blobs: no file provided")
	ErrNotImage       = errors.New("blobs: file must be an image")
	ErrTooLarge       = errors.New("blobs: file size must be less than 2MB")
	ErrInvalidImage   = errors.New("blobs: invalid image file")
	ErrImageDimension = errors.New("blobs: image dimensions exceed limit")
)

// Dimensions of a stored image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UploadResult describes a stored upload.
type UploadResult struct {
	FileName   string     `json:"fileName"`
	URL        string     `json:"url"`
	Dimensions Dimensions `json:"dimensions"`
}

// UploaderOption customises an Uploader.
type UploaderOption func(*Uploader)

// WithMaxBytes caps the upload size.
func WithMaxBytes(n int64) UploaderOption {
	return func(u *Uploader) {
		if n > 0 {
			u.maxBytes = n
		}
	}
}

// WithMaxDimension caps image width and height.
func WithMaxDimension(px int) UploaderOption {
	return func(u *Uploader) {
		if px > 0 {
			u.maxDimension = px
		}
	}
}

// WithClock overrides the time source used for object names.
func WithClock(now func() time.Time) UploaderOption {
	return func(u *Uploader) {
		if now != nil {
			u.now = now
		}
	}
}

// Uploader validates images and stores them in the staging bucket.
type Uploader struct {
	store        Store
	locator      Locator
	maxBytes     int64
	maxDimension int
	now          func() time.Time
}

func NewUploader(store Store, locator Locator, opts ...UploaderOption) *Uploader {
	if store == nil {
		panic("blobs: uploader requires a store")
	}
	u := &Uploader{
		store:        store,
		locator:      locator,
		maxBytes:     DefaultMaxUploadBytes,
		maxDimension: DefaultMaxDimension,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// Upload checks type, size and dimensions, then stores the image under a
// unique name.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (UploadResult, error) {
	if r == nil {
		return UploadResult{}, ErrNoFile
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return UploadResult{}, ErrNotImage
	}
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("blobs: read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return UploadResult{}, ErrTooLarge
	}
	if len(data) == 0 {
		return UploadResult{}, ErrNoFile
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return UploadResult{}, ErrInvalidImage
	}
	if cfg.Width > u.maxDimension || cfg.Height > u.maxDimension {
		return UploadResult{}, fmt.Errorf("%w: must be less than %dx%d pixels, current %dx%d",
			ErrImageDimension, u.maxDimension, u.maxDimension, cfg.Width, cfg.Height)
	}

	name := u.objectName(filename)
	if err := u.store.Put(ctx, Staging, name, contentType, bytes.NewReader(data)); err != nil {
		return UploadResult{}, fmt.Errorf("blobs: store upload: %w", err)
	}
	return UploadResult{
		FileName:   name,
		URL:        u.locator.URL(Staging, name),
		Dimensions: Dimensions{Width: cfg.Width, Height: cfg.Height},
	}, nil
}

func (u *Uploader) objectName(filename string) string {
	base := filepath.Base(filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	parts := []string{fmt.Sprintf("%d", u.now().UnixMilli()), random}
	if normalized, err := slug.Normalize(stem); err == nil && normalized != "" {
		parts = append(parts, normalized)
	}
	name := strings.Join(parts, "-")
	if ext != "" {
		name += "." + ext
	}
	return name
}
