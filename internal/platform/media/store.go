// Package media stores recipe images on local disk. Uploads arrive as base64
// data URLs and are re-encoded, bounded to a maximum edge length.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

var (
	ErrInvalidDataURL = errors.New("invalid image data url")
	ErrUnsupported    = errors.New("unsupported image type")
)

const defaultMaxDimension = 1600

type Store interface {
	// SaveDataURL decodes, bounds and writes the image under dir and returns
	// its storage key.
	SaveDataURL(ctx context.Context, dir, dataURL string) (string, error)
	Delete(ctx context.Context, key string) error
	// URL maps a storage key to its public URL.
	URL(key string) string
}

type Config struct {
	Root         string
	BaseURL      string
	MaxDimension int
}

type localStore struct {
	log     *logger.Logger
	root    string
	baseURL string
	maxDim  int
}

func NewLocalStore(log *logger.Logger, cfg Config) (Store, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, fmt.Errorf("media root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	maxDim := cfg.MaxDimension
	if maxDim <= 0 {
		maxDim = defaultMaxDimension
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "/media"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &localStore{
		log:     log.With("service", "MediaStore"),
		root:    root,
		baseURL: baseURL,
		maxDim:  maxDim,
	}, nil
}

func (s *localStore) SaveDataURL(ctx context.Context, dir, dataURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format, raw, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	img = bound(img, s.maxDim)

	key := path.Join(strings.Trim(dir, "/"), uuid.NewString()+"."+extension(format))
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	encErr := imaging.Encode(f, img, format, imaging.JPEGQuality(85))
	closeErr := f.Close()
	if encErr != nil || closeErr != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write media file: %w", errors.Join(encErr, closeErr))
	}
	s.log.Debug("image stored", "key", key, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return key, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	full := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key)))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete media %s: %w", key, err)
	}
	return nil
}

func (s *localStore) URL(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// ParseDataURL splits "data:image/<type>;base64,<payload>" into the image
// format and the decoded bytes.
func ParseDataURL(dataURL string) (imaging.Format, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(dataURL), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return 0, nil, ErrInvalidDataURL
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	var format imaging.Format
	switch strings.ToLower(mime) {
	case "image/png":
		format = imaging.PNG
	case "image/jpeg", "image/jpg":
		format = imaging.JPEG
	case "image/gif":
		format = imaging.GIF
	default:
		return 0, nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(raw) == 0 {
		return 0, nil, ErrInvalidDataURL
	}
	return format, raw, nil
}

func bound(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

func extension(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "jpg"
	case imaging.GIF:
		return "gif"
	}
	return "png"
}
