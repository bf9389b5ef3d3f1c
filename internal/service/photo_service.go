package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/noah-isme/sma-records-api/internal/layout"
)

// Passport thumbnail in pixels, 4:5 like the printed frame.
const (
	photoThumbWidth  = 240
	photoThumbHeight = 300
)

// PhotoServiceConfig bounds identity photo downloads.
type PhotoServiceConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// PhotoService downloads identity photos and turns them into JPEG thumbnails.
type PhotoService struct {
	client *http.Client
	cfg    PhotoServiceConfig
	logger *zap.Logger
}

// NewPhotoService constructs the photo fetcher. A nil client uses one bounded by cfg.Timeout.
func NewPhotoService(client *http.Client, cfg PhotoServiceConfig, logger *zap.Logger) *PhotoService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoService{client: client, cfg: cfg, logger: logger}
}

// Fetch downloads and normalises the photo at url within the configured timeout.
func (s *PhotoService) Fetch(ctx context.Context, url string) (*layout.Photo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build photo request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch photo: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(raw)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("photo exceeds %d bytes", s.cfg.MaxBytes)
	}
	return Thumbnail(raw)
}

// Thumbnail decodes a jpeg, png or webp image and crops it to the passport frame.
func Thumbnail(raw []byte) (*layout.Photo, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty photo")
	}
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("unsupported photo content type %s", ct)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	thumb := imaging.Fill(img, photoThumbWidth, photoThumbHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return &layout.Photo{Data: buf.Bytes(), Type: "JPG"}, nil
}
