package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoServiceFetchProducesJPEGThumbnail(t *testing.T) {
	body := pngBytes(t, 400, 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	svc := NewPhotoService(nil, PhotoServiceConfig{Timeout: time.Second}, nil)
	photo, err := svc.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "JPG", photo.Type)

	decoded, err := jpeg.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, photoThumbWidth, decoded.Bounds().Dx())
	assert.Equal(t, photoThumbHeight, decoded.Bounds().Dy())
}

func TestPhotoServiceFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	svc := NewPhotoService(nil, PhotoServiceConfig{Timeout: 50 * time.Millisecond}, nil)
	start := time.Now()
	_, err := svc.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPhotoServiceRejectsOversizedAndInvalid(t *testing.T) {
	body := pngBytes(t, 200, 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/text":
			_, _ = w.Write([]byte("hello, not an image"))
		default:
			_, _ = w.Write(body)
		}
	}))
	defer srv.Close()

	svc := NewPhotoService(nil, PhotoServiceConfig{Timeout: time.Second, MaxBytes: 64}, nil)
	_, err := svc.Fetch(context.Background(), srv.URL+"/big")
	assert.ErrorContains(t, err, "exceeds")

	svc = NewPhotoService(nil, PhotoServiceConfig{Timeout: time.Second}, nil)
	_, err = svc.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")
	_, err = svc.Fetch(context.Background(), srv.URL+"/text")
	assert.ErrorContains(t, err, "content type")
}
