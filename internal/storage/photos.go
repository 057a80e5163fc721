// Package storage keeps package photos on local disk and hands out
// public URLs for them. Uploads are best-effort for the registration
// flow: a failed save means the notification goes out without a photo.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PhotoStore writes photos under dir and serves them under baseURL.
type PhotoStore struct {
	dir     string
	baseURL string
}

// NewPhotoStore ensures the photo directory exists.
func NewPhotoStore(dir, baseURL string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &PhotoStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save stores the photo under a unique name derived from the upload
// time and returns its public URL. The original extension is kept so
// the receiving side can infer the content type.
func (s *PhotoStore) Save(r io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("entrega-%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes a previously saved photo given its public URL. Unknown
// URLs are ignored.
func (s *PhotoStore) Delete(photoURL string) error {
	if !strings.HasPrefix(photoURL, s.baseURL+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(photoURL, s.baseURL+"/"))
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Dir returns the directory photos are served from, for static routing.
func (s *PhotoStore) Dir() string { return s.dir }
