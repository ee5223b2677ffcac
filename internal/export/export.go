package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codescan/internal/config"
)

// Target stores exported PNG images and returns where they ended up
type Target interface {
	Put(ctx context.Context, name string, content []byte) (string, error)
}

// FileName is the name given to an image exported at t
func FileName(t time.Time) string {
	return fmt.Sprintf("code_%d.png", t.UnixMilli())
}

// New picks the S3 target when an endpoint is configured, the pictures directory otherwise
func New(cfg config.ExportConfig) (Target, error) {
	if strings.TrimSpace(cfg.S3Endpoint) != "" {
		return NewS3Store(S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
	}
	return NewDirStore(cfg.PicturesDir), nil
}

// DirStore writes images into a local directory, creating it on first use
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	if strings.TrimSpace(dir) == "" {
		dir = "Pictures"
	}
	return &DirStore{dir: dir}
}

func (s *DirStore) Put(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("export: name is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}
