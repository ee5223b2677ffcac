package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codescan/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "code_1700000000123.png", FileName(time.UnixMilli(1700000000123)))
}

func TestDirStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Pictures")
	s := NewDirStore(dir)

	path, err := s.Put(context.Background(), "code_1.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "code_1.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestDirStore_PutStaysInDirectory(t *testing.T) {
	dir := t.TempDir()
	path, err := NewDirStore(dir).Put(context.Background(), "../../escape.png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.png"), path)
}

func TestDirStore_PutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirStore(t.TempDir()).Put(ctx, "code_1.png", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsTarget(t *testing.T) {
	target, err := New(config.ExportConfig{PicturesDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DirStore{}, target)

	target, err = New(config.ExportConfig{
		S3Endpoint:  "localhost:9000",
		S3Bucket:    "codes",
		S3AccessKey: "access",
		S3SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, target)

	_, err = New(config.ExportConfig{S3Endpoint: "localhost:9000", S3Bucket: "codes"})
	assert.Error(t, err)
}
