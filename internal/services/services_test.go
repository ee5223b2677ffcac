package services

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codescan/internal/barcode"
	"codescan/internal/config"
	"codescan/internal/database"
	"codescan/internal/export"
	"codescan/internal/history"
	"codescan/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryService(t *testing.T) *HistoryService {
	t.Helper()
	log := zerolog.New(io.Discard)
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "svc.db")}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return NewHistoryService(history.NewStore(db, log), log)
}

func TestHistoryService_SaveScanRecord(t *testing.T) {
	svc := newTestHistoryService(t)
	ctx := context.Background()

	rec, err := svc.SaveScanRecord(ctx, models.ScanResult{
		Content: "4006381333931",
		Type:    models.CodeTypeLinear,
		Format:  models.FormatEAN13,
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, models.RecordTypeScan, rec.RecordType)
	assert.Equal(t, models.CodeTypeLinear, rec.Type)

	scans, err := svc.List(ctx, models.RecordTypeScan)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, rec.ID, scans[0].ID)
}

func TestHistoryService_SaveGenerateRecord(t *testing.T) {
	svc := newTestHistoryService(t)
	ctx := context.Background()

	rec, err := svc.SaveGenerateRecord(ctx, "hello", models.FormatQRCode)
	require.NoError(t, err)
	assert.Equal(t, models.RecordTypeGenerate, rec.RecordType)
	assert.Equal(t, models.CodeTypeTwoDimensional, rec.Type)

	_, err = svc.SaveGenerateRecord(ctx, "   ", models.FormatQRCode)
	assert.Error(t, err)

	scans, err := svc.List(ctx, models.RecordTypeScan)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestHistoryService_DeleteByIDAndClear(t *testing.T) {
	svc := newTestHistoryService(t)
	ctx := context.Background()

	a, err := svc.SaveGenerateRecord(ctx, "a", models.FormatQRCode)
	require.NoError(t, err)
	_, err = svc.SaveGenerateRecord(ctx, "b", models.FormatCode128)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteByID(ctx, a.ID), history.ErrRecordNotFound)

	gens, err := svc.List(ctx, models.RecordTypeGenerate)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, "b", gens[0].Content)

	require.NoError(t, svc.Clear(ctx, models.RecordTypeGenerate))
	gens, err = svc.List(ctx, models.RecordTypeGenerate)
	require.NoError(t, err)
	assert.Empty(t, gens)
}

func newTestCodeService(t *testing.T, dir string) *CodeService {
	t.Helper()
	return NewCodeService(barcode.NewGenerator(barcode.Defaults{}), export.NewDirStore(dir), 16, time.Minute, zerolog.New(io.Discard))
}

func TestCodeService_RenderPNG(t *testing.T) {
	svc := newTestCodeService(t, t.TempDir())

	data, err := svc.RenderPNG(RenderRequest{Content: "hello", Format: models.FormatQRCode})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())

	cached, err := svc.RenderPNG(RenderRequest{Content: "hello", Format: models.FormatQRCode})
	require.NoError(t, err)
	assert.Equal(t, data, cached)
	assert.Equal(t, 1, svc.cache.Len())

	barcodePNG, err := svc.RecordImage(models.NewCodeRecord("12345", models.FormatCode128, models.RecordTypeGenerate))
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(barcodePNG))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestCodeService_RenderPNGError(t *testing.T) {
	svc := newTestCodeService(t, t.TempDir())

	_, err := svc.RenderPNG(RenderRequest{Content: "ABC", Format: models.FormatEAN13})
	assert.ErrorIs(t, err, barcode.ErrEncoding)
	assert.Equal(t, 0, svc.cache.Len())
}

func TestCodeService_Export(t *testing.T) {
	dir := t.TempDir()
	svc := newTestCodeService(t, dir)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	location, err := svc.Export(context.Background(), RenderRequest{Content: "export me", Format: models.FormatQRCode})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "code_1700000000000.png"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}
