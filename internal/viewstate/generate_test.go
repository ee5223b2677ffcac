package viewstate

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"codescan/internal/barcode"
	"codescan/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerateSaver struct {
	mu      sync.Mutex
	records []models.CodeRecord
	err     error
}

func (f *fakeGenerateSaver) SaveGenerateRecord(_ context.Context, content string, format models.CodeFormat) (models.CodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.CodeRecord{}, f.err
	}
	r := models.NewCodeRecord(content, format, models.RecordTypeGenerate)
	r.ID = int64(len(f.records) + 1)
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeGenerateSaver) saved() []models.CodeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CodeRecord(nil), f.records...)
}

// blockingGenerator waits for release before rendering
type blockingGenerator struct {
	Generator
	release chan struct{}
}

func (g blockingGenerator) GenerateTwoDimensional(content string, opts ...barcode.Option) (*image.Paletted, error) {
	<-g.release
	return g.Generator.GenerateTwoDimensional(content, opts...)
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
}

func newGenerateController(t *testing.T, gen Generator, saver GenerateSaver) *GenerateController {
	t.Helper()
	c := NewGenerateController(gen, saver, zerolog.New(io.Discard))
	t.Cleanup(c.Close)
	return c
}

func TestGenerateController_BlankContent(t *testing.T) {
	saver := &fakeGenerateSaver{}
	c := newGenerateController(t, barcode.NewGenerator(barcode.Defaults{}), saver)

	c.SetContent("   ")
	wait(t, c.Generate())

	st := c.State()
	assert.Equal(t, "Please enter content", st.Error)
	assert.False(t, st.IsGenerating)
	assert.Nil(t, st.Image)
	assert.Empty(t, saver.saved())
}

func TestGenerateController_QRCode(t *testing.T) {
	saver := &fakeGenerateSaver{}
	c := newGenerateController(t, barcode.NewGenerator(barcode.Defaults{}), saver)

	c.SetContent("https://example.com")
	wait(t, c.Generate())

	st := c.State()
	require.NotNil(t, st.Image)
	assert.Equal(t, 512, st.Image.Bounds().Dx())
	assert.True(t, st.ShowResultDialog)
	assert.False(t, st.IsGenerating)
	assert.Empty(t, st.Error)
	assert.Equal(t, int64(1), st.RecordID)

	saved := saver.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, models.FormatQRCode, saved[0].Format)
	assert.Equal(t, models.RecordTypeGenerate, saved[0].RecordType)

	c.DismissResult()
	assert.False(t, c.State().ShowResultDialog)
	assert.NotNil(t, c.State().Image)

	c.ClearResult()
	st = c.State()
	assert.Empty(t, st.Content)
	assert.Nil(t, st.Image)
}

func TestGenerateController_BarcodeFailureNotPersisted(t *testing.T) {
	saver := &fakeGenerateSaver{}
	c := newGenerateController(t, barcode.NewGenerator(barcode.Defaults{}), saver)

	require.NoError(t, c.SetMode(ModeBarcode))
	require.NoError(t, c.SetBarcodeFormat(models.FormatEAN13))
	c.SetContent("ABC")
	wait(t, c.Generate())

	st := c.State()
	assert.Contains(t, st.Error, "EAN_13")
	assert.Nil(t, st.Image)
	assert.False(t, st.ShowResultDialog)
	assert.Empty(t, saver.saved())
}

func TestGenerateController_Barcode(t *testing.T) {
	saver := &fakeGenerateSaver{}
	c := newGenerateController(t, barcode.NewGenerator(barcode.Defaults{}), saver)

	require.NoError(t, c.SetMode(ModeBarcode))
	c.SetContent("CODE128")
	wait(t, c.Generate())

	st := c.State()
	require.NotNil(t, st.Image)
	assert.Equal(t, 600, st.Image.Bounds().Dx())
	require.Len(t, saver.saved(), 1)
	assert.Equal(t, models.FormatCode128, saver.saved()[0].Format)
}

func TestGenerateController_SaveFailureStillShowsImage(t *testing.T) {
	saver := &fakeGenerateSaver{err: errors.New("db down")}
	c := newGenerateController(t, barcode.NewGenerator(barcode.Defaults{}), saver)

	c.SetContent("x")
	wait(t, c.Generate())

	st := c.State()
	assert.NotNil(t, st.Image)
	assert.Zero(t, st.RecordID)
}

func TestGenerateController_RejectsUnofferedInput(t *testing.T) {
	c := newGenerateController(t, barcode.NewGenerator(barcode.Defaults{}), nil)
	assert.Error(t, c.SetBarcodeFormat(models.FormatQRCode))
	assert.Error(t, c.SetBarcodeFormat(models.FormatUPCE))
	assert.Error(t, c.SetMode("HOLOGRAM"))
	assert.Equal(t, models.FormatCode128, c.State().BarcodeFormat)
}

func TestGenerateController_CloseDiscardsLateResult(t *testing.T) {
	gen := blockingGenerator{Generator: barcode.NewGenerator(barcode.Defaults{}), release: make(chan struct{})}
	saver := &fakeGenerateSaver{}
	c := NewGenerateController(gen, saver, zerolog.New(io.Discard))

	c.SetContent("late")
	done := c.Generate()
	assert.True(t, c.State().IsGenerating)

	c.Close()
	close(gen.release)
	wait(t, done)

	assert.Nil(t, c.State().Image)
	assert.Empty(t, saver.saved())
}
