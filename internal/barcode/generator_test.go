package barcode

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"codescan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator() *Generator {
	return NewGenerator(Defaults{})
}

func TestGenerateTwoDimensional_DefaultSize(t *testing.T) {
	img, err := newTestGenerator().GenerateTwoDimensional("https://example.com/scan")
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 512, 512), img.Bounds())
	assert.Len(t, img.Palette, 2)
	// the margin keeps the corner in the background colour
	assert.Equal(t, uint8(0), img.ColorIndexAt(0, 0))
}

func TestGenerateTwoDimensional_RoundTrip(t *testing.T) {
	for _, content := range []string{"hello", "https://example.com/a?b=c", "WIFI:S:home;T:WPA;P:secret;;"} {
		img, err := newTestGenerator().GenerateTwoDimensional(content)
		require.NoError(t, err)

		res, ok := NewDecoder().Decode(img)
		require.True(t, ok, "decode %q", content)
		assert.Equal(t, content, res.Content)
		assert.Equal(t, models.FormatQRCode, res.Format)
		assert.Equal(t, models.CodeTypeTwoDimensional, res.Type)
	}
}

func TestGenerateLinear_Code128RoundTrip(t *testing.T) {
	img, err := newTestGenerator().GenerateLinear("CODE-128 test", models.FormatCode128, WithMargin(10))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 200), img.Bounds())

	res, ok := NewDecoder().Decode(img)
	require.True(t, ok)
	assert.Equal(t, "CODE-128 test", res.Content)
	assert.Equal(t, models.FormatCode128, res.Format)
	assert.Equal(t, models.CodeTypeLinear, res.Type)
}

func TestGenerateLinear_RoundTripEveryFormat(t *testing.T) {
	tests := []struct {
		format  models.CodeFormat
		content string
		want    string
	}{
		{models.FormatCode128, "ABC-123", "ABC-123"},
		{models.FormatCode39, "CODE39 TEST", "CODE39 TEST"},
		{models.FormatCode93, "CODE93 TEST", "CODE93 TEST"},
		{models.FormatCodabar, "123456", "123456"},
		{models.FormatEAN13, "590123412345", "5901234123457"},
		{models.FormatEAN8, "9638507", "96385074"},
		{models.FormatUPCA, "03600029145", "036000291452"},
		{models.FormatUPCE, "0123456", "01234565"},
		{models.FormatITF, "12345678", "12345678"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			img, err := newTestGenerator().GenerateLinear(tt.content, tt.format)
			require.NoError(t, err)

			res, ok := NewDecoder().Decode(img)
			require.True(t, ok, "decode %s %q", tt.format, tt.content)
			assert.Equal(t, tt.want, res.Content)
			assert.Equal(t, tt.format, res.Format)
			assert.Equal(t, models.CodeTypeLinear, res.Type)
		})
	}
}

func TestGenerateLinear_QuietZoneIsAMinimum(t *testing.T) {
	img, err := newTestGenerator().GenerateLinear("590123412345", models.FormatEAN13, WithMargin(0))
	require.NoError(t, err)

	// 95 modules plus 9 on each side, scaled by 5 into 600 pixels
	for x := 0; x < 9*5; x++ {
		assert.Equal(t, uint8(0), img.ColorIndexAt(x, 100), "x=%d", x)
	}
}

func TestGenerate_AztecRoundTrip(t *testing.T) {
	img, err := newTestGenerator().Generate("hello aztec", models.FormatAztec)
	require.NoError(t, err)

	res, ok := NewDecoder().Decode(img)
	require.True(t, ok)
	assert.Equal(t, "hello aztec", res.Content)
	assert.Equal(t, models.FormatAztec, res.Format)
	assert.Equal(t, models.CodeTypeTwoDimensional, res.Type)
}

func TestGenerateLinear_DefaultFormatIsCode128(t *testing.T) {
	a, err := newTestGenerator().GenerateLinear("12345", "")
	require.NoError(t, err)
	b, err := newTestGenerator().GenerateLinear("12345", models.FormatCode128)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestGenerateLinear_RowsAreIdentical(t *testing.T) {
	img, err := newTestGenerator().GenerateLinear("4006381333931", models.FormatEAN13)
	require.NoError(t, err)

	b := img.Bounds()
	first := img.Pix[0:b.Dx()]
	for y := 1; y < b.Dy(); y++ {
		require.Equal(t, first, img.Pix[y*img.Stride:y*img.Stride+b.Dx()])
	}
}

func TestGenerateLinear_RejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  models.CodeFormat
	}{
		{"non-numeric EAN-13", "ABC", models.FormatEAN13},
		{"short EAN-13", "123", models.FormatEAN13},
		{"bad EAN-13 check digit", "4006381333932", models.FormatEAN13},
		{"EAN-8 length", "123456789", models.FormatEAN8},
		{"UPC-A letters", "0360002914A", models.FormatUPCA},
		{"odd ITF", "12345", models.FormatITF},
		{"non-numeric ITF", "12AB", models.FormatITF},
		{"UPC-E number system", "2123456", models.FormatUPCE},
		{"UPC-E check digit", "01234567", models.FormatUPCE},
		{"codabar half guarded", "A1234", models.FormatCodabar},
		{"empty", "", models.FormatCode128},
		{"matrix format", "hello", models.FormatQRCode},
		{"unknown format", "hello", models.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := newTestGenerator().GenerateLinear(tt.content, tt.format)
			require.Error(t, err)
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, ErrEncoding))

			var encErr *EncodingError
			require.True(t, errors.As(err, &encErr))
			assert.Equal(t, tt.format, encErr.Format)
		})
	}
}

func TestGenerateLinear_AcceptsProductCodes(t *testing.T) {
	tests := []struct {
		content string
		format  models.CodeFormat
	}{
		{"400638133393", models.FormatEAN13},
		{"4006381333931", models.FormatEAN13},
		{"9638507", models.FormatEAN8},
		{"96385074", models.FormatEAN8},
		{"03600029145", models.FormatUPCA},
		{"036000291452", models.FormatUPCA},
		{"0123456", models.FormatUPCE},
		{"01234565", models.FormatUPCE},
		{"123456", models.FormatITF},
		{"HELLO 39", models.FormatCode39},
		{"lower case 39", models.FormatCode39},
		{"CODE93", models.FormatCode93},
		{"40156", models.FormatCodabar},
		{"B40156D", models.FormatCodabar},
	}

	for _, tt := range tests {
		img, err := newTestGenerator().GenerateLinear(tt.content, tt.format)
		require.NoError(t, err, "%s %q", tt.format, tt.content)
		assert.Equal(t, image.Rect(0, 0, 600, 200), img.Bounds())
	}
}

func TestGenerate_Dispatch(t *testing.T) {
	g := newTestGenerator()
	for _, f := range []models.CodeFormat{models.FormatDataMatrix, models.FormatAztec, models.FormatPDF417} {
		img, err := g.Generate("matrix content", f)
		require.NoError(t, err, f)
		assert.GreaterOrEqual(t, img.Bounds().Dx(), 512, f)
	}

	unknown, err := g.Generate("fallback", models.FormatUnknown)
	require.NoError(t, err)
	qr, err := g.GenerateTwoDimensional("fallback")
	require.NoError(t, err)
	assert.Equal(t, qr.Pix, unknown.Pix)

	_, err = g.Generate("ABC", models.FormatEAN13)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestGenerate_OptionsAndLimits(t *testing.T) {
	g := NewGenerator(Defaults{MaxDimension: 1000})

	img, err := g.GenerateTwoDimensional("sized", WithSize(300, 200), WithColors(color.RGBA{R: 255, A: 255}, color.Black))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 200), img.Bounds())
	assert.Equal(t, color.Color(color.Black), img.Palette[0])

	_, err = g.GenerateTwoDimensional("too big", WithSize(2000, 2000))
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = g.GenerateLinear("neg", models.FormatCode128, WithSize(-1, 10))
	assert.ErrorIs(t, err, ErrEncoding)

	// requests smaller than the symbol grow to its native size
	tiny, err := g.GenerateTwoDimensional("native", WithSize(1, 1))
	require.NoError(t, err)
	assert.Greater(t, tiny.Bounds().Dx(), 1)
	assert.Equal(t, tiny.Bounds().Dx(), tiny.Bounds().Dy())
}

func TestGenerateTwoDimensional_Empty(t *testing.T) {
	_, err := newTestGenerator().GenerateTwoDimensional("")
	assert.ErrorIs(t, err, ErrEncoding)
}
