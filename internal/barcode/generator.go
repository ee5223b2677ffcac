package barcode

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"codescan/internal/models"

	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/aztec"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/twooffive"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize        = 512
	DefaultBarcodeWidth  = 600
	DefaultBarcodeHeight = 200
	DefaultMargin        = 1
	DefaultMaxDimension  = 4096

	// minimum error correction percentage for Aztec symbols
	aztecMinECC = 33
	// PDF417 error correction level
	pdf417Security = 2
)

// Defaults holds the sizes used when a call does not ask for any
type Defaults struct {
	QRSize        int
	BarcodeWidth  int
	BarcodeHeight int
	MaxDimension  int
}

// Generator renders codes into two-colour rasters. It holds no mutable state.
type Generator struct {
	defaults Defaults
}

func NewGenerator(d Defaults) *Generator {
	if d.QRSize <= 0 {
		d.QRSize = DefaultQRSize
	}
	if d.BarcodeWidth <= 0 {
		d.BarcodeWidth = DefaultBarcodeWidth
	}
	if d.BarcodeHeight <= 0 {
		d.BarcodeHeight = DefaultBarcodeHeight
	}
	if d.MaxDimension <= 0 {
		d.MaxDimension = DefaultMaxDimension
	}
	return &Generator{defaults: d}
}

// Option customises a single generation
type Option func(*renderOptions)

// WithSize requests an output size. Zero keeps the default for that axis.
func WithSize(width, height int) Option {
	return func(o *renderOptions) {
		if width != 0 {
			o.width = width
		}
		if height != 0 {
			o.height = height
		}
	}
}

func WithColors(fg, bg color.Color) Option {
	return func(o *renderOptions) {
		o.fg, o.bg = fg, bg
	}
}

// WithMargin sets the quiet zone in modules on each side. Linear symbologies
// never go below their standard quiet zone.
func WithMargin(modules int) Option {
	return func(o *renderOptions) {
		o.margin = modules
	}
}

func (g *Generator) options(format models.CodeFormat, width, height int, opts []Option) (renderOptions, error) {
	o := renderOptions{width: width, height: height, margin: DefaultMargin, fg: color.Black, bg: color.White}
	for _, opt := range opts {
		opt(&o)
	}
	if o.width < 0 || o.height < 0 || o.margin < 0 {
		return o, encodingErrf(format, "negative size or margin")
	}
	if o.width > g.defaults.MaxDimension || o.height > g.defaults.MaxDimension {
		return o, encodingErrf(format, "requested size %dx%d exceeds %d", o.width, o.height, g.defaults.MaxDimension)
	}
	return o, nil
}

// GenerateTwoDimensional renders content as a QR code with the highest error
// correction level. Content is encoded as UTF-8 bytes.
func (g *Generator) GenerateTwoDimensional(content string, opts ...Option) (*image.Paletted, error) {
	o, err := g.options(models.FormatQRCode, g.defaults.QRSize, g.defaults.QRSize, opts)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, encodingErr(models.FormatQRCode, errEmptyContent)
	}

	q, err := qrcode.New(content, qrcode.Highest)
	if err != nil {
		return nil, encodingErr(models.FormatQRCode, err)
	}
	q.DisableBorder = true

	return matrixFromRows(q.Bitmap()).render(o), nil
}

// GenerateLinear renders content in a linear symbology, Code 128 when format is empty
func (g *Generator) GenerateLinear(content string, format models.CodeFormat, opts ...Option) (*image.Paletted, error) {
	if format == "" {
		format = models.FormatCode128
	}
	if !format.IsBarcode() {
		return nil, encodingErrf(format, "not a linear symbology")
	}
	o, err := g.options(format, g.defaults.BarcodeWidth, g.defaults.BarcodeHeight, opts)
	if err != nil {
		return nil, err
	}

	m, err := encodeLinear(content, format)
	if err != nil {
		return nil, err
	}
	o.margin = max(o.margin, quietZone(format))
	return m.renderLinear(o), nil
}

// quietZone is the minimum margin in modules a linear symbology needs to be read back
func quietZone(format models.CodeFormat) int {
	switch format {
	case models.FormatEAN13, models.FormatUPCA, models.FormatUPCE:
		return 9
	case models.FormatEAN8:
		return 7
	default:
		return 10
	}
}

// Generate renders any format. It is used to re-create images for history
// records, which only keep content and format. UNKNOWN falls back to QR.
func (g *Generator) Generate(content string, format models.CodeFormat, opts ...Option) (*image.Paletted, error) {
	switch format {
	case models.FormatQRCode, models.FormatUnknown, "":
		return g.GenerateTwoDimensional(content, opts...)
	case models.FormatDataMatrix, models.FormatAztec, models.FormatPDF417:
		o, err := g.options(format, g.defaults.QRSize, g.defaults.QRSize, opts)
		if err != nil {
			return nil, err
		}
		m, err := encodeMatrix(content, format)
		if err != nil {
			return nil, err
		}
		return m.render(o), nil
	default:
		return g.GenerateLinear(content, format, opts...)
	}
}

var errEmptyContent = errors.New("content is empty")

func encodeMatrix(content string, format models.CodeFormat) (*BitMatrix, error) {
	if content == "" {
		return nil, encodingErr(format, errEmptyContent)
	}
	var (
		code bc.Barcode
		err  error
	)
	switch format {
	case models.FormatDataMatrix:
		code, err = datamatrix.Encode(content)
	case models.FormatAztec:
		code, err = aztec.Encode([]byte(content), aztecMinECC, 0)
	case models.FormatPDF417:
		code, err = pdf417.Encode(content, pdf417Security)
	default:
		return nil, encodingErrf(format, "not a matrix symbology")
	}
	if err != nil {
		return nil, encodingErr(format, err)
	}
	return matrixFromImage(code, false), nil
}

func encodeLinear(content string, format models.CodeFormat) (*BitMatrix, error) {
	if content == "" {
		return nil, encodingErr(format, errEmptyContent)
	}
	if format == models.FormatUPCE {
		return encodeUPCE(content)
	}

	var (
		code bc.Barcode
		err  error
	)
	switch format {
	case models.FormatCode128:
		code, err = code128.Encode(content)
	case models.FormatCode39:
		code, err = code39.Encode(content, false, true)
	case models.FormatCode93:
		code, err = code93.Encode(content, true, true)
	case models.FormatCodabar:
		guarded, gerr := codabarGuards(content)
		if gerr != nil {
			return nil, encodingErr(format, gerr)
		}
		code, err = codabar.Encode(guarded)
	case models.FormatEAN13:
		if err := checkProductCode(content, 12, 13); err != nil {
			return nil, encodingErr(format, err)
		}
		code, err = ean.Encode(content)
	case models.FormatEAN8:
		if err := checkProductCode(content, 7, 8); err != nil {
			return nil, encodingErr(format, err)
		}
		code, err = ean.Encode(content)
	case models.FormatUPCA:
		if err := checkProductCode(content, 11, 12); err != nil {
			return nil, encodingErr(format, err)
		}
		// UPC-A is EAN-13 with a leading zero
		code, err = ean.Encode("0" + content)
	case models.FormatITF:
		if err := requireDigits(content); err != nil {
			return nil, encodingErr(format, err)
		}
		if len(content)%2 != 0 {
			return nil, encodingErrf(format, "requires an even number of digits, got %d", len(content))
		}
		code, err = twooffive.Encode(content, true)
	default:
		return nil, encodingErrf(format, "unsupported symbology")
	}
	if err != nil {
		return nil, encodingErr(format, err)
	}
	return matrixFromImage(code, true), nil
}

// checkProductCode validates a UPC/EAN payload of either the bare length or
// the length including the check digit, verifying the check digit when present.
func checkProductCode(content string, bare, withCheck int) error {
	if err := requireDigits(content); err != nil {
		return err
	}
	switch len(content) {
	case bare:
		return nil
	case withCheck:
		want := checksumUPCEAN(content[:bare])
		if got := int(content[bare] - '0'); got != want {
			return fmt.Errorf("check digit %d does not match %d", got, want)
		}
		return nil
	default:
		return fmt.Errorf("requires %d or %d digits, got %d", bare, withCheck, len(content))
	}
}

// codabarGuards adds A start/stop characters when the content has none
func codabarGuards(content string) (string, error) {
	upper := strings.ToUpper(content)
	isGuard := func(c byte) bool { return c >= 'A' && c <= 'D' }
	first, last := isGuard(upper[0]), isGuard(upper[len(upper)-1])
	switch {
	case first && last && len(upper) >= 2:
		return upper, nil
	case !first && !last:
		return "A" + upper + "A", nil
	default:
		return "", fmt.Errorf("start and stop characters must both be present or both be absent")
	}
}
