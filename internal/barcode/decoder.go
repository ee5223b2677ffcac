package barcode

import (
	"image"

	"codescan/internal/models"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder finds at most one code in an image. Readers keep per-call state, so a
// Decoder must not be shared between goroutines; each scan session owns one.
type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewDecoder() *Decoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &Decoder{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			datamatrix.NewDataMatrixReader(),
			aztec.NewAztecReader(),
			oned.NewMultiFormatUPCEANReader(hints),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewCode93Reader(),
			oned.NewCodaBarReader(),
			oned.NewITFReader(),
		},
		hints: hints,
	}
}

// Decode returns the first code found. A miss is not an error.
func (d *Decoder) Decode(img image.Image) (models.ScanResult, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return models.ScanResult{}, false
	}
	for _, reader := range d.readers {
		res, err := reader.Decode(bmp, d.hints)
		reader.Reset()
		if err != nil || res.GetText() == "" {
			continue
		}
		format, codeType := ClassifyFormat(res.GetBarcodeFormat())
		return models.ScanResult{Content: res.GetText(), Type: codeType, Format: format}, true
	}
	return models.ScanResult{}, false
}
