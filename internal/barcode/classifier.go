package barcode

import (
	"codescan/internal/models"

	"github.com/makiuchi-d/gozxing"
)

// ClassifyFormat maps a gozxing symbology onto the internal format and coarse type.
// Symbologies without an internal counterpart are UNKNOWN.
func ClassifyFormat(f gozxing.BarcodeFormat) (models.CodeFormat, models.CodeType) {
	var format models.CodeFormat
	switch f {
	case gozxing.BarcodeFormat_QR_CODE:
		format = models.FormatQRCode
	case gozxing.BarcodeFormat_DATA_MATRIX:
		format = models.FormatDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		format = models.FormatAztec
	case gozxing.BarcodeFormat_PDF_417:
		format = models.FormatPDF417
	case gozxing.BarcodeFormat_CODE_128:
		format = models.FormatCode128
	case gozxing.BarcodeFormat_CODE_39:
		format = models.FormatCode39
	case gozxing.BarcodeFormat_CODE_93:
		format = models.FormatCode93
	case gozxing.BarcodeFormat_CODABAR:
		format = models.FormatCodabar
	case gozxing.BarcodeFormat_EAN_13:
		format = models.FormatEAN13
	case gozxing.BarcodeFormat_EAN_8:
		format = models.FormatEAN8
	case gozxing.BarcodeFormat_ITF:
		format = models.FormatITF
	case gozxing.BarcodeFormat_UPC_A:
		format = models.FormatUPCA
	case gozxing.BarcodeFormat_UPC_E:
		format = models.FormatUPCE
	default:
		format = models.FormatUnknown
	}
	return format, format.Type()
}

// Symbology codes reported by ML Kit's barcode scanner on devices
const (
	MLKitCode128    = 1
	MLKitCode39     = 2
	MLKitCode93     = 4
	MLKitCodabar    = 8
	MLKitDataMatrix = 16
	MLKitEAN13      = 32
	MLKitEAN8       = 64
	MLKitITF        = 128
	MLKitQRCode     = 256
	MLKitUPCA       = 512
	MLKitUPCE       = 1024
	MLKitPDF417     = 2048
	MLKitAztec      = 4096
)

// ClassifyMLKit maps an ML Kit symbology code onto the internal format and coarse type
func ClassifyMLKit(code int) (models.CodeFormat, models.CodeType) {
	var format models.CodeFormat
	switch code {
	case MLKitQRCode:
		format = models.FormatQRCode
	case MLKitDataMatrix:
		format = models.FormatDataMatrix
	case MLKitAztec:
		format = models.FormatAztec
	case MLKitPDF417:
		format = models.FormatPDF417
	case MLKitCode128:
		format = models.FormatCode128
	case MLKitCode39:
		format = models.FormatCode39
	case MLKitCode93:
		format = models.FormatCode93
	case MLKitCodabar:
		format = models.FormatCodabar
	case MLKitEAN13:
		format = models.FormatEAN13
	case MLKitEAN8:
		format = models.FormatEAN8
	case MLKitITF:
		format = models.FormatITF
	case MLKitUPCA:
		format = models.FormatUPCA
	case MLKitUPCE:
		format = models.FormatUPCE
	default:
		format = models.FormatUnknown
	}
	return format, format.Type()
}
