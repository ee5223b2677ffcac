package models

import (
	"fmt"
	"strings"
)

// CodeType is the coarse classification of a symbology
type CodeType string

const (
	CodeTypeTwoDimensional CodeType = "TWO_DIMENSIONAL"
	CodeTypeLinear         CodeType = "LINEAR"
)

// CodeFormat is a specific symbology
type CodeFormat string

const (
	FormatQRCode     CodeFormat = "QR_CODE"
	FormatDataMatrix CodeFormat = "DATA_MATRIX"
	FormatAztec      CodeFormat = "AZTEC"
	FormatPDF417     CodeFormat = "PDF_417"
	FormatCode128    CodeFormat = "CODE_128"
	FormatCode39     CodeFormat = "CODE_39"
	FormatCode93     CodeFormat = "CODE_93"
	FormatCodabar    CodeFormat = "CODABAR"
	FormatEAN13      CodeFormat = "EAN_13"
	FormatEAN8       CodeFormat = "EAN_8"
	FormatITF        CodeFormat = "ITF"
	FormatUPCA       CodeFormat = "UPC_A"
	FormatUPCE       CodeFormat = "UPC_E"
	FormatUnknown    CodeFormat = "UNKNOWN"
)

// AllFormats lists every known format, UNKNOWN last
var AllFormats = []CodeFormat{
	FormatQRCode, FormatDataMatrix, FormatAztec, FormatPDF417,
	FormatCode128, FormatCode39, FormatCode93, FormatCodabar,
	FormatEAN13, FormatEAN8, FormatITF, FormatUPCA, FormatUPCE,
	FormatUnknown,
}

// RecordType is the provenance of a record and partitions the history
type RecordType string

const (
	RecordTypeScan     RecordType = "SCAN"
	RecordTypeGenerate RecordType = "GENERATE"
)

// Type returns the coarse type of the format. UNKNOWN is treated as linear.
func (f CodeFormat) Type() CodeType {
	switch f {
	case FormatQRCode, FormatDataMatrix, FormatAztec, FormatPDF417:
		return CodeTypeTwoDimensional
	default:
		return CodeTypeLinear
	}
}

// IsBarcode reports whether the format is a known linear symbology
func (f CodeFormat) IsBarcode() bool {
	return f.Type() == CodeTypeLinear && f != FormatUnknown
}

func (f CodeFormat) Valid() bool {
	for _, known := range AllFormats {
		if f == known {
			return true
		}
	}
	return false
}

func (t CodeType) Valid() bool {
	return t == CodeTypeTwoDimensional || t == CodeTypeLinear
}

func (r RecordType) Valid() bool {
	return r == RecordTypeScan || r == RecordTypeGenerate
}

// ParseCodeFormat parses a format name, case-insensitively
func ParseCodeFormat(s string) (CodeFormat, error) {
	f := CodeFormat(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown code format %q", s)
	}
	return f, nil
}

// ParseCodeType parses a coarse type name, case-insensitively
func ParseCodeType(s string) (CodeType, error) {
	t := CodeType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown code type %q", s)
	}
	return t, nil
}

// ParseRecordType parses a record type name, case-insensitively
func ParseRecordType(s string) (RecordType, error) {
	r := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown record type %q", s)
	}
	return r, nil
}
