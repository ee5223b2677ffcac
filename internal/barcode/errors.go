package barcode

import (
	"errors"
	"fmt"

	"codescan/internal/models"
)

// ErrEncoding matches every *EncodingError via errors.Is
var ErrEncoding = errors.New("barcode: encoding failed")

// EncodingError reports content that cannot be encoded in the requested symbology
type EncodingError struct {
	Format models.CodeFormat
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %s: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

func encodingErr(format models.CodeFormat, err error) error {
	return &EncodingError{Format: format, Err: err}
}

func encodingErrf(format models.CodeFormat, msg string, args ...any) error {
	return &EncodingError{Format: format, Err: fmt.Errorf(msg, args...)}
}
