package barcode

import (
	"fmt"

	"codescan/internal/models"
)

// Left-hand odd (L) and even (G) parity digit patterns, 7 modules each
var (
	upcLPatterns = [10]string{
		"0001101", "0011001", "0010011", "0111101", "0100011",
		"0110001", "0101111", "0111011", "0110111", "0001011",
	}
	upcGPatterns = [10]string{
		"0100111", "0110011", "0011011", "0100001", "0011101",
		"0111001", "0000101", "0010001", "0001001", "0010111",
	}
	// parity of the six UPC-E digits, indexed by number system then check digit; a set bit selects G
	upceParities = [2][10]int{
		{0x38, 0x34, 0x32, 0x31, 0x2C, 0x26, 0x23, 0x2A, 0x29, 0x25},
		{0x07, 0x0B, 0x0D, 0x0E, 0x13, 0x19, 0x1C, 0x15, 0x16, 0x1A},
	}
)

const (
	upceStartGuard = "101"
	upceEndGuard   = "010101"
)

// encodeUPCE encodes 7 digits (check digit computed) or 8 digits (check digit verified)
// into a single-row matrix of 51 modules.
func encodeUPCE(content string) (*BitMatrix, error) {
	if err := requireDigits(content); err != nil {
		return nil, encodingErr(models.FormatUPCE, err)
	}
	if len(content) != 7 && len(content) != 8 {
		return nil, encodingErrf(models.FormatUPCE, "requires 7 or 8 digits, got %d", len(content))
	}
	numberSystem := int(content[0] - '0')
	if numberSystem > 1 {
		return nil, encodingErrf(models.FormatUPCE, "number system must be 0 or 1, got %d", numberSystem)
	}

	upca := expandUPCE(content[:7])
	check := checksumUPCEAN(upca)
	if len(content) == 8 {
		if got := int(content[7] - '0'); got != check {
			return nil, encodingErrf(models.FormatUPCE, "check digit %d does not match %d", got, check)
		}
	}

	pattern := upceStartGuard
	parities := upceParities[numberSystem][check]
	for i := 1; i <= 6; i++ {
		digit := content[i] - '0'
		if parities>>(6-i)&1 == 1 {
			pattern += upcGPatterns[digit]
		} else {
			pattern += upcLPatterns[digit]
		}
	}
	pattern += upceEndGuard

	m := NewBitMatrix(len(pattern), 1)
	for x, c := range pattern {
		m.Set(x, 0, c == '1')
	}
	return m, nil
}

// expandUPCE converts the number system and six UPC-E digits into the
// eleven UPC-A digits that precede the check digit.
func expandUPCE(upce string) string {
	ns, d := upce[:1], upce[1:7]
	switch last := d[5]; last {
	case '0', '1', '2':
		return ns + d[0:2] + string(last) + "0000" + d[2:5]
	case '3':
		return ns + d[0:3] + "00000" + d[3:5]
	case '4':
		return ns + d[0:4] + "00000" + d[4:5]
	default:
		return ns + d[0:5] + "0000" + string(last)
	}
}

// checksumUPCEAN computes the UPC/EAN check digit for the digits preceding it
func checksumUPCEAN(digits string) int {
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		// the digit next to the check digit has weight 3
		if (len(digits)-1-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

func requireDigits(content string) error {
	for i := 0; i < len(content); i++ {
		if content[i] < '0' || content[i] > '9' {
			return fmt.Errorf("content must be numeric, found %q at position %d", content[i], i)
		}
	}
	return nil
}
