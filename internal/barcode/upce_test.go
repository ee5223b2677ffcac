package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandUPCE(t *testing.T) {
	tests := map[string]string{
		"0123450": "01200000345",
		"0123451": "01210000345",
		"0123453": "01230000045",
		"0123454": "01234000005",
		"0123456": "01234500006",
		"1987659": "19876500009",
	}
	for in, want := range tests {
		assert.Equal(t, want, expandUPCE(in), in)
	}
}

func TestChecksumUPCEAN(t *testing.T) {
	assert.Equal(t, 1, checksumUPCEAN("400638133393"))
	assert.Equal(t, 2, checksumUPCEAN("03600029145"))
	assert.Equal(t, 4, checksumUPCEAN("9638507"))
	assert.Equal(t, 5, checksumUPCEAN("01234500006"))
}

func TestEncodeUPCE(t *testing.T) {
	m, err := encodeUPCE("0123456")
	require.NoError(t, err)
	assert.Equal(t, 51, m.Width())
	assert.Equal(t, 1, m.Height())

	// start guard 101
	assert.True(t, m.Get(0, 0))
	assert.False(t, m.Get(1, 0))
	assert.True(t, m.Get(2, 0))
	// end guard 010101
	assert.False(t, m.Get(45, 0))
	assert.True(t, m.Get(50, 0))

	withCheck, err := encodeUPCE("01234565")
	require.NoError(t, err)
	assert.Equal(t, m.bits, withCheck.bits)
}
