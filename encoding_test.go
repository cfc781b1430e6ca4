package rfb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodingTypeStringKnownAndOther(t *testing.T) {
	require.Equal(t, "Raw", EncodingRaw.String())
	require.True(t, EncodingRaw.Known())

	other := EncodingType(9999)
	require.Equal(t, "Other(9999)", other.String())
	require.False(t, other.Known())
}

func TestRawEncodingEncodeReturnsPixels(t *testing.T) {
	pixels := []byte{1, 2, 3, 4}
	enc := &RawEncoding{Pixels: pixels}
	require.Equal(t, EncodingRaw, enc.Type())
	require.Equal(t, pixels, enc.Encode())
}

func TestRawEncodingTransform(t *testing.T) {
	enc := &RawEncoding{Pixels: []byte{0x12, 0x34, 0x56, 0x78}}
	out, err := enc.Transform(FourCCXR24.PixelFormat(), FourCCRX24.PixelFormat())
	require.NoError(t, err)

	raw, ok := out.(*RawEncoding)
	require.True(t, ok)
	require.Equal(t, []byte{0x00, 0x12, 0x34, 0x56}, raw.Pixels)
}
