package rfb

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPixelFormatWireRoundTrip(t *testing.T) {
	pf := FourCCXR24.PixelFormat()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, pf.writeTo(w))
	require.NoError(t, w.Flush())
	require.Equal(t, 16, buf.Len())

	got, err := readPixelFormat(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, pf, got)
}

func TestPixelFormatValidateAcceptsAllFourCCFamilies(t *testing.T) {
	for _, fcc := range []FourCC{
		FourCCXR24, FourCCRX24, FourCCXB24, FourCCBX24,
		FourCCRG16, FourCCBG16, FourCCRGB8, FourCCBGR8,
	} {
		require.NoError(t, fcc.PixelFormat().Validate(), "fourcc %s", fcc)
	}
}

func TestPixelFormatValidateRejectsBadBitsPerPixel(t *testing.T) {
	pf := FourCCXR24.PixelFormat()
	pf.BitsPerPixel = 24
	err := pf.Validate()
	require.Error(t, err)
	require.IsType(t, &InvalidPixelFormatError{}, err)
}

func TestPixelFormatValidateRejectsDepthAboveBitsPerPixel(t *testing.T) {
	pf := FourCCXR24.PixelFormat()
	pf.Depth = 40
	require.Error(t, pf.Validate())
}

func TestPixelFormatValidateRejectsNonPowerOfTwoMinusOneChannelMax(t *testing.T) {
	pf := FourCCXR24.PixelFormat()
	pf.ColorSpec.Color.RedMax = 200
	require.Error(t, pf.Validate())
}

func TestPixelFormatValidateRejectsBadShift(t *testing.T) {
	pf := FourCCXR24.PixelFormat()
	pf.ColorSpec.Color.RedShift = 3
	require.Error(t, pf.Validate())
}

func TestPixelFormatValidateRejectsColorMap(t *testing.T) {
	pf := PixelFormat{BitsPerPixel: 8, Depth: 8, ColorSpec: ColorSpecification{TrueColor: false}}
	err := pf.Validate()
	require.Error(t, err)
	require.IsType(t, &ColorMapUnsupportedError{}, err)
}

func TestIsRGB888(t *testing.T) {
	require.True(t, FourCCXR24.PixelFormat().IsRGB888())
	require.True(t, FourCCBX24.PixelFormat().IsRGB888())
	require.False(t, FourCCRG16.PixelFormat().IsRGB888())
	require.False(t, FourCCRGB8.PixelFormat().IsRGB888())
}

func TestReadColorSpecificationRejectsColorMapFlag(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0}))
	_, err := readColorSpecification(r)
	require.Error(t, err)
	require.IsType(t, &ColorMapUnsupportedError{}, err)
}
