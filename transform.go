package rfb

// Transform converts a buffer of pixels from the input PixelFormat to
// the output PixelFormat, per spec.md §4.D.
//
// To see why this needs to be endian-aware, consider the 32-bit pixel
// value 0x01020304 with red at shift 0, green at shift 8, blue at shift
// 16 (little-endian xBGR). As a byte vector on a little-endian host that
// is [0x04, 0x03, 0x02, 0x01] — red = pixel[0], green = pixel[1], blue =
// pixel[2]. The same shifts on a big-endian pixel select different
// *bytes* even though the shift values and channel meanings haven't
// changed; Transform always reasons in terms of the 32-bit word, reading
// and writing the bytes at each end according to each format's declared
// endianness, so the shift/mask logic in the middle never needs to know
// which host it's running on.
//
// Transform only supports direct-colour formats with bits-per-pixel in
// {8, 16, 32}; anything else returns ColorMapUnsupportedError or
// InvalidPixelFormatError. If in == out, Transform returns a copy of
// pixels unchanged.
func Transform(pixels []byte, in, out PixelFormat) ([]byte, error) {
	if !in.ColorSpec.TrueColor || !out.ColorSpec.TrueColor {
		return nil, &ColorMapUnsupportedError{}
	}
	if in == out {
		cp := make([]byte, len(pixels))
		copy(cp, pixels)
		return cp, nil
	}

	inBytesPerPixel, err := bytesPerPixel(in.BitsPerPixel)
	if err != nil {
		return nil, err
	}
	outBytesPerPixel, err := bytesPerPixel(out.BitsPerPixel)
	if err != nil {
		return nil, err
	}

	inCF := in.ColorSpec.Color
	outCF := out.ColorSpec.Color
	if inCF.RedMax == 0 || inCF.GreenMax == 0 || inCF.BlueMax == 0 {
		return nil, &InvalidPixelFormatError{Reason: "input channel max is zero"}
	}

	inBEShift := uint(8 * (4 - inBytesPerPixel))
	outBEShift := uint(8 * (4 - outBytesPerPixel))

	n := len(pixels) / inBytesPerPixel
	buf := make([]byte, 0, n*outBytesPerPixel)

	for i := 0; i+inBytesPerPixel <= len(pixels); i += inBytesPerPixel {
		word := readPixelWord(pixels[i:i+inBytesPerPixel], in.BigEndian, inBEShift)

		r := (word >> inCF.RedShift) & uint32(inCF.RedMax)
		g := (word >> inCF.GreenShift) & uint32(inCF.GreenMax)
		b := (word >> inCF.BlueShift) & uint32(inCF.BlueMax)

		r = r * uint32(outCF.RedMax) / uint32(inCF.RedMax)
		g = g * uint32(outCF.GreenMax) / uint32(inCF.GreenMax)
		b = b * uint32(outCF.BlueMax) / uint32(inCF.BlueMax)

		outWord := (r << outCF.RedShift) | (g << outCF.GreenShift) | (b << outCF.BlueShift)
		buf = append(buf, writePixelWord(outWord, out.BigEndian, outBEShift, outBytesPerPixel)...)
	}

	return buf, nil
}

func bytesPerPixel(bitsPerPixel uint8) (int, error) {
	switch bitsPerPixel {
	case 8:
		return 1, nil
	case 16:
		return 2, nil
	case 32:
		return 4, nil
	default:
		return 0, &InvalidPixelFormatError{Reason: "bits_per_pixel not in {8,16,32}"}
	}
}

func readPixelWord(b []byte, bigEndian bool, beShift uint) uint32 {
	var full [4]byte
	if bigEndian {
		copy(full[:len(b)], b)
		word := uint32(full[0])<<24 | uint32(full[1])<<16 | uint32(full[2])<<8 | uint32(full[3])
		return word >> beShift
	}
	copy(full[:len(b)], b)
	return uint32(full[0]) | uint32(full[1])<<8 | uint32(full[2])<<16 | uint32(full[3])<<24
}

func writePixelWord(word uint32, bigEndian bool, beShift uint, outBytes int) []byte {
	if bigEndian {
		word <<= beShift
		full := []byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}
		return full[:outBytes]
	}
	full := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
	return full[:outBytes]
}
