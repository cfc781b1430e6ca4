package rfb

// FourCC names one of the eight fixed, little-endian direct-colour pixel
// layouts this library knows how to derive a canonical PixelFormat for.
// See original_source/src/pixel_formats.rs for the drm_fourcc.h-style
// naming this table follows.
type FourCC uint32

const (
	FourCCXR24 FourCC = iota // little-endian xRGB, 8:8:8:8
	FourCCRX24               // little-endian RGBx, 8:8:8:8
	FourCCXB24               // little-endian xBGR, 8:8:8:8
	FourCCBX24               // little-endian BGRx, 8:8:8:8
	FourCCRG16               // little-endian RGB, 5:6:5
	FourCCBG16               // little-endian BGR, 5:6:5
	FourCCRGB8               // RGB, 3:3:2
	FourCCBGR8               // BGR, 2:3:3
)

func fourCCCode(s string) uint32 {
	b := []byte(s)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

var fourCCCodes = map[FourCC]uint32{
	FourCCXR24: fourCCCode("XR24"),
	FourCCRX24: fourCCCode("RX24"),
	FourCCXB24: fourCCCode("XB24"),
	FourCCBX24: fourCCCode("BX24"),
	FourCCRG16: fourCCCode("RG16"),
	FourCCBG16: fourCCCode("BG16"),
	FourCCRGB8: fourCCCode("RGB8"),
	FourCCBGR8: fourCCCode("BGR8"),
}

var fourCCFromCode = func() map[uint32]FourCC {
	m := make(map[uint32]FourCC, len(fourCCCodes))
	for fcc, code := range fourCCCodes {
		m[code] = fcc
	}
	return m
}()

// Code returns the 4-byte little-endian ASCII code for the FourCC, e.g.
// FourCCXR24.Code() == 0x34325258 ("XR24" read little-endian).
func (f FourCC) Code() uint32 { return fourCCCodes[f] }

func (f FourCC) String() string {
	switch f {
	case FourCCXR24:
		return "XR24"
	case FourCCRX24:
		return "RX24"
	case FourCCXB24:
		return "XB24"
	case FourCCBX24:
		return "BX24"
	case FourCCRG16:
		return "RG16"
	case FourCCBG16:
		return "BG16"
	case FourCCRGB8:
		return "RGB8"
	case FourCCBGR8:
		return "BGR8"
	default:
		return "Unknown"
	}
}

// ParseFourCC maps a raw 32-bit code to one of the eight known FourCCs.
func ParseFourCC(code uint32) (FourCC, error) {
	f, ok := fourCCFromCode[code]
	if !ok {
		return 0, &UnsupportedFourCCError{Value: code}
	}
	return f, nil
}

// fourCCFamily describes the channel layout the FourCC derives its
// PixelFormat from: channel bit widths, whether channels are packed in
// BGR order (vs RGB order), and the base shift (0, or the pixel's
// padding width for the "x"-padded 888 variants).
type fourCCFamily struct {
	bitsPerPixel uint8
	depth        uint8
	redBits      uint8
	greenBits    uint8
	blueBits     uint8
	bgrOrder     bool
	baseShift    uint8
}

var fourCCFamilies = map[FourCC]fourCCFamily{
	FourCCXR24: {bitsPerPixel: 32, depth: 24, redBits: 8, greenBits: 8, blueBits: 8, bgrOrder: false, baseShift: 0},
	FourCCRX24: {bitsPerPixel: 32, depth: 24, redBits: 8, greenBits: 8, blueBits: 8, bgrOrder: false, baseShift: 8},
	FourCCXB24: {bitsPerPixel: 32, depth: 24, redBits: 8, greenBits: 8, blueBits: 8, bgrOrder: true, baseShift: 0},
	FourCCBX24: {bitsPerPixel: 32, depth: 24, redBits: 8, greenBits: 8, blueBits: 8, bgrOrder: true, baseShift: 8},
	FourCCRG16: {bitsPerPixel: 16, depth: 16, redBits: 5, greenBits: 6, blueBits: 5, bgrOrder: false, baseShift: 0},
	FourCCBG16: {bitsPerPixel: 16, depth: 16, redBits: 5, greenBits: 6, blueBits: 5, bgrOrder: true, baseShift: 0},
	FourCCRGB8: {bitsPerPixel: 8, depth: 8, redBits: 3, greenBits: 3, blueBits: 2, bgrOrder: false, baseShift: 0},
	FourCCBGR8: {bitsPerPixel: 8, depth: 8, redBits: 3, greenBits: 3, blueBits: 2, bgrOrder: true, baseShift: 0},
}

// PixelFormat derives the canonical PixelFormat for f, per the shared
// family template of spec.md §4.C: for channel widths (R,G,B) and base
// shift s, BGR order places red_shift=s, green_shift=s+R, blue_shift=
// s+R+G; RGB order places red_shift=s+G+B, green_shift=s+B, blue_shift=s.
// All eight FourCCs are little-endian.
func (f FourCC) PixelFormat() PixelFormat {
	fam := fourCCFamilies[f]
	maxOf := func(bits uint8) uint16 { return (uint16(1) << bits) - 1 }

	var cf ColorFormat
	if fam.bgrOrder {
		cf = ColorFormat{
			RedMax: maxOf(fam.redBits), GreenMax: maxOf(fam.greenBits), BlueMax: maxOf(fam.blueBits),
			RedShift:   fam.baseShift,
			GreenShift: fam.baseShift + fam.redBits,
			BlueShift:  fam.baseShift + fam.redBits + fam.greenBits,
		}
	} else {
		cf = ColorFormat{
			RedMax: maxOf(fam.redBits), GreenMax: maxOf(fam.greenBits), BlueMax: maxOf(fam.blueBits),
			RedShift:   fam.baseShift + fam.greenBits + fam.blueBits,
			GreenShift: fam.baseShift + fam.blueBits,
			BlueShift:  fam.baseShift,
		}
	}

	return PixelFormat{
		BitsPerPixel: fam.bitsPerPixel,
		Depth:        fam.depth,
		BigEndian:    false,
		ColorSpec:    ColorSpecification{TrueColor: true, Color: cf},
	}
}
