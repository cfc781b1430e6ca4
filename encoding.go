package rfb

import "fmt"

// EncodingType is the closed i32 encoding-type enumeration of spec.md
// §3. It is a plain integer type rather than a sum type: every i32
// value is already a legal EncodingType (round-tripping through the
// known constants below, or standing for itself when it isn't one of
// them), so decode can never fail — an unrecognized code is simply an
// EncodingType the String method doesn't have a name for, which is
// exactly the "Other(i32)" escape spec.md describes.
type EncodingType int32

const (
	EncodingRaw               EncodingType = 0
	EncodingCopyRect          EncodingType = 1
	EncodingRRE               EncodingType = 2
	EncodingHextile           EncodingType = 5
	EncodingZlib              EncodingType = 6
	EncodingTRLE              EncodingType = 15
	EncodingZRLE              EncodingType = 16
	EncodingJPEG              EncodingType = 21
	EncodingJRLE              EncodingType = 22
	EncodingZRLE2             EncodingType = 24
	EncodingCursorPseudo      EncodingType = -239
	EncodingDesktopSizePseudo EncodingType = -223
	EncodingCursorWithAlpha   EncodingType = -314
)

var encodingTypeNames = map[EncodingType]string{
	EncodingRaw:               "Raw",
	EncodingCopyRect:          "CopyRect",
	EncodingRRE:               "RRE",
	EncodingHextile:           "Hextile",
	EncodingZlib:              "Zlib",
	EncodingTRLE:              "TRLE",
	EncodingZRLE:              "ZRLE",
	EncodingJPEG:              "JPEG",
	EncodingJRLE:              "JRLE",
	EncodingZRLE2:             "ZRLE2",
	EncodingCursorPseudo:      "CursorPseudo",
	EncodingDesktopSizePseudo: "DesktopSizePseudo",
	EncodingCursorWithAlpha:   "CursorWithAlpha",
}

func (t EncodingType) String() string {
	if name, ok := encodingTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Other(%d)", int32(t))
}

// Known reports whether t is one of the named encoding types rather
// than an unrecognized "Other" code.
func (t EncodingType) Known() bool {
	_, ok := encodingTypeNames[t]
	return ok
}

// Encoding is the capability set every rectangle payload implements
// (spec.md §3). Only RawEncoding is ever produced by this server; the
// others are declared in the EncodingType taxonomy so that SetEncodings
// and unknown-rectangle decoding have somewhere to go, but this library
// never constructs them.
type Encoding interface {
	Type() EncodingType
	Encode() []byte
	Transform(in, out PixelFormat) (Encoding, error)
}

// RawEncoding carries an uncompressed pixel buffer in the sender's
// current pixel format, one row after another with no padding between
// rows.
type RawEncoding struct {
	Pixels []byte
}

func (e *RawEncoding) Type() EncodingType { return EncodingRaw }

func (e *RawEncoding) Encode() []byte { return e.Pixels }

// Transform returns a new RawEncoding whose pixels have been transcoded
// from in to out via Transform (transform.go).
func (e *RawEncoding) Transform(in, out PixelFormat) (Encoding, error) {
	pixels, err := Transform(e.Pixels, in, out)
	if err != nil {
		return nil, err
	}
	return &RawEncoding{Pixels: pixels}, nil
}
