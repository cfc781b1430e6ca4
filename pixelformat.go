package rfb

import (
	"bufio"
	"fmt"

	"github.com/pkg/errors"
)

// PixelFormat describes how a pixel's bits map to bits-per-pixel, depth,
// endianness, and channel layout (RFC 6143 §7.4). Only direct-colour
// (ColorFormat) layouts are supported; ColorMap (indexed colour) is
// declared in the wire format but rejected everywhere in this library.
type PixelFormat struct {
	BitsPerPixel uint8
	Depth        uint8
	BigEndian    bool
	ColorSpec    ColorSpecification
}

// ColorSpecification is either a direct-colour ColorFormat or an
// indexed ColorMap. ColorMap is never populated by this library; it
// exists only so the wire codec can recognize and reject it.
type ColorSpecification struct {
	TrueColor bool
	Color     ColorFormat // valid only when TrueColor
}

// ColorFormat gives the per-channel maximum value and bit shift within
// the pixel word.
type ColorFormat struct {
	RedMax, GreenMax, BlueMax       uint16
	RedShift, GreenShift, BlueShift uint8
}

// IsRGB888 reports whether pf is the canonical 32-bit, depth-24
// direct-colour format with all channel maxes at 255 and shifts on a
// byte boundary — the only format the message loop (conn.go) will ever
// transcode to or from. Transform (transform.go) itself accepts any
// direct-colour format with 8, 16 or 32 bits per pixel.
func (pf PixelFormat) IsRGB888() bool {
	if pf.BitsPerPixel != 32 || pf.Depth != 24 || !pf.ColorSpec.TrueColor {
		return false
	}
	cf := pf.ColorSpec.Color
	if cf.RedMax != 255 || cf.GreenMax != 255 || cf.BlueMax != 255 {
		return false
	}
	return isByteShift(cf.RedShift) && isByteShift(cf.GreenShift) && isByteShift(cf.BlueShift)
}

func isByteShift(s uint8) bool {
	return s == 0 || s == 8 || s == 16 || s == 24
}

// Validate checks pf against the invariants of §3/§4.B: bits-per-pixel
// must be 8, 16, or 32; depth must not exceed bits-per-pixel; for a
// direct-colour format, every channel max must be of the form 2^k-1 for
// some k >= 1, and every shift must be one a server advertising this
// channel-width family could produce (see validShiftsForWidths).
func (pf PixelFormat) Validate() error {
	switch pf.BitsPerPixel {
	case 8, 16, 32:
	default:
		return &InvalidPixelFormatError{Reason: fmt.Sprintf("bits_per_pixel %d not in {8,16,32}", pf.BitsPerPixel)}
	}
	if pf.Depth > pf.BitsPerPixel {
		return &InvalidPixelFormatError{Reason: fmt.Sprintf("depth %d exceeds bits_per_pixel %d", pf.Depth, pf.BitsPerPixel)}
	}
	if !pf.ColorSpec.TrueColor {
		return &ColorMapUnsupportedError{}
	}

	cf := pf.ColorSpec.Color
	rBits, err := channelBits("red", cf.RedMax)
	if err != nil {
		return err
	}
	gBits, err := channelBits("green", cf.GreenMax)
	if err != nil {
		return err
	}
	bBits, err := channelBits("blue", cf.BlueMax)
	if err != nil {
		return err
	}

	valid := validShiftsForWidths(pf.BitsPerPixel, pf.Depth, rBits, gBits, bBits)
	if !valid[cf.RedShift] {
		return &InvalidPixelFormatError{Reason: fmt.Sprintf("red_shift %d invalid for this channel family", cf.RedShift)}
	}
	if !valid[cf.GreenShift] {
		return &InvalidPixelFormatError{Reason: fmt.Sprintf("green_shift %d invalid for this channel family", cf.GreenShift)}
	}
	if !valid[cf.BlueShift] {
		return &InvalidPixelFormatError{Reason: fmt.Sprintf("blue_shift %d invalid for this channel family", cf.BlueShift)}
	}
	return nil
}

// channelBits returns k such that max == 2^k - 1, k >= 1. A zero max or
// any value not of that form is an InvalidPixelFormatError.
func channelBits(name string, max uint16) (uint8, error) {
	if max == 0 {
		return 0, &InvalidPixelFormatError{Reason: name + "_max is zero"}
	}
	for k := uint8(1); k <= 16; k++ {
		if max == (uint16(1)<<k)-1 {
			return k, nil
		}
	}
	return 0, &InvalidPixelFormatError{Reason: fmt.Sprintf("%s_max %d is not of the form 2^k-1", name, max)}
}

// validShiftsForWidths generalizes the per-family shift tables of
// §4.C/§9: given the bits-per-pixel, depth, and the three channel
// widths, a shift is valid if it places the channel at a byte/bit
// boundary reachable by packing R, G, B contiguously starting at either
// base 0 or base (bitsPerPixel - depth) — i.e. the "BGR order" and "RGB
// order" placements spec.md §4.C defines, in either padding position.
func validShiftsForWidths(bitsPerPixel, depth, rBits, gBits, bBits uint8) map[uint8]bool {
	valid := map[uint8]bool{}
	bases := []uint8{0}
	if pad := bitsPerPixel - depth; pad != 0 {
		bases = append(bases, pad)
	}
	for _, base := range bases {
		// BGR order: red=base, green=base+R, blue=base+R+G
		valid[base] = true
		valid[base+rBits] = true
		valid[base+rBits+gBits] = true
		// RGB order: red=base+G+B, green=base+B, blue=base
		valid[base+gBits+bBits] = true
		valid[base+bBits] = true
	}
	return valid
}

// readPixelFormat reads the §4.F PixelFormat wire layout: u8 bpp, u8
// depth, u8 big-endian flag, ColorSpecification, 3 bytes padding.
func readPixelFormat(r *bufio.Reader) (PixelFormat, error) {
	bpp, err := r.ReadByte()
	if err != nil {
		return PixelFormat{}, errors.Wrap(err, "reading pixel format bits_per_pixel")
	}
	depth, err := r.ReadByte()
	if err != nil {
		return PixelFormat{}, errors.Wrap(err, "reading pixel format depth")
	}
	beFlag, err := r.ReadByte()
	if err != nil {
		return PixelFormat{}, errors.Wrap(err, "reading pixel format big_endian flag")
	}
	spec, err := readColorSpecification(r)
	if err != nil {
		return PixelFormat{}, err
	}
	if err := readPadding(r, 3); err != nil {
		return PixelFormat{}, errors.Wrap(err, "reading pixel format padding")
	}
	return PixelFormat{
		BitsPerPixel: bpp,
		Depth:        depth,
		BigEndian:    beFlag != 0,
		ColorSpec:    spec,
	}, nil
}

func (pf PixelFormat) writeTo(w *bufio.Writer) error {
	if err := w.WriteByte(pf.BitsPerPixel); err != nil {
		return errors.Wrap(err, "writing pixel format bits_per_pixel")
	}
	if err := w.WriteByte(pf.Depth); err != nil {
		return errors.Wrap(err, "writing pixel format depth")
	}
	be := byte(0)
	if pf.BigEndian {
		be = 1
	}
	if err := w.WriteByte(be); err != nil {
		return errors.Wrap(err, "writing pixel format big_endian flag")
	}
	if err := pf.ColorSpec.writeTo(w); err != nil {
		return err
	}
	return errors.Wrap(writePadding(w, 3), "writing pixel format padding")
}

// readColorSpecification reads the §4.F ColorSpecification: a u8
// true-colour flag, then (only when set) six fields for ColorFormat.
// Reading a ColorMap specification (flag == 0) fails: the wire format
// for indexed colour is not specified upstream and is out of scope here.
func readColorSpecification(r *bufio.Reader) (ColorSpecification, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading color specification flag")
	}
	if flag == 0 {
		return ColorSpecification{}, &ColorMapUnsupportedError{}
	}
	redMax, err := readU16(r)
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading red_max")
	}
	greenMax, err := readU16(r)
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading green_max")
	}
	blueMax, err := readU16(r)
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading blue_max")
	}
	redShift, err := r.ReadByte()
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading red_shift")
	}
	greenShift, err := r.ReadByte()
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading green_shift")
	}
	blueShift, err := r.ReadByte()
	if err != nil {
		return ColorSpecification{}, errors.Wrap(err, "reading blue_shift")
	}
	return ColorSpecification{
		TrueColor: true,
		Color: ColorFormat{
			RedMax: redMax, GreenMax: greenMax, BlueMax: blueMax,
			RedShift: redShift, GreenShift: greenShift, BlueShift: blueShift,
		},
	}, nil
}

func (spec ColorSpecification) writeTo(w *bufio.Writer) error {
	if !spec.TrueColor {
		return &ColorMapUnsupportedError{}
	}
	if err := w.WriteByte(1); err != nil {
		return errors.Wrap(err, "writing color specification flag")
	}
	cf := spec.Color
	for _, v := range []uint16{cf.RedMax, cf.GreenMax, cf.BlueMax} {
		if err := writeU16(w, v); err != nil {
			return errors.Wrap(err, "writing color max")
		}
	}
	for _, v := range []uint8{cf.RedShift, cf.GreenShift, cf.BlueShift} {
		if err := w.WriteByte(v); err != nil {
			return errors.Wrap(err, "writing color shift")
		}
	}
	return nil
}
