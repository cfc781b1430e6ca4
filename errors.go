package rfb

import "fmt"

// ProtocolViolationError signals malformed framing, an unknown message
// leading byte, an invalid version string, or any other wire-level
// violation that isn't covered by a more specific error type.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// UnsupportedVersionError is returned when the client's requested
// ProtocolVersion is numerically lower than the server's configured
// version.
type UnsupportedVersionError struct {
	Client ProtocolVersion
	Server ProtocolVersion
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported client version %s (server version %s)", e.Client, e.Server)
}

// UnsupportedSecurityError is returned when the client's chosen
// security type is not in the server's advertised set.
type UnsupportedSecurityError struct {
	Choice byte
}

func (e *UnsupportedSecurityError) Error() string {
	return fmt.Sprintf("unsupported security type choice: %d", e.Choice)
}

// UnsupportedFourCCError is returned by FourCC decoding for any value
// outside the eight registered codes.
type UnsupportedFourCCError struct {
	Value uint32
}

func (e *UnsupportedFourCCError) Error() string {
	return fmt.Sprintf("unsupported or unknown fourcc: 0x%08x", e.Value)
}

// InvalidPixelFormatError is returned when a PixelFormat fails the
// invariants of §4.B: bpp outside {8,16,32}, depth > bpp, a channel max
// not of the form 2^k-1, a zero channel max, or a shift outside the set
// valid for the implied channel family.
type InvalidPixelFormatError struct {
	Reason string
}

func (e *InvalidPixelFormatError) Error() string {
	return fmt.Sprintf("invalid pixel format: %s", e.Reason)
}

// ColorMapUnsupportedError is returned when a read or transcode
// operation encounters an indexed-colour (colour-map) pixel format.
type ColorMapUnsupportedError struct{}

func (e *ColorMapUnsupportedError) Error() string {
	return "colour-map pixel format is not supported"
}
