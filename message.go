package rfb

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Rectangle is one rectangle of a FramebufferUpdate: a position, a
// size, and an encoded payload (§3, §4.F).
type Rectangle struct {
	Position   Position
	Dimensions Resolution
	Payload    Encoding
}

func (r Rectangle) writeTo(w *bufio.Writer) error {
	if err := r.Position.writeTo(w); err != nil {
		return err
	}
	if err := r.Dimensions.writeTo(w); err != nil {
		return err
	}
	if err := writeI32(w, int32(r.Payload.Type())); err != nil {
		return errors.Wrap(err, "writing rectangle encoding type")
	}
	if _, err := w.Write(r.Payload.Encode()); err != nil {
		return errors.Wrap(err, "writing rectangle payload")
	}
	return nil
}

// readRawRectangle reads a rectangle header and, when the encoding type
// is Raw, its raw pixel body (bitsPerPixel bits per pixel, no padding).
// Any other encoding type is a ProtocolViolationError: this server never
// sends non-Raw rectangles, and it has no client role that would need to
// decode one.
func readRawRectangle(r *bufio.Reader, bitsPerPixel uint8) (Rectangle, error) {
	pos, err := readPosition(r)
	if err != nil {
		return Rectangle{}, err
	}
	dim, err := readResolution(r)
	if err != nil {
		return Rectangle{}, err
	}
	encType, err := readI32(r)
	if err != nil {
		return Rectangle{}, errors.Wrap(err, "reading rectangle encoding type")
	}
	if EncodingType(encType) != EncodingRaw {
		return Rectangle{}, &ProtocolViolationError{Reason: "non-Raw rectangle encoding not supported for reading"}
	}
	bytesPP, err := bytesPerPixel(bitsPerPixel)
	if err != nil {
		return Rectangle{}, err
	}
	n := int(dim.Width) * int(dim.Height) * bytesPP
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Rectangle{}, errors.Wrap(err, "reading rectangle pixels")
	}
	return Rectangle{Position: pos, Dimensions: dim, Payload: &RawEncoding{Pixels: buf}}, nil
}

// FramebufferUpdate is an ordered sequence of rectangles (§3).
type FramebufferUpdate struct {
	Rectangles []Rectangle
}

// writeTo writes the §4.F FramebufferUpdate framing: u8 message-type=0,
// u8 padding=0, u16 rectangle count, then each rectangle.
func (u FramebufferUpdate) writeTo(w *bufio.Writer) error {
	if err := w.WriteByte(0); err != nil {
		return errors.Wrap(err, "writing framebuffer update message type")
	}
	if err := w.WriteByte(0); err != nil {
		return errors.Wrap(err, "writing framebuffer update padding")
	}
	if len(u.Rectangles) > 0xffff {
		return &ProtocolViolationError{Reason: "too many rectangles in framebuffer update"}
	}
	if err := writeU16(w, uint16(len(u.Rectangles))); err != nil {
		return errors.Wrap(err, "writing rectangle count")
	}
	for _, rect := range u.Rectangles {
		if err := rect.writeTo(w); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ClientInit is the §4.F/§7.3.1 ClientInit message: a single byte, zero
// for exclusive access and non-zero for shared.
type ClientInit struct {
	Shared bool
}

func readClientInit(r *bufio.Reader) (ClientInit, error) {
	b, err := r.ReadByte()
	if err != nil {
		return ClientInit{}, errors.Wrap(err, "reading client init")
	}
	return ClientInit{Shared: b != 0}, nil
}

// ServerInit is the §4.F/§7.3.2 ServerInit message: initial resolution,
// pixel format, and a u32-length-prefixed name.
type ServerInit struct {
	InitialResolution Resolution
	PixelFormat       PixelFormat
	Name              string
}

func (s ServerInit) writeTo(w *bufio.Writer) error {
	if err := s.InitialResolution.writeTo(w); err != nil {
		return err
	}
	if err := s.PixelFormat.writeTo(w); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(s.Name))); err != nil {
		return errors.Wrap(err, "writing server name length")
	}
	if _, err := io.WriteString(w, s.Name); err != nil {
		return errors.Wrap(err, "writing server name")
	}
	return w.Flush()
}

// ClientMessageType is the leading byte of every client-to-server
// message (§4.F).
type ClientMessageType byte

const (
	ClientMessageSetPixelFormat           ClientMessageType = 0
	ClientMessageSetEncodings             ClientMessageType = 2
	ClientMessageFramebufferUpdateRequest ClientMessageType = 3
	ClientMessageKeyEvent                 ClientMessageType = 4
	ClientMessagePointerEvent             ClientMessageType = 5
	ClientMessageClientCutText            ClientMessageType = 6
)

// FramebufferUpdateRequest is the §4.F/§7.5.3 client request.
type FramebufferUpdateRequest struct {
	Incremental bool
	Position    Position
	Resolution  Resolution
}

// KeyEvent is the §4.F/§7.5.4 client request.
type KeyEvent struct {
	IsPressed bool
	Key       Keysym
}

// MouseButtons is the §4.F pointer-event button mask: bit 0 is the left
// button, bit 1 middle, bit 2 right, bits 3-6 scroll wheel A-D.
type MouseButtons uint8

const (
	MouseButtonLeft MouseButtons = 1 << iota
	MouseButtonMiddle
	MouseButtonRight
	MouseScrollA
	MouseScrollB
	MouseScrollC
	MouseScrollD
)

func (m MouseButtons) Has(b MouseButtons) bool { return m&b != 0 }

// PointerEvent is the §4.F/§7.5.5 client request.
type PointerEvent struct {
	Buttons  MouseButtons
	Position Position
}

// ClientMessage is the tagged union over the six client-to-server
// message types (§3).
type ClientMessage struct {
	SetPixelFormat           *PixelFormat
	SetEncodings             []EncodingType
	FramebufferUpdateRequest *FramebufferUpdateRequest
	KeyEvent                 *KeyEvent
	PointerEvent             *PointerEvent
	ClientCutText            *string
}

// readClientMessage reads one client-to-server message, dispatching on
// the leading type byte per §4.F. An unrecognized leading byte is a
// ProtocolViolationError (wrapping UnknownClientMessage's byte value).
func readClientMessage(r *bufio.Reader) (ClientMessage, error) {
	typeByte, err := r.ReadByte()
	if err != nil {
		return ClientMessage{}, errors.Wrap(err, "reading client message type")
	}

	switch ClientMessageType(typeByte) {
	case ClientMessageSetPixelFormat:
		if err := readPadding(r, 3); err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading SetPixelFormat padding")
		}
		pf, err := readPixelFormat(r)
		if err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{SetPixelFormat: &pf}, nil

	case ClientMessageSetEncodings:
		if err := readPadding(r, 1); err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading SetEncodings padding")
		}
		count, err := readU16(r)
		if err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading SetEncodings count")
		}
		encodings := make([]EncodingType, count)
		for i := range encodings {
			code, err := readI32(r)
			if err != nil {
				return ClientMessage{}, errors.Wrap(err, "reading SetEncodings entry")
			}
			encodings[i] = EncodingType(code)
		}
		return ClientMessage{SetEncodings: encodings}, nil

	case ClientMessageFramebufferUpdateRequest:
		incByte, err := r.ReadByte()
		if err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading FramebufferUpdateRequest incremental flag")
		}
		pos, err := readPosition(r)
		if err != nil {
			return ClientMessage{}, err
		}
		res, err := readResolution(r)
		if err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{FramebufferUpdateRequest: &FramebufferUpdateRequest{
			Incremental: incByte != 0,
			Position:    pos,
			Resolution:  res,
		}}, nil

	case ClientMessageKeyEvent:
		pressedByte, err := r.ReadByte()
		if err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading KeyEvent pressed flag")
		}
		if err := readPadding(r, 2); err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading KeyEvent padding")
		}
		keysym, err := readU32(r)
		if err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading KeyEvent keysym")
		}
		return ClientMessage{KeyEvent: &KeyEvent{
			IsPressed: pressedByte != 0,
			Key:       DecodeKeysym(keysym),
		}}, nil

	case ClientMessagePointerEvent:
		maskByte, err := r.ReadByte()
		if err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading PointerEvent button mask")
		}
		pos, err := readPosition(r)
		if err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{PointerEvent: &PointerEvent{
			Buttons:  MouseButtons(maskByte),
			Position: pos,
		}}, nil

	case ClientMessageClientCutText:
		if err := readPadding(r, 3); err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading ClientCutText padding")
		}
		length, err := readU32(r)
		if err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading ClientCutText length")
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return ClientMessage{}, errors.Wrap(err, "reading ClientCutText body")
		}
		text := latin1ToString(buf)
		return ClientMessage{ClientCutText: &text}, nil

	default:
		return ClientMessage{}, &ProtocolViolationError{Reason: fmt.Sprintf("unknown client message type byte %d", typeByte)}
	}
}

// latin1ToString decodes RFC 6143's ISO 8859-1 cut-text body. Latin-1
// maps byte value N directly to Unicode code point U+00NN, so this is a
// one-to-one widen, not a UTF-8 decode (the upstream reference this
// library follows decoded the bytes as UTF-8, which silently mangles any
// byte >= 0x80; this is the corrected behavior spec.md §9 calls for).
func latin1ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
