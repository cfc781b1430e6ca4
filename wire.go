package rfb

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// wire.go collects the primitive big-endian field readers/writers shared
// by every message type in message.go, pixelformat.go, and security.go. RFB
// frames every multi-byte field big-endian (§4.F), so these are the only
// primitives the rest of the codec needs.

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readI32(r io.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func writeI32(w io.Writer, v int32) error {
	return writeU32(w, uint32(v))
}

func readPadding(r *bufio.Reader, n int) error {
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	return err
}

func writePadding(w *bufio.Writer, n int) error {
	buf := make([]byte, n)
	_, err := w.Write(buf)
	return err
}

// Position is a 16-bit (x, y) coordinate pair, written/read as two
// big-endian u16 fields.
type Position struct {
	X, Y uint16
}

func readPosition(r *bufio.Reader) (Position, error) {
	x, err := readU16(r)
	if err != nil {
		return Position{}, errors.Wrap(err, "reading position x")
	}
	y, err := readU16(r)
	if err != nil {
		return Position{}, errors.Wrap(err, "reading position y")
	}
	return Position{X: x, Y: y}, nil
}

func (p Position) writeTo(w *bufio.Writer) error {
	if err := writeU16(w, p.X); err != nil {
		return errors.Wrap(err, "writing position x")
	}
	if err := writeU16(w, p.Y); err != nil {
		return errors.Wrap(err, "writing position y")
	}
	return nil
}

// Resolution is a 16-bit (width, height) pair, written/read as two
// big-endian u16 fields.
type Resolution struct {
	Width, Height uint16
}

func readResolution(r *bufio.Reader) (Resolution, error) {
	width, err := readU16(r)
	if err != nil {
		return Resolution{}, errors.Wrap(err, "reading resolution width")
	}
	height, err := readU16(r)
	if err != nil {
		return Resolution{}, errors.Wrap(err, "reading resolution height")
	}
	return Resolution{Width: width, Height: height}, nil
}

func (res Resolution) writeTo(w *bufio.Writer) error {
	if err := writeU16(w, res.Width); err != nil {
		return errors.Wrap(err, "writing resolution width")
	}
	if err := writeU16(w, res.Height); err != nil {
		return errors.Wrap(err, "writing resolution height")
	}
	return nil
}
