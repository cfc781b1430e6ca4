package rfb

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ProtocolVersion is one of the three RFB versions this server speaks.
// Values are comparable by numerical order: Version33 < Version37 < Version38.
type ProtocolVersion int

const (
	Version33 ProtocolVersion = iota
	Version37
	Version38
)

const versionWireLen = 12

var versionWire = map[ProtocolVersion]string{
	Version33: "RFB 003.003\n",
	Version37: "RFB 003.007\n",
	Version38: "RFB 003.008\n",
}

func (v ProtocolVersion) String() string {
	switch v {
	case Version33:
		return "3.3"
	case Version37:
		return "3.7"
	case Version38:
		return "3.8"
	default:
		return "unknown"
	}
}

// writeTo writes the exact 12-byte ASCII wire form of v.
func (v ProtocolVersion) writeTo(w io.Writer) error {
	s, ok := versionWire[v]
	if !ok {
		return &ProtocolViolationError{Reason: "unknown protocol version"}
	}
	_, err := io.WriteString(w, s)
	return errors.Wrap(err, "writing protocol version")
}

// readProtocolVersion reads a 12-byte ASCII "RFB 003.0NN\n" string and
// parses it into a ProtocolVersion. Any value outside {3.3, 3.7, 3.8} is
// a ProtocolViolationError.
func readProtocolVersion(r *bufio.Reader) (ProtocolVersion, error) {
	buf := make([]byte, versionWireLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errors.Wrap(err, "reading protocol version")
	}
	s := string(buf)
	for v, wire := range versionWire {
		if wire == s {
			return v, nil
		}
	}
	return 0, &ProtocolViolationError{Reason: "invalid protocol version string " + quoteForLog(s)}
}

func quoteForLog(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, b := range []byte(s) {
		if b >= 0x20 && b < 0x7f {
			out = append(out, b)
		} else {
			out = append(out, '.')
		}
	}
	out = append(out, '"')
	return string(out)
}
