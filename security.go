package rfb

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// SecurityType names a security negotiation scheme. Wire codes follow
// RFC 6143 §7.1.2 on both the read and write paths: None=1,
// VncAuthentication=2. (The upstream reference implementation this
// library was modeled on wrote None=0/VncAuthentication=1 on the wire
// while reading None=1/VncAuthentication=2 — a read/write mismatch bug.
// This implementation follows the RFC consistently in both directions.)
type SecurityType byte

const (
	SecurityNone              SecurityType = 1
	SecurityVncAuthentication SecurityType = 2
)

func (t SecurityType) String() string {
	switch t {
	case SecurityNone:
		return "None"
	case SecurityVncAuthentication:
		return "VncAuthentication"
	default:
		return "Unknown"
	}
}

func (t SecurityType) valid() bool {
	return t == SecurityNone || t == SecurityVncAuthentication
}

// SecurityTypes is the ordered, non-empty set of security types a
// server advertises to a connecting client.
type SecurityTypes []SecurityType

func (types SecurityTypes) contains(t SecurityType) bool {
	for _, c := range types {
		if c == t {
			return true
		}
	}
	return false
}

// writeTo writes the §7.1.2 SecurityTypes list: a u8 count followed by
// that many u8 type codes.
func (types SecurityTypes) writeTo(w *bufio.Writer) error {
	if len(types) > 0xff {
		return &ProtocolViolationError{Reason: "too many security types to advertise"}
	}
	if err := w.WriteByte(byte(len(types))); err != nil {
		return errors.Wrap(err, "writing security type count")
	}
	for _, t := range types {
		if err := w.WriteByte(byte(t)); err != nil {
			return errors.Wrap(err, "writing security type code")
		}
	}
	return nil
}

// readSecurityChoice reads the client's single-byte security type
// selection (§7.1.2). The raw byte is always returned so that callers
// can report UnsupportedSecurityError even for choices that aren't a
// known SecurityType at all.
func readSecurityChoice(r *bufio.Reader) (SecurityType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(err, "reading security type choice")
	}
	return SecurityType(b), nil
}

// SecurityResult is the §7.1.3 SecurityResult message.
type SecurityResult struct {
	Success bool
	Reason  string // only meaningful when !Success
}

// writeTo writes SecurityResult per RFB 3.8: a u32 status, and on
// failure a u32 length-prefixed reason string. (The upstream reference
// implementation omitted the length prefix on the reason string, which
// RFB 3.8 clients require; this implementation writes it.)
func (r SecurityResult) writeTo(w *bufio.Writer) error {
	status := uint32(0)
	if !r.Success {
		status = 1
	}
	if err := writeU32(w, status); err != nil {
		return errors.Wrap(err, "writing security result status")
	}
	if r.Success {
		return nil
	}
	if err := writeU32(w, uint32(len(r.Reason))); err != nil {
		return errors.Wrap(err, "writing security result reason length")
	}
	if _, err := io.WriteString(w, r.Reason); err != nil {
		return errors.Wrap(err, "writing security result reason")
	}
	return nil
}
