package rfb

import (
	"bufio"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// connPhase names a step of the connection state machine of spec.md
// §4.G: VersionExchange, SecurityNegotiation, Initialisation,
// MessageLoop, Closed, in that order.
type connPhase int

const (
	phaseVersionExchange connPhase = iota
	phaseSecurityNegotiation
	phaseInitialisation
	phaseMessageLoop
	phaseClosed
)

func (p connPhase) String() string {
	switch p {
	case phaseVersionExchange:
		return "version-exchange"
	case phaseSecurityNegotiation:
		return "security-negotiation"
	case phaseInitialisation:
		return "initialisation"
	case phaseMessageLoop:
		return "message-loop"
	case phaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// conn is one accepted client connection, run on its own goroutine by
// Server.Start. It owns its net.Conn and buffered reader/writer for its
// whole lifetime; the only state it shares with the rest of the server
// is reached through the server's locked Data.
type conn struct {
	server *Server
	raw    net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	log    *logrus.Entry

	phase   connPhase
	version ProtocolVersion
	format  PixelFormat // the client's requested pixel format for FramebufferUpdate
	shared  bool
}

func newConn(s *Server, raw net.Conn) *conn {
	return &conn{
		server: s,
		raw:    raw,
		r:      bufio.NewReader(raw),
		w:      bufio.NewWriter(raw),
		log:    s.log.WithField("remote", raw.RemoteAddr()),
		phase:  phaseVersionExchange,
	}
}

// run drives the connection through every phase of §4.G until the
// client disconnects or a protocol violation ends the session. Errors
// are logged and swallowed here: one bad connection must never bring
// down the accept loop or its peers.
func (c *conn) run() {
	defer c.close()

	if err := c.versionExchange(); err != nil {
		c.log.WithError(err).Warn("version exchange failed")
		return
	}
	if err := c.securityNegotiation(); err != nil {
		c.log.WithError(err).Warn("security negotiation failed")
		return
	}
	if err := c.initialisation(); err != nil {
		c.log.WithError(err).Warn("initialisation failed")
		return
	}
	c.phase = phaseMessageLoop
	if err := c.messageLoop(); err != nil {
		c.log.WithError(err).Info("message loop ended")
		return
	}
}

func (c *conn) close() {
	c.phase = phaseClosed
	if err := c.raw.Close(); err != nil {
		c.log.WithError(err).Debug("closing connection")
	}
}

// versionExchange implements RFC 6143 §7.1.1: the server sends its
// configured version string, the client replies with its own. A client
// requesting a version lower than the server's is rejected outright,
// before any security bytes are written: the server never downgrades to
// a client-offered version it wasn't configured for.
func (c *conn) versionExchange() error {
	serverVersion := c.server.config.Version
	if err := serverVersion.writeTo(c.w); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return errors.Wrap(err, "flushing server version")
	}

	clientVersion, err := readProtocolVersion(c.r)
	if err != nil {
		return err
	}
	if clientVersion < serverVersion {
		return &UnsupportedVersionError{Client: clientVersion, Server: serverVersion}
	}
	c.log.WithFields(logrus.Fields{
		"client_version": clientVersion,
		"server_version": serverVersion,
	}).Debug("version exchange complete")
	c.version = serverVersion
	return nil
}

// securityNegotiation implements RFC 6143 §7.1.2/§7.1.3. RFB 3.3 sends
// the server's sole choice as a u32; 3.7+ advertises the list and reads
// the client's u8 choice. VncAuthentication is accepted as a choice but
// never challenged (no auth exchange is performed after it): the
// challenge/response handshake is a collaborator this library does not
// provide, per spec.md's scope.
func (c *conn) securityNegotiation() error {
	c.phase = phaseSecurityNegotiation
	types := c.server.config.SecurityTypes

	if c.version == Version33 {
		chosen := types[0]
		if err := writeU32(c.w, uint32(chosen)); err != nil {
			return errors.Wrap(err, "writing RFB 3.3 security type")
		}
		return c.w.Flush()
	}

	if err := types.writeTo(c.w); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return errors.Wrap(err, "flushing security types")
	}

	choice, err := readSecurityChoice(c.r)
	if err != nil {
		return err
	}
	if !choice.valid() || !types.contains(choice) {
		result := SecurityResult{Success: false, Reason: "unsupported security type"}
		if c.version == Version38 {
			_ = result.writeTo(c.w)
			_ = c.w.Flush()
		}
		return &UnsupportedSecurityError{Choice: byte(choice)}
	}

	if c.version == Version38 {
		result := SecurityResult{Success: true}
		if err := result.writeTo(c.w); err != nil {
			return err
		}
		if err := c.w.Flush(); err != nil {
			return errors.Wrap(err, "flushing security result")
		}
	}
	c.log.WithField("security_type", choice).Debug("security negotiation complete")
	return nil
}

// initialisation implements RFC 6143 §7.3: ClientInit then ServerInit.
// The initial pixel format advertised to the client is the server's
// configured native format; the client may later change it for its own
// view via SetPixelFormat.
func (c *conn) initialisation() error {
	c.phase = phaseInitialisation
	init, err := readClientInit(c.r)
	if err != nil {
		return err
	}
	c.shared = init.Shared

	data := c.server.snapshot()
	c.format = data.PixelFormat

	serverInit := ServerInit{
		InitialResolution: data.Resolution,
		PixelFormat:       data.PixelFormat,
		Name:              c.server.config.Name,
	}
	return serverInit.writeTo(c.w)
}

// messageLoop implements the §4.G steady state: read one client message
// at a time and react. FramebufferUpdateRequest is the only message that
// produces server-to-client traffic; the rest feed the UpdateSource or
// update local connection state.
func (c *conn) messageLoop() error {
	for {
		msg, err := readClientMessage(c.r)
		if err != nil {
			return err
		}
		if err := c.handleClientMessage(msg); err != nil {
			return err
		}
	}
}

func (c *conn) handleClientMessage(msg ClientMessage) error {
	switch {
	case msg.SetPixelFormat != nil:
		c.log.WithField("rx", "SetPixelFormat").Debug("client message")
		if err := msg.SetPixelFormat.Validate(); err != nil {
			return err
		}
		c.format = *msg.SetPixelFormat
		return nil

	case msg.SetEncodings != nil:
		c.log.WithFields(logrus.Fields{"rx": "SetEncodings", "count": len(msg.SetEncodings)}).Debug("client message")
		// Only Raw is ever produced regardless of what the client
		// advertises support for (spec.md Non-goals); nothing to store.
		return nil

	case msg.FramebufferUpdateRequest != nil:
		c.log.WithFields(logrus.Fields{
			"rx":          "FramebufferUpdateRequest",
			"incremental": msg.FramebufferUpdateRequest.Incremental,
		}).Debug("client message")
		return c.handleFramebufferUpdateRequest(*msg.FramebufferUpdateRequest)

	case msg.KeyEvent != nil:
		c.log.WithFields(logrus.Fields{"rx": "KeyEvent", "pressed": msg.KeyEvent.IsPressed}).Debug("client message")
		c.server.source.KeyEvent(*msg.KeyEvent)
		return nil

	case msg.PointerEvent != nil:
		c.log.WithField("rx", "PointerEvent").Debug("client message")
		// Pointer events are accepted per the wire protocol but this
		// library's UpdateSource contract only carries KeyEvent and
		// FramebufferUpdate (spec.md §4.H); a server embedding this
		// library that wants pointer input reads it from its own
		// collaborator, not from this connection.
		return nil

	case msg.ClientCutText != nil:
		c.log.WithField("rx", "ClientCutText").Debug("client message")
		return nil

	default:
		return &ProtocolViolationError{Reason: "empty client message"}
	}
}

// handleFramebufferUpdateRequest pulls one frame from the server's
// UpdateSource, transcodes it into the client's requested pixel format
// if needed, and sends the rectangles the source returned as one
// FramebufferUpdate. The incremental flag is logged and otherwise
// ignored: this server always sends a full update (spec.md §9 Open Question 5): this
// library has no damage-tracking collaborator to diff against.
func (c *conn) handleFramebufferUpdateRequest(req FramebufferUpdateRequest) error {
	update := c.server.source.FramebufferUpdate()
	data := c.server.snapshot()

	rects := make([]Rectangle, 0, len(update.Rectangles))
	for _, rect := range update.Rectangles {
		payload := rect.Payload
		if data.PixelFormat != c.format {
			if !data.PixelFormat.IsRGB888() || !c.format.IsRGB888() {
				return &InvalidPixelFormatError{Reason: "transcoding is only supported between RGB888 formats"}
			}
			transformed, err := payload.Transform(data.PixelFormat, c.format)
			if err != nil {
				return err
			}
			payload = transformed
		}
		rects = append(rects, Rectangle{
			Position:   rect.Position,
			Dimensions: rect.Dimensions,
			Payload:    payload,
		})
	}

	return FramebufferUpdate{Rectangles: rects}.writeTo(c.w)
}
