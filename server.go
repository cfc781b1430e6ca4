package rfb

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// UpdateSource is the embedding application's side of the contract
// (spec.md §4.H): it supplies framebuffer contents on demand and
// receives decoded key events. FramebufferUpdate is called once per
// FramebufferUpdateRequest, from whichever connection's goroutine
// received the request, so implementations must be safe for concurrent
// use by multiple connections.
type UpdateSource interface {
	FramebufferUpdate() FramebufferUpdate
	KeyEvent(KeyEvent)
}

// Config is the server's immutable configuration, fixed for the
// lifetime of the Server.
type Config struct {
	Version       ProtocolVersion
	SecurityTypes SecurityTypes
	Name          string
}

// Data is the server's mutable, lock-guarded state: the resolution and
// pixel format advertised to newly-connecting clients. Existing
// connections read the pixel format through Server.snapshot on every
// FramebufferUpdateRequest rather than caching it, so a SetPixelFormat
// call is visible to in-flight connections on their next request. The
// resolution is read only once per connection, for its ServerInit.
type Data struct {
	Resolution  Resolution
	PixelFormat PixelFormat
}

// Server is the connection-accepting facade of spec.md §4.H: it owns a
// net.Listener, a locked Data, and the UpdateSource collaborator that
// supplies and consumes framebuffer content.
type Server struct {
	config Config
	source UpdateSource
	log    *logrus.Entry

	mu   sync.RWMutex
	data Data
}

// NewServer constructs a Server. config.SecurityTypes must be non-empty;
// every connection needs at least one security type to negotiate.
func NewServer(source UpdateSource, config Config, data Data) (*Server, error) {
	if len(config.SecurityTypes) == 0 {
		return nil, &ProtocolViolationError{Reason: "server must advertise at least one security type"}
	}
	if err := data.PixelFormat.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		config: config,
		source: source,
		log:    logrus.WithField("component", "rfb-server"),
		data:   data,
	}, nil
}

func (s *Server) snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// SetPixelFormat changes the pixel format advertised to newly-accepted
// connections and used when sourcing future framebuffer updates.
func (s *Server) SetPixelFormat(pf PixelFormat) error {
	if err := pf.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PixelFormat = pf
	return nil
}

// SetResolution changes the resolution advertised to newly-accepted
// connections.
func (s *Server) SetResolution(res Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Resolution = res
}

// Start accepts connections on ln until ctx is cancelled or Accept
// returns an error, running each connection on its own goroutine. It
// returns the error that ended the accept loop, or nil if ctx was
// cancelled intentionally.
//
// The upstream reference implementation this library is modeled on ran
// its accept loop with no cancellation path at all, looping on Accept
// forever and leaking every connection goroutine past shutdown. Start
// instead ties the listener's and every accepted connection's lifetime
// to ctx and waits for every spawned connection goroutine to return
// before returning itself, via errgroup.
func (s *Server) Start(ctx context.Context, ln net.Listener) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	group.Go(func() error {
		for {
			raw, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "accepting connection")
			}
			c := newConn(s, raw)
			stop := context.AfterFunc(ctx, func() { _ = raw.Close() })
			group.Go(func() error {
				defer stop()
				c.run()
				return nil
			})
		}
	})

	return group.Wait()
}
