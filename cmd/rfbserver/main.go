package main

import (
	"context"
	"image/jpeg"
	"math"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oxidecomputer/rfb"
)

var (
	bindAddress = ":5900"
	width       = 1280
	height      = 720
	serverName  = "rfb-go"
	imagePath   = ""
)

func main() {
	root := &cobra.Command{
		Use:   "rfbserver",
		Short: "serve a framebuffer over RFB",
		RunE:  run,
	}
	root.Flags().StringVar(&bindAddress, "bind-address", bindAddress, "listen on [ip]:port")
	root.Flags().IntVar(&width, "width", width, "framebuffer width")
	root.Flags().IntVar(&height, "height", height, "framebuffer height")
	root.Flags().StringVar(&serverName, "name", serverName, "name advertised in ServerInit")
	root.Flags().StringVar(&imagePath, "image", imagePath, "JPEG file to serve as a static framebuffer; falls back to an animated pattern when unset")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("rfbserver exited")
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.WithField("component", "rfbserver")

	ln, err := net.Listen("tcp", bindAddress)
	if err != nil {
		return err
	}
	log.WithField("address", ln.Addr()).Info("listening")

	var source rfb.UpdateSource
	if imagePath != "" {
		staticSource, err := newStaticImageSource(imagePath, width, height)
		if err != nil {
			return err
		}
		log.WithField("path", imagePath).Info("serving static image")
		source = staticSource
	} else {
		animated := newTestPatternSource(width, height)
		go animated.animate(30 * time.Millisecond)
		source = animated
	}

	rgb888 := rfb.FourCCXR24.PixelFormat()
	server, err := rfb.NewServer(source, rfb.Config{
		Version:       rfb.Version38,
		SecurityTypes: rfb.SecurityTypes{rfb.SecurityNone},
		Name:          serverName,
	}, rfb.Data{
		Resolution:  rfb.Resolution{Width: uint16(width), Height: uint16(height)},
		PixelFormat: rgb888,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx, ln); err != nil {
		log.WithError(err).Warn("server stopped")
		return err
	}
	return nil
}

// testPatternSource is the UpdateSource collaborator for the example
// binary: an animated diagonal-stripe pattern, the same shape the
// upstream reference server used to exercise a client without any image
// source of its own. It keeps the raw RGB888 framebuffer behind a mutex
// and hands out a copy on every FramebufferUpdate call.
type testPatternSource struct {
	width, height int

	mu     sync.Mutex
	pixels []byte
	frame  int
}

func newTestPatternSource(width, height int) *testPatternSource {
	s := &testPatternSource{
		width:  width,
		height: height,
		pixels: make([]byte, width*height*4),
	}
	s.render()
	return s
}

func (s *testPatternSource) animate(period time.Duration) {
	tick := time.NewTicker(period)
	defer tick.Stop()
	for range tick.C {
		s.mu.Lock()
		s.frame++
		s.render()
		s.mu.Unlock()
	}
}

// render fills the pixel buffer with a diagonal stripe pattern that
// slides one pixel per frame, encoded as little-endian xRGB (FourCCXR24:
// byte order B, G, R, pad).
func (s *testPatternSource) render() {
	const border = 50
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := (y*s.width + x) * 4
			var r, g, b byte
			switch {
			case x < border || x > s.width-border || y < border || y > s.height-border:
				r, g, b = 0x20, 0x20, 0x20
			default:
				phase := math.Mod(float64(x+y+s.frame)/40.0, 2*math.Pi)
				v := byte((math.Sin(phase) + 1) / 2 * 255)
				r, g, b = v, 255-v, byte(x*255/max(s.width, 1))
			}
			s.pixels[i+0] = b
			s.pixels[i+1] = g
			s.pixels[i+2] = r
			s.pixels[i+3] = 0
		}
	}
}

func (s *testPatternSource) FramebufferUpdate() rfb.FramebufferUpdate {
	s.mu.Lock()
	pixels := make([]byte, len(s.pixels))
	copy(pixels, s.pixels)
	s.mu.Unlock()

	return rfb.FramebufferUpdate{
		Rectangles: []rfb.Rectangle{{
			Position:   rfb.Position{X: 0, Y: 0},
			Dimensions: rfb.Resolution{Width: uint16(s.width), Height: uint16(s.height)},
			Payload:    &rfb.RawEncoding{Pixels: pixels},
		}},
	}
}

func (s *testPatternSource) KeyEvent(e rfb.KeyEvent) {
	logrus.WithFields(logrus.Fields{
		"pressed": e.IsPressed,
		"kind":    e.Key.Kind,
	}).Debug("key event")
}

// staticImageSource decodes a JPEG file once at startup and serves its
// pixels unchanged on every FramebufferUpdateRequest, drawn from the
// top-left corner of a white width x height canvas and cropped to it if
// the image is larger. A client still
// receiving live updates sees the same frame every time; this is for
// exercising the handshake and transcoding paths against a real image
// rather than a generated pattern.
type staticImageSource struct {
	width, height int
	pixels        []byte
}

func newStaticImageSource(path string, width, height int) (*staticImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening image")
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "decoding jpeg")
	}

	pixels := make([]byte, width*height*4)
	for i := range pixels {
		pixels[i] = 0xff
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && y < height; y++ {
		for x := bounds.Min.X; x < bounds.Max.X && x < width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			i := (y*width + x) * 4
			// little-endian xRGB (FourCCXR24): byte order B, G, R, pad.
			pixels[i+0] = byte(b >> 8)
			pixels[i+1] = byte(g >> 8)
			pixels[i+2] = byte(r >> 8)
			pixels[i+3] = 0
		}
	}

	return &staticImageSource{width: width, height: height, pixels: pixels}, nil
}

func (s *staticImageSource) FramebufferUpdate() rfb.FramebufferUpdate {
	pixels := make([]byte, len(s.pixels))
	copy(pixels, s.pixels)
	return rfb.FramebufferUpdate{
		Rectangles: []rfb.Rectangle{{
			Position:   rfb.Position{X: 0, Y: 0},
			Dimensions: rfb.Resolution{Width: uint16(s.width), Height: uint16(s.height)},
			Payload:    &rfb.RawEncoding{Pixels: pixels},
		}},
	}
}

func (s *staticImageSource) KeyEvent(rfb.KeyEvent) {}
