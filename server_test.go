package rfb

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewServerRejectsEmptySecurityTypes(t *testing.T) {
	_, err := NewServer(&stubSource{}, Config{Version: Version38}, Data{
		Resolution:  Resolution{Width: 1, Height: 1},
		PixelFormat: FourCCXR24.PixelFormat(),
	})
	require.Error(t, err)
	require.IsType(t, &ProtocolViolationError{}, err)
}

func TestNewServerRejectsInvalidPixelFormat(t *testing.T) {
	bad := FourCCXR24.PixelFormat()
	bad.BitsPerPixel = 24
	_, err := NewServer(&stubSource{}, Config{
		Version:       Version38,
		SecurityTypes: SecurityTypes{SecurityNone},
	}, Data{Resolution: Resolution{Width: 1, Height: 1}, PixelFormat: bad})
	require.Error(t, err)
}

func TestServerSetPixelFormatValidatesAndUpdatesSnapshot(t *testing.T) {
	server, _ := newTestServer(t)
	require.NoError(t, server.SetPixelFormat(FourCCRG16.PixelFormat()))
	require.Equal(t, FourCCRG16.PixelFormat(), server.snapshot().PixelFormat)

	bad := FourCCXR24.PixelFormat()
	bad.Depth = 99
	require.Error(t, server.SetPixelFormat(bad))
}

func TestServerSetResolutionUpdatesSnapshot(t *testing.T) {
	server, _ := newTestServer(t)
	server.SetResolution(Resolution{Width: 800, Height: 600})
	require.Equal(t, Resolution{Width: 800, Height: 600}, server.snapshot().Resolution)
}

func TestServerStartStopsOnContextCancel(t *testing.T) {
	server, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, ln) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func TestServerStartAcceptsConnection(t *testing.T) {
	server, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, ln) }()
	defer func() {
		cancel()
		<-done
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer clientConn.Close()

	clientConn.SetDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 12)
	_, err = clientConn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "RFB 003.008\n", string(buf))
}
