package rfb

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	updates []FramebufferUpdate
	keys    []KeyEvent
}

func (s *stubSource) FramebufferUpdate() FramebufferUpdate {
	if len(s.updates) == 0 {
		return FramebufferUpdate{}
	}
	return s.updates[0]
}

func (s *stubSource) KeyEvent(e KeyEvent) { s.keys = append(s.keys, e) }

func newTestServer(t *testing.T) (*Server, *stubSource) {
	t.Helper()
	source := &stubSource{}
	server, err := NewServer(source, Config{
		Version:       Version38,
		SecurityTypes: SecurityTypes{SecurityNone},
		Name:          "test-server",
	}, Data{
		Resolution:  Resolution{Width: 64, Height: 48},
		PixelFormat: FourCCXR24.PixelFormat(),
	})
	require.NoError(t, err)
	return server, source
}

func TestConnHandshakeAcceptsMatchingVersion(t *testing.T) {
	server, _ := newTestServer(t)
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()

	c := newConn(server, serverSide)
	go c.run()

	clientSide.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(clientSide)

	serverVersion, err := readProtocolVersion(r)
	require.NoError(t, err)
	require.Equal(t, Version38, serverVersion)

	_, err = clientSide.Write([]byte("RFB 003.008\n"))
	require.NoError(t, err)

	types, err := readSecurityTypesList(r)
	require.NoError(t, err)
	require.Contains(t, types, SecurityNone)

	_, err = clientSide.Write([]byte{byte(SecurityNone)})
	require.NoError(t, err)

	status, err := readU32(r)
	require.NoError(t, err)
	require.EqualValues(t, 0, status)

	_, err = clientSide.Write([]byte{1}) // ClientInit: shared
	require.NoError(t, err)

	res, err := readResolution(r)
	require.NoError(t, err)
	require.Equal(t, Resolution{Width: 64, Height: 48}, res)
}

func TestConnHandshakeRejectsUnsupportedSecurityChoice(t *testing.T) {
	server, _ := newTestServer(t)
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()

	c := newConn(server, serverSide)
	go c.run()

	clientSide.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(clientSide)

	_, err := readProtocolVersion(r)
	require.NoError(t, err)
	_, err = clientSide.Write([]byte("RFB 003.008\n"))
	require.NoError(t, err)

	_, err = readSecurityTypesList(r)
	require.NoError(t, err)

	_, err = clientSide.Write([]byte{0xEE}) // not a valid/advertised type
	require.NoError(t, err)

	status, err := readU32(r)
	require.NoError(t, err)
	require.EqualValues(t, 1, status) // failure

	reasonLen, err := readU32(r)
	require.NoError(t, err)
	require.Greater(t, reasonLen, uint32(0))
}

func TestConnHandshakeRejectsLowerClientVersion(t *testing.T) {
	server, _ := newTestServer(t)
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()

	c := newConn(server, serverSide)
	go c.run()

	clientSide.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(clientSide)

	serverVersion, err := readProtocolVersion(r)
	require.NoError(t, err)
	require.Equal(t, Version38, serverVersion)

	_, err = clientSide.Write([]byte("RFB 003.003\n"))
	require.NoError(t, err)

	// The server must close without writing any security bytes.
	_, err = r.ReadByte()
	require.Error(t, err)
}

// readSecurityTypesList mirrors the client side of SecurityTypes.writeTo.
func readSecurityTypesList(r *bufio.Reader) ([]SecurityType, error) {
	count, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	types := make([]SecurityType, count)
	for i := range types {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		types[i] = SecurityType(b)
	}
	return types, nil
}
