package rfb

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtocolVersionWireRoundTrip(t *testing.T) {
	for _, v := range []ProtocolVersion{Version33, Version37, Version38} {
		var buf bytes.Buffer
		require.NoError(t, v.writeTo(&buf))
		require.Equal(t, 12, buf.Len())

		got, err := readProtocolVersion(bufio.NewReader(&buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestProtocolVersionOrdering(t *testing.T) {
	require.Less(t, int(Version33), int(Version37))
	require.Less(t, int(Version37), int(Version38))
}

func TestReadProtocolVersionRejectsGarbage(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("not a version\n"))
	_, err := readProtocolVersion(r)
	require.Error(t, err)
	require.IsType(t, &ProtocolViolationError{}, err)
}

func TestProtocolVersionString(t *testing.T) {
	require.Equal(t, "3.3", Version33.String())
	require.Equal(t, "3.7", Version37.String())
	require.Equal(t, "3.8", Version38.String())
}
