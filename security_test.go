package rfb

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecurityTypeWireCodesMatchRFC(t *testing.T) {
	require.EqualValues(t, 1, SecurityNone)
	require.EqualValues(t, 2, SecurityVncAuthentication)
}

func TestSecurityTypesWriteToRoundTrip(t *testing.T) {
	types := SecurityTypes{SecurityNone, SecurityVncAuthentication}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, types.writeTo(w))
	require.NoError(t, w.Flush())

	require.Equal(t, []byte{2, 1, 2}, buf.Bytes())

	r := bufio.NewReader(&buf)
	count, err := r.ReadByte()
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	choice, err := readSecurityChoice(r)
	require.NoError(t, err)
	require.Equal(t, SecurityNone, choice)
}

func TestSecurityTypesContains(t *testing.T) {
	types := SecurityTypes{SecurityNone}
	require.True(t, types.contains(SecurityNone))
	require.False(t, types.contains(SecurityVncAuthentication))
}

func TestSecurityResultSuccessHasNoReason(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, SecurityResult{Success: true}.writeTo(w))
	require.NoError(t, w.Flush())
	require.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())
}

func TestSecurityResultFailureWritesLengthPrefixedReason(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, SecurityResult{Success: false, Reason: "nope"}.writeTo(w))
	require.NoError(t, w.Flush())

	r := bufio.NewReader(&buf)
	status, err := readU32(r)
	require.NoError(t, err)
	require.EqualValues(t, 1, status)

	length, err := readU32(r)
	require.NoError(t, err)
	require.EqualValues(t, 4, length)

	reason := make([]byte, length)
	_, err = r.Read(reason)
	require.NoError(t, err)
	require.Equal(t, "nope", string(reason))
}
