package netsandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBind tests binding and unbinding addresses.
func TestBind(t *testing.T) {
	n := NewNetwork()

	s, err := n.Bind("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", s.LocalAddr().String())
	assert.Equal(t, "udp", s.LocalAddr().Network())
	assert.True(t, n.Bound("127.0.0.1:9000"))
	assert.Empty(t, n.Buffered("127.0.0.1:9000"))

	_, err = n.Bind("127.0.0.1:9000")
	require.ErrorIs(t, err, ErrAddrInUse)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, n.Bound("127.0.0.1:9000"))

	_, err = n.Bind("127.0.0.1:9000")
	require.NoError(t, err)
}

// TestStaleCloseKeepsRebinding tests that closing an old socket again does not
// unregister a socket that later bound the same address.
func TestStaleCloseKeepsRebinding(t *testing.T) {
	n := NewNetwork()

	old, err := n.Bind("127.0.0.1:9100")
	require.NoError(t, err)
	require.NoError(t, old.Close())

	current, err := n.Bind("127.0.0.1:9100")
	require.NoError(t, err)

	require.NoError(t, old.Close())
	assert.True(t, n.Bound("127.0.0.1:9100"))

	_, err = n.Bind("127.0.0.1:9100")
	require.ErrorIs(t, err, ErrAddrInUse)

	require.NoError(t, current.Close())
	assert.False(t, n.Bound("127.0.0.1:9100"))
}

// TestBindInvalid tests unresolvable addresses.
func TestBindInvalid(t *testing.T) {
	n := NewNetwork()
	for _, addr := range []string{"no-port", "127.0.0.1:notaport"} {
		_, err := n.Bind(addr)
		assert.Error(t, err, "address %q", addr)
	}
	assert.False(t, n.Bound("no-port"))
}

// TestIOUnimplemented tests that send and receive are stubs.
func TestIOUnimplemented(t *testing.T) {
	s, err := NewNetwork().Bind("127.0.0.1:0")
	require.NoError(t, err)

	_, err = s.WriteTo([]byte("x"), s.LocalAddr())
	require.ErrorIs(t, err, ErrUnimplemented)

	_, _, err = s.ReadFrom(make([]byte, 8))
	require.ErrorIs(t, err, ErrUnimplemented)
}

// TestNetworksAreIndependent tests that registries do not share state.
func TestNetworksAreIndependent(t *testing.T) {
	a, b := NewNetwork(), NewNetwork()
	_, err := a.Bind("127.0.0.1:7000")
	require.NoError(t, err)
	_, err = b.Bind("127.0.0.1:7000")
	require.NoError(t, err)
}
