// Package netsandbox is a bind-only stand-in for UDP sockets. Binding resolves
// the address and registers a receive buffer for it in a Network; nothing is
// ever sent or received.
package netsandbox

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

var (
	// ErrUnimplemented is returned by every I/O method.
	ErrUnimplemented = errors.New("netsandbox: not implemented")

	// ErrAddrInUse indicates a second Bind to the same address.
	ErrAddrInUse = errors.New("netsandbox: address already bound")
)

// Network is a registry of bound addresses and their buffers.
type Network struct {
	mu       sync.Mutex
	bindings map[string]*binding
}

// binding is one registered address, owned by the socket that bound it.
type binding struct {
	owner *UDPSocket
	buf   []byte
}

// NewNetwork returns an empty Network.
func NewNetwork() *Network {
	return &Network{bindings: make(map[string]*binding)}
}

// UDPSocket is a bound address.
type UDPSocket struct {
	n    *Network
	addr *net.UDPAddr
}

// Bind resolves address ("host:port") and registers it.
func (n *Network) Bind(address string) (*UDPSocket, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("netsandbox: bind %q: %w", address, err)
	}
	key := addr.String()

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.bindings[key]; ok {
		return nil, fmt.Errorf("bind %s: %w", key, ErrAddrInUse)
	}
	s := &UDPSocket{n: n, addr: addr}
	n.bindings[key] = &binding{owner: s}
	return s, nil
}

// Bound reports whether address has been bound.
func (n *Network) Bound(address string) bool {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.bindings[addr.String()]
	return ok
}

// Buffered returns the bytes queued for a bound address.
func (n *Network) Buffered(address string) []byte {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if b, ok := n.bindings[addr.String()]; ok {
		return b.buf
	}
	return nil
}

// LocalAddr returns the resolved address.
func (s *UDPSocket) LocalAddr() net.Addr { return s.addr }

func (s *UDPSocket) WriteTo(p []byte, addr net.Addr) (int, error) {
	return 0, fmt.Errorf("write to %v: %w", addr, ErrUnimplemented)
}

func (s *UDPSocket) ReadFrom(p []byte) (int, net.Addr, error) {
	return 0, nil, fmt.Errorf("read from %v: %w", s.addr, ErrUnimplemented)
}

// Close unregisters the address. Closing twice is a no-op, and closing a
// stale socket leaves a newer binding of the same address alone.
func (s *UDPSocket) Close() error {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	key := s.addr.String()
	if b, ok := s.n.bindings[key]; ok && b.owner == s {
		delete(s.n.bindings, key)
	}
	return nil
}
