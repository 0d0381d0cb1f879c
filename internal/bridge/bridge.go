// Package bridge provides the host-network-facing egress side of
// Athernet: translating reassembled transport-layer byte streams into
// outbound UDP/ICMP traffic on a real network interface, and vice versa,
// the way a NAT gateway would. Per spec.md this is an interface-only
// contract — the reference implementation never finished its NAT table,
// so only the plumbing genuinely usable by a point-to-point link is
// implemented here; full IP routing is out of scope.
package bridge

import (
	"fmt"
	"log"
	"net"
	"sync"
)

// Forwarder is what the rest of Athernet depends on: something that can
// take a reassembled IP datagram received over the acoustic link and
// deliver it to the real network, and vice versa.
type Forwarder interface {
	ForwardOut(datagram []byte) error
	ForwardIn() ([]byte, error)
	Close() error
}

// Config holds the bridge's configurable egress parameters.
type Config struct {
	ListenAddr string // local UDP address to bind for host-side traffic
	PeerAddr   string // remote UDP address datagrams are forwarded to
}

// Server is a minimal UDP-based Forwarder: every datagram handed to
// ForwardOut is sent verbatim to PeerAddr, and ForwardIn yields whatever
// arrives on ListenAddr. It does not parse IP headers or rewrite
// addresses; PortMap holds a NAT port table, but Server does not consult it.
type Server struct {
	conn *net.UDPConn
	peer *net.UDPAddr
	mu   sync.Mutex
	log  *log.Logger
}

// NewServer binds cfg.ListenAddr and resolves cfg.PeerAddr.
func NewServer(cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	laddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("bridge: resolve listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("bridge: listen: %w", err)
	}
	peer, err := net.ResolveUDPAddr("udp", cfg.PeerAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bridge: resolve peer addr: %w", err)
	}
	return &Server{conn: conn, peer: peer, log: logger}, nil
}

// ForwardOut writes datagram to the configured peer address. Concurrent
// callers are serialized, matching the reference implementation's single
// output-socket lock.
func (s *Server) ForwardOut(datagram []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.WriteToUDP(datagram, s.peer)
	return err
}

// ForwardIn blocks until the next datagram arrives on the listening
// socket.
func (s *Server) ForwardIn() ([]byte, error) {
	buf := make([]byte, 64*1024)
	n, _, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Close releases the underlying socket.
func (s *Server) Close() error { return s.conn.Close() }
