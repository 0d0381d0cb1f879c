package bridge

import (
	"fmt"
	"net"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// ICMPEcho sends a single ICMP echo request to dst and waits for the
// matching reply, the way a NAT gateway answers traceroute/ping probes
// that arrive through the tunnel on behalf of a peer that cannot open
// raw sockets itself.
type ICMPEcho struct {
	conn *icmp.PacketConn
}

// NewICMPEcho opens a raw ICMP socket ("ip4:icmp"), which requires root
// or CAP_NET_RAW on Linux, matching the teacher's raw-socket ICMP usage.
func NewICMPEcho() (*ICMPEcho, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("bridge: icmp listen: %w", err)
	}
	return &ICMPEcho{conn: conn}, nil
}

// Ping sends one echo request with the given id/seq/payload to dst and
// returns the reply payload once it arrives.
func (e *ICMPEcho) Ping(dst net.IP, id, seq int, payload []byte) ([]byte, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: payload},
	}
	raw, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: marshal echo: %w", err)
	}
	if _, err := e.conn.WriteTo(raw, &net.IPAddr{IP: dst}); err != nil {
		return nil, fmt.Errorf("bridge: write echo: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, _, err := e.conn.ReadFrom(buf)
		if err != nil {
			return nil, fmt.Errorf("bridge: read reply: %w", err)
		}
		reply, err := icmp.ParseMessage(1, buf[:n])
		if err != nil {
			return nil, fmt.Errorf("bridge: parse reply: %w", err)
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || reply.Type != ipv4.ICMPTypeEchoReply || echo.ID != id || echo.Seq != seq {
			continue // some other ICMP traffic on the raw socket
		}
		return echo.Data, nil
	}
}

// Close releases the underlying socket.
func (e *ICMPEcho) Close() error { return e.conn.Close() }
