package bridge

import (
	"fmt"
	"sync"
	"time"
)

// natKey identifies one NAT'd flow by the peer-side (pre-translation)
// endpoint and protocol.
type natKey struct {
	proto   byte
	srcIP   [4]byte
	srcPort uint16
	dstIP   [4]byte
	dstPort uint16
}

type natEntry struct {
	mappedPort uint16
	lastUsed   time.Time
}

// PortMap is the NAT translation table: it assigns each outbound flow a
// local port and remembers the mapping long enough to route the
// matching reply back in, the way the reference implementation's
// (never-finished) nat.rs table was meant to.
type PortMap struct {
	mu       sync.RWMutex
	entries  map[natKey]*natEntry
	byPort   map[uint16]natKey
	nextPort uint16
	minPort  uint16
	maxPort  uint16
}

// NewPortMap builds an empty table that allocates mapped ports from
// [minPort, maxPort].
func NewPortMap(minPort, maxPort uint16) *PortMap {
	return &PortMap{
		entries:  make(map[natKey]*natEntry),
		byPort:   make(map[uint16]natKey),
		nextPort: minPort,
		minPort:  minPort,
		maxPort:  maxPort,
	}
}

// Translate returns the local port assigned to this flow, allocating a
// fresh one on first use.
func (p *PortMap) Translate(proto byte, srcIP [4]byte, srcPort uint16, dstIP [4]byte, dstPort uint16) (uint16, error) {
	key := natKey{proto, srcIP, srcPort, dstIP, dstPort}

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[key]; ok {
		e.lastUsed = time.Now()
		return e.mappedPort, nil
	}

	port, err := p.allocateLocked()
	if err != nil {
		return 0, err
	}
	p.entries[key] = &natEntry{mappedPort: port, lastUsed: time.Now()}
	p.byPort[port] = key
	return port, nil
}

// Reverse looks up the original flow for a mapped port, for translating
// an inbound reply back to the peer that originated the request.
func (p *PortMap) Reverse(port uint16) (proto byte, srcIP [4]byte, srcPort uint16, dstIP [4]byte, dstPort uint16, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	key, found := p.byPort[port]
	if !found {
		return 0, [4]byte{}, 0, [4]byte{}, 0, false
	}
	return key.proto, key.srcIP, key.srcPort, key.dstIP, key.dstPort, true
}

// Expire removes entries untouched for longer than ttl, freeing their
// mapped ports for reuse.
func (p *PortMap) Expire(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, e := range p.entries {
		if e.lastUsed.Before(cutoff) {
			delete(p.entries, key)
			delete(p.byPort, e.mappedPort)
		}
	}
}

func (p *PortMap) allocateLocked() (uint16, error) {
	start := p.nextPort
	for {
		port := p.nextPort
		p.nextPort++
		if p.nextPort > p.maxPort {
			p.nextPort = p.minPort
		}
		if _, taken := p.byPort[port]; !taken {
			return port, nil
		}
		if p.nextPort == start {
			return 0, fmt.Errorf("bridge: port map exhausted [%d,%d]", p.minPort, p.maxPort)
		}
	}
}
