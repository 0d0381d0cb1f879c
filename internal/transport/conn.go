package transport

import (
	"errors"
	"log"
	"time"
)

// PacketIO is the link-layer contract the transport event loop drives:
// a blocking, ordered delivery of decoded Packets in each direction.
type PacketIO interface {
	Send(Packet)
	// Recv blocks until the next packet arrives; ok is false once the
	// underlying link is closed for good.
	Recv() (Packet, bool)
}

// Conn runs the transport-layer event loop over a PacketIO: it
// multiplexes incoming packets, an RTT-probe timer, a SACK-announce
// timer, and outgoing segment generation, the Go-channel-and-select
// equivalent of the reference implementation's five-armed async select.
type Conn struct {
	io          PacketIO
	log         *log.Logger
	segmentLen  int
	rtt         *RTTEstimate
	idleBeacon  time.Duration
}

// DefaultSegmentLen is the default per-Data-packet payload size.
const DefaultSegmentLen = 256

// NewConn builds a Conn. segmentLen bounds how many bytes go in each Data
// packet; pass 0 to use DefaultSegmentLen.
func NewConn(io PacketIO, segmentLen int, logger *log.Logger) *Conn {
	if segmentLen <= 0 {
		segmentLen = DefaultSegmentLen
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Conn{io: io, log: logger, segmentLen: segmentLen, rtt: NewRTTEstimate(10), idleBeacon: 20 * time.Millisecond}
}

// ErrLinkClosed is returned when the underlying link closes before a
// transfer completes.
var ErrLinkClosed = errors.New("transport: underlying link closed before transfer completed")

// Run drives the combined send/receive event loop: if send is non-empty
// it reliably delivers it to the peer (fragmenting into segmentLen-sized
// Data packets, reacting to the peer's Sack packets); simultaneously it
// accepts and reassembles whatever the peer sends, returning once both
// directions (any outbound transfer, and any inbound transfer the peer
// started) have completed.
func (c *Conn) Run(send []byte) (received []byte, err error) {
	var sender *SenderState
	if len(send) > 0 {
		sender = NewSenderState(send, c.segmentLen)
	}
	receiver := NewReceiverState()
	receiverStarted := false

	rttTicker := time.NewTicker(c.rtt.Timeout(1) + time.Millisecond)
	defer rttTicker.Stop()
	sackTicker := time.NewTicker(c.rtt.Timeout(1.5) + time.Millisecond)
	defer sackTicker.Stop()
	beacon := time.NewTicker(c.idleBeacon)
	defer beacon.Stop()

	incoming := make(chan Packet, 32)
	closed := make(chan struct{})
	go func() {
		for {
			p, ok := c.io.Recv()
			if !ok {
				close(closed)
				return
			}
			incoming <- p
		}
	}()

	var pendingRTT *uint16

	for {
		done := (sender == nil && receiverStarted && receiver.Completed()) ||
			(sender != nil && sender.Completed() && (!receiverStarted || receiver.Completed()))
		if done {
			if receiverStarted {
				// The peer's sender only completes on a Sack covering every
				// segment, so announce the finished range list before leaving.
				c.io.Send(receiver.Sack())
			}
			return received, nil
		}

		select {
		case p := <-incoming:
			switch p.Tag {
			case TagPeerVacant:
				if sender != nil {
					sender.PeerVacant = true
				}
			case TagHeader:
				receiverStarted = true
				receiver.SetSequenceCount(p.SequenceCount)
				receiver.Ack(0)
			case TagData:
				receiverStarted = true
				receiver.Ack(p.SequenceID)
				received = appendAt(received, int(p.Offset), p.Data)
			case TagSack:
				if sender != nil {
					sender.ApplySack(p)
				}
			case TagRttRequest:
				c.io.Send(Packet{Tag: TagRttResponse, RTTStartMillis: p.RTTStartMillis})
			case TagRttResponse:
				if pendingRTT != nil {
					c.rtt.Update(*pendingRTT, nowMillis())
					pendingRTT = nil
				}
			}

		case <-rttTicker.C:
			m := nowMillis()
			pendingRTT = &m
			c.io.Send(Packet{Tag: TagRttRequest, RTTStartMillis: m})

		case <-sackTicker.C:
			if receiverStarted {
				c.io.Send(receiver.Sack())
			}

		case <-beacon.C:
			if sender != nil && !sender.Completed() {
				if pkt, ok := sender.NextPackage(); ok {
					c.io.Send(pkt)
					continue
				}
				c.io.Send(Packet{Tag: TagPeerVacant})
			} else {
				c.io.Send(Packet{Tag: TagPeerVacant})
			}

		case <-closed:
			return received, ErrLinkClosed
		}
	}
}

func nowMillis() uint16 {
	return uint16(time.Now().UnixMilli() % 1000)
}

// appendAt writes data into dst at byte offset, growing dst as needed.
// Data packets can arrive out of order, so the destination buffer must
// support writes past its current length.
func appendAt(dst []byte, offset int, data []byte) []byte {
	needed := offset + len(data)
	if needed > len(dst) {
		grown := make([]byte, needed)
		copy(grown, dst)
		dst = grown
	}
	copy(dst[offset:], data)
	return dst
}
