package link

import (
	"log"
	"time"

	"github.com/cwsl/athernet/internal/linecode"
	"github.com/cwsl/athernet/internal/metrics"
)

// Timing constants for the stop-and-wait state machine, unchanged from
// the reference implementation.
const (
	AckTimeout        = 150 * time.Millisecond
	IdleTimeout        = 1 * time.Second
	LinkErrorThreshold = 15
)

// PhysicalIO is the physical-layer contract the link layer drives: a bit
// stream in, a bit stream out, with a bounded-wait variant of receive so
// the stop-and-wait loop can time out waiting for an ACK or a new frame.
type PhysicalIO interface {
	Send(bits []bool)
	Receive() []bool
	ReceiveTimeout(d time.Duration) ([]bool, bool)
}

// Conn drives one half-duplex, single-outstanding-frame reliable link
// between two addressed endpoints over a PhysicalIO, fragmenting
// arbitrarily large payloads into MaxPayload-sized frames and
// retransmitting unacknowledged frames until LinkErrorThreshold
// consecutive losses gives up.
type Conn struct {
	phys       PhysicalIO
	address    byte
	maxPayload int
	log        *log.Logger
	metrics    metrics.Recorder
}

// NewConn builds a Conn. maxPayload bounds how many payload bytes go in a
// single Frame before it must be fragmented.
func NewConn(phys PhysicalIO, address byte, maxPayload int, logger *log.Logger) *Conn {
	if logger == nil {
		logger = log.Default()
	}
	return &Conn{phys: phys, address: address, maxPayload: maxPayload, log: logger, metrics: metrics.NoopRecorder{}}
}

// SetMetrics installs a Recorder observations are reported through;
// without a call to this, observations are silently discarded.
func (c *Conn) SetMetrics(m metrics.Recorder) {
	if m != nil {
		c.metrics = m
	}
}

// ErrLinkDown is returned when LinkErrorThreshold consecutive frames go
// unacknowledged, per spec.md's AckTimeout -> LinkDown error case.
type ErrLinkDown struct{ Offset byte }

func (e ErrLinkDown) Error() string {
	return "link: peer unresponsive, giving up after repeated ack timeouts"
}

// Run drives the combined send/receive state machine: it fragments and
// transmits tx (if non-empty) with stop-and-wait ACKs, while also
// answering and accumulating any frames the peer sends. It returns once
// tx has been fully acknowledged and the peer's own fragment stream (if
// any) has ended, mirroring the reference state machine's FrameDetection
// / Tx / Rx / TxAck loop.
func (c *Conn) Run(tx []byte) (rx []byte, err error) {
	txOffset := byte(0)
	rxOffset := byte(0)
	txDone := len(tx) == 0

	for {
		if !txDone {
			begin := int(txOffset) * c.maxPayload
			if begin >= len(tx) {
				txDone = true
				continue
			}
			end := begin + c.maxPayload
			more := end < len(tx)
			if end > len(tx) {
				end = len(tx)
			}
			frame := Frame{
				OffsetOrSeq:   txOffset,
				MoreFragments: more,
				Src:           c.address,
				Dst:           0,
				Payload:       tx[begin:end],
			}

			lostAcks := 0
			for {
				encoded := frame.Encode()
				c.metrics.ObserveFrameBytes(len(encoded))
				c.phys.Send(linecode.BytesToBits(encoded))
				bits, ok := c.phys.ReceiveTimeout(AckTimeout)
				if !ok {
					lostAcks++
					c.metrics.AckTimeout()
					if lostAcks > LinkErrorThreshold {
						c.metrics.LinkDown()
						return rx, ErrLinkDown{Offset: txOffset}
					}
					continue
				}
				raw := linecode.BitsToBytes(bits)
				reply, ok := Decode(raw)
				if !ok {
					c.metrics.CRCMismatch()
					continue
				}
				if reply.Src == c.address {
					continue
				}
				lostAcks = 0
				if reply.Ack && reply.OffsetOrSeq >= txOffset {
					txOffset = reply.OffsetOrSeq + 1
					break
				}
			}
			if !more {
				txDone = true
			}
			continue
		}

		bits, ok := c.phys.ReceiveTimeout(IdleTimeout)
		if !ok {
			// Idle timeout with nothing left to send: the exchange is over.
			return rx, nil
		}
		frame, ok := Decode(linecode.BitsToBytes(bits))
		if !ok {
			c.metrics.CRCMismatch()
			continue
		}
		if frame.Src == c.address {
			continue
		}

		if frame.Ack {
			// An ack addressed to a transfer we've already completed; ignore.
			continue
		}

		if frame.OffsetOrSeq != rxOffset {
			c.sendAck(rxOffset - 1)
			continue
		}

		rx = append(rx, frame.Payload...)
		rxOffset = frame.OffsetOrSeq + 1
		c.sendAck(frame.OffsetOrSeq)
		if !frame.MoreFragments {
			return rx, nil
		}
	}
}

func (c *Conn) sendAck(offset byte) {
	ack := Frame{OffsetOrSeq: offset, Ack: true, Src: c.address}
	c.phys.Send(linecode.BytesToBits(ack.Encode()))
}
