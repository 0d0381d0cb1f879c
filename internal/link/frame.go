// Package link implements the framed stop-and-wait reliable link: fixed
// wire layout, CRC-16 validation, and a single-outstanding-frame ack state
// machine running over a physical.Layer.
package link

import "encoding/binary"

const (
	lenFieldBytes   = 2
	offsetFieldLen  = 1
	flagsFieldLen   = 1
	addressFieldLen = 2 // src + dst
	crcFieldLen     = 2

	flagMoreFragments = 1 << 0
	flagAck           = 1 << 1
)

// HeaderLen is the number of bytes every frame carries in addition to its
// payload: length, offset/seq, flags, src, dst, and the trailing CRC.
const HeaderLen = lenFieldBytes + offsetFieldLen + flagsFieldLen + addressFieldLen + crcFieldLen

// Frame is one link-layer frame: `[len:2][offset_or_seq:1][flags:1][src:1][dst:1][payload:N][crc16:2]`.
type Frame struct {
	OffsetOrSeq   byte
	MoreFragments bool
	Ack           bool
	Src, Dst      byte
	Payload       []byte
}

// Encode serializes f to its wire form.
func (f Frame) Encode() []byte {
	total := HeaderLen + len(f.Payload)
	buf := make([]byte, total)

	binary.LittleEndian.PutUint16(buf[0:2], uint16(total))
	buf[2] = f.OffsetOrSeq

	var flags byte
	if f.MoreFragments {
		flags |= flagMoreFragments
	}
	if f.Ack {
		flags |= flagAck
	}
	buf[3] = flags

	buf[4] = f.Src
	buf[5] = f.Dst
	copy(buf[6:6+len(f.Payload)], f.Payload)

	crc := CRC16(buf[:total-crcFieldLen])
	binary.LittleEndian.PutUint16(buf[total-crcFieldLen:total], crc)
	return buf
}

// Decode parses raw as a Frame, validating its length and CRC. ok is
// false if raw is truncated, the encoded length disagrees with len(raw),
// or the CRC does not match (a corrupted frame, per spec.md's
// CrcMismatch error case).
func Decode(raw []byte) (Frame, bool) {
	if len(raw) < HeaderLen {
		return Frame{}, false
	}
	total := int(binary.LittleEndian.Uint16(raw[0:2]))
	if total != len(raw) || total < HeaderLen {
		return Frame{}, false
	}

	want := binary.LittleEndian.Uint16(raw[total-crcFieldLen : total])
	got := CRC16(raw[:total-crcFieldLen])
	if want != got {
		return Frame{}, false
	}

	flags := raw[3]
	f := Frame{
		OffsetOrSeq:   raw[2],
		MoreFragments: flags&flagMoreFragments != 0,
		Ack:           flags&flagAck != 0,
		Src:           raw[4],
		Dst:           raw[5],
		Payload:       append([]byte(nil), raw[6:total-crcFieldLen]...),
	}
	return f, true
}
