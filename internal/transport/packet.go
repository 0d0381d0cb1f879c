// Package transport implements the SACK-based reliable byte stream that
// rides on top of a sequence of link.Frame-sized datagrams: fragment
// sequencing, selective-ack coalescing, RTT-driven retransmission timers,
// and a peer-vacant idle beacon.
package transport

import "encoding/binary"

// Tag identifies which TransportPacket variant follows. Values are fixed
// by the wire format, not by Go iota ordering.
type Tag byte

const (
	TagPeerVacant  Tag = 0
	TagSack        Tag = 1
	TagData        Tag = 2
	TagHeader      Tag = 3
	TagRttRequest  Tag = 4
	TagRttResponse Tag = 5
)

// Range is an inclusive-exclusive sequence-id range [Start, End).
type Range struct {
	Start, End uint16
}

// Packet is the tagged union transmitted over the link layer. Exactly one
// of the typed fields is meaningful, selected by Tag.
type Packet struct {
	Tag Tag

	// TagSack
	Ranges                    []Range
	LargestConfirmedSeqID     uint16
	LargestConfirmedSeqIDSet  bool

	// TagData
	SequenceID uint16
	Offset     uint32
	Data       []byte

	// TagHeader
	SequenceCount uint16
	DataLength    uint32

	// TagRttRequest / TagRttResponse
	RTTStartMillis uint16
}

// Encode serializes p to its wire form: a one-byte tag followed by a
// variant-specific body.
func (p Packet) Encode() []byte {
	switch p.Tag {
	case TagPeerVacant:
		return []byte{byte(TagPeerVacant)}

	case TagSack:
		buf := []byte{byte(TagSack)}
		var countBuf [2]byte
		binary.LittleEndian.PutUint16(countBuf[:], uint16(len(p.Ranges)))
		buf = append(buf, countBuf[:]...)
		for _, r := range p.Ranges {
			var rb [4]byte
			binary.LittleEndian.PutUint16(rb[0:2], r.Start)
			binary.LittleEndian.PutUint16(rb[2:4], r.End)
			buf = append(buf, rb[:]...)
		}
		var has byte
		if p.LargestConfirmedSeqIDSet {
			has = 1
		}
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], p.LargestConfirmedSeqID)
		buf = append(buf, has)
		buf = append(buf, lb[:]...)
		return buf

	case TagData:
		buf := []byte{byte(TagData)}
		var hdr [6]byte
		binary.LittleEndian.PutUint16(hdr[0:2], p.SequenceID)
		binary.LittleEndian.PutUint32(hdr[2:6], p.Offset)
		buf = append(buf, hdr[:]...)
		buf = append(buf, p.Data...)
		return buf

	case TagHeader:
		buf := []byte{byte(TagHeader)}
		var hdr [6]byte
		binary.LittleEndian.PutUint16(hdr[0:2], p.SequenceCount)
		binary.LittleEndian.PutUint32(hdr[2:6], p.DataLength)
		return append(buf, hdr[:]...)

	case TagRttRequest, TagRttResponse:
		buf := []byte{byte(p.Tag)}
		var rb [2]byte
		binary.LittleEndian.PutUint16(rb[:], p.RTTStartMillis)
		return append(buf, rb[:]...)

	default:
		return nil
	}
}

// Decode parses raw into a Packet. ok is false for an unrecognized tag or
// a body too short for its variant (spec.md's DeserializeFailure case).
func Decode(raw []byte) (Packet, bool) {
	if len(raw) < 1 {
		return Packet{}, false
	}
	tag := Tag(raw[0])
	body := raw[1:]

	switch tag {
	case TagPeerVacant:
		return Packet{Tag: TagPeerVacant}, true

	case TagSack:
		if len(body) < 2 {
			return Packet{}, false
		}
		count := int(binary.LittleEndian.Uint16(body[0:2]))
		body = body[2:]
		if len(body) < count*4+3 {
			return Packet{}, false
		}
		ranges := make([]Range, count)
		for i := 0; i < count; i++ {
			ranges[i] = Range{
				Start: binary.LittleEndian.Uint16(body[i*4 : i*4+2]),
				End:   binary.LittleEndian.Uint16(body[i*4+2 : i*4+4]),
			}
		}
		body = body[count*4:]
		has := body[0] != 0
		largest := binary.LittleEndian.Uint16(body[1:3])
		return Packet{Tag: TagSack, Ranges: ranges, LargestConfirmedSeqIDSet: has, LargestConfirmedSeqID: largest}, true

	case TagData:
		if len(body) < 6 {
			return Packet{}, false
		}
		return Packet{
			Tag:        TagData,
			SequenceID: binary.LittleEndian.Uint16(body[0:2]),
			Offset:     binary.LittleEndian.Uint32(body[2:6]),
			Data:       append([]byte(nil), body[6:]...),
		}, true

	case TagHeader:
		if len(body) < 6 {
			return Packet{}, false
		}
		return Packet{
			Tag:           TagHeader,
			SequenceCount: binary.LittleEndian.Uint16(body[0:2]),
			DataLength:    binary.LittleEndian.Uint32(body[2:6]),
		}, true

	case TagRttRequest, TagRttResponse:
		if len(body) < 2 {
			return Packet{}, false
		}
		return Packet{Tag: tag, RTTStartMillis: binary.LittleEndian.Uint16(body[0:2])}, true

	default:
		return Packet{}, false
	}
}
