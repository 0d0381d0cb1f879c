package transport

// SenderState tracks the outbound side of a transfer: whether the peer
// has confirmed vacancy (ready to receive), which sequence ids are
// still missing per the most recent Sack, and which fragment to send
// next.
type SenderState struct {
	Data          []byte
	SequenceCount uint16
	SegmentLen    int

	PeerVacant            bool
	LargestConfirmedSeqID *uint16
	Missing               map[uint16]struct{}
	LastSegmentSent       *uint16
	headerSent            bool
}

// NewSenderState prepares to send data in SequenceCount-1 data segments of
// at most segmentLen bytes, reserving sequence id 0 for the Header
// packet the way the reference implementation does.
func NewSenderState(data []byte, segmentLen int) *SenderState {
	segments := (len(data) + segmentLen - 1) / segmentLen
	if segments == 0 {
		segments = 1
	}
	return &SenderState{
		Data:          data,
		SequenceCount: uint16(segments) + 1,
		SegmentLen:    segmentLen,
		Missing:       make(map[uint16]struct{}),
	}
}

// Completed reports whether every segment (including the header) has
// been confirmed delivered.
func (s *SenderState) Completed() bool {
	if len(s.Missing) != 0 {
		return false
	}
	return s.LargestConfirmedSeqID != nil && *s.LargestConfirmedSeqID == s.SequenceCount-1
}

// ApplySack updates missing/confirmed state from a received Sack packet.
func (s *SenderState) ApplySack(p Packet) {
	if p.Tag != TagSack {
		return
	}
	present := make(map[uint16]bool)
	for _, r := range p.Ranges {
		for seq := r.Start; seq < r.End; seq++ {
			present[seq] = true
		}
	}
	s.Missing = make(map[uint16]struct{})
	for seq := uint16(0); seq < s.SequenceCount; seq++ {
		if !present[seq] {
			s.Missing[seq] = struct{}{}
		}
	}
	if p.LargestConfirmedSeqIDSet {
		v := p.LargestConfirmedSeqID
		s.LargestConfirmedSeqID = &v
	}
}

// NextPackage decides what to transmit next: if the peer is not yet
// vacant there is nothing to send; otherwise it resends the Header if
// sequence id 0 is the smallest missing id (or hasn't been sent yet),
// else the smallest other missing segment, else the next not-yet-sent
// segment.
func (s *SenderState) NextPackage() (Packet, bool) {
	if !s.PeerVacant {
		return Packet{}, false
	}
	if !s.headerSent {
		s.headerSent = true
		return Packet{Tag: TagHeader, SequenceCount: s.SequenceCount, DataLength: uint32(len(s.Data))}, true
	}

	if _, missing := s.Missing[0]; missing {
		return Packet{Tag: TagHeader, SequenceCount: s.SequenceCount, DataLength: uint32(len(s.Data))}, true
	}
	smallest, found := uint16(0), false
	for seq := range s.Missing {
		if seq != 0 && (!found || seq < smallest) {
			smallest, found = seq, true
		}
	}
	if found {
		return s.dataPacket(smallest), true
	}

	var next uint16 = 1
	if s.LastSegmentSent != nil {
		next = *s.LastSegmentSent + 1
	}
	if next >= s.SequenceCount {
		return Packet{}, false
	}
	s.LastSegmentSent = &next
	return s.dataPacket(next), true
}

func (s *SenderState) dataPacket(seq uint16) Packet {
	s.LastSegmentSent = &seq
	begin := int(seq-1) * s.SegmentLen
	end := begin + s.SegmentLen
	if end > len(s.Data) {
		end = len(s.Data)
	}
	if begin > len(s.Data) {
		begin = len(s.Data)
	}
	return Packet{Tag: TagData, SequenceID: seq, Offset: uint32(begin), Data: append([]byte(nil), s.Data[begin:end]...)}
}
