package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketDataRoundTrip(t *testing.T) {
	p := Packet{Tag: TagData, SequenceID: 42, Offset: 1024, Data: []byte("hello athernet")}
	raw := p.Encode()
	got, ok := Decode(raw)
	require.True(t, ok)
	require.Equal(t, p.Tag, got.Tag)
	require.Equal(t, p.SequenceID, got.SequenceID)
	require.Equal(t, p.Offset, got.Offset)
	require.Equal(t, p.Data, got.Data)
}

func TestPacketSackRoundTrip(t *testing.T) {
	p := Packet{
		Tag:                      TagSack,
		Ranges:                   []Range{{Start: 0, End: 3}, {Start: 5, End: 9}},
		LargestConfirmedSeqID:    8,
		LargestConfirmedSeqIDSet: true,
	}
	raw := p.Encode()
	got, ok := Decode(raw)
	require.True(t, ok)
	require.Equal(t, p.Ranges, got.Ranges)
	require.Equal(t, p.LargestConfirmedSeqID, got.LargestConfirmedSeqID)
	require.True(t, got.LargestConfirmedSeqIDSet)
}

func TestPacketPeerVacantRoundTrip(t *testing.T) {
	p := Packet{Tag: TagPeerVacant}
	raw := p.Encode()
	got, ok := Decode(raw)
	require.True(t, ok)
	require.Equal(t, TagPeerVacant, got.Tag)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, ok := Decode([]byte{0xFF})
	require.False(t, ok)
}
