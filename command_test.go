package inputnode

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/netip"
	"testing"
	"time"
)

func TestDecodeSetTargetAbsolutePort(t *testing.T) {
	dec := NewDecoder(8112)

	cmd, err := dec.Decode([]byte(`{"type":"updateTarget","target":"10.0.0.2","target_port":9100}`))
	require.NoError(t, err)

	require.IsType(t, SetTarget{}, cmd)
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.2:9100"), cmd.(SetTarget).Addr)
}

func TestDecodeSetTargetRebasedPort(t *testing.T) {
	// The node initially targets port 8112, so its offset within a 10000
	// port area block is 8112. A base of 20000 moves it to 28112.
	dec := NewDecoder(8112)

	cmd, err := dec.Decode([]byte(`{"type":"updateTarget","target":"10.0.0.3","target_port_base":20000}`))
	require.NoError(t, err)

	require.IsType(t, SetTarget{}, cmd)
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.3:28112"), cmd.(SetTarget).Addr)
}

func TestDecodeSetTargetOffsetWraps(t *testing.T) {
	// Ports above the block size keep only their in-block offset.
	dec := NewDecoder(18112)

	cmd, err := dec.Decode([]byte(`{"type":"updateTarget","target":"10.0.0.3","target_port_base":30000}`))
	require.NoError(t, err)

	assert.Equal(t, netip.MustParseAddrPort("10.0.0.3:38112"), cmd.(SetTarget).Addr)
}

func TestDecodeSetTargetAbsoluteWinsOverBase(t *testing.T) {
	dec := NewDecoder(8112)

	cmd, err := dec.Decode([]byte(`{"type":"updateTarget","target":"10.0.0.2","target_port":9100,"target_port_base":20000}`))
	require.NoError(t, err)

	assert.Equal(t, uint16(9100), cmd.(SetTarget).Addr.Port())
}

func TestDecodeSetTargetInvalid(t *testing.T) {
	dec := NewDecoder(8112)

	cases := []string{
		`{"type":"updateTarget"}`,
		`{"type":"updateTarget","target":"not-an-ip","target_port":9100}`,
		`{"type":"updateTarget","target":"10.0.0.2"}`,
		`{"type":"updateTarget","target":"10.0.0.2","target_port":0}`,
		`{"type":"updateTarget","target":"10.0.0.2","target_port_base":60000}`,
	}
	for _, raw := range cases {
		_, err := dec.Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidTarget, "input: %s", raw)
	}
}

func TestDecodePing(t *testing.T) {
	dec := NewDecoder(8112)

	cmd, err := dec.Decode([]byte(`{"type":"udpPing"}`))
	require.NoError(t, err)
	require.IsType(t, Ping{}, cmd)
	assert.False(t, cmd.(Ping).ReplyTo.IsValid())

	cmd, err = dec.Decode([]byte(`{"type":"udpPing","replyTo":"10.0.0.9:8888"}`))
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.9:8888"), cmd.(Ping).ReplyTo)
}

func TestDecodePingInvalidReplyTo(t *testing.T) {
	dec := NewDecoder(8112)

	_, err := dec.Decode([]byte(`{"type":"udpPing","replyTo":"no-port"}`))
	assert.ErrorIs(t, err, ErrInvalidReply)
}

func TestDecodeUnknownType(t *testing.T) {
	dec := NewDecoder(8112)

	_, err := dec.Decode([]byte(`{"type":"selfDestruct"}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDecodeNotJSON(t *testing.T) {
	dec := NewDecoder(8112)

	_, err := dec.Decode([]byte("{oops"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownCommand)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	dec := NewDecoder(8112)

	cmd, err := dec.Decode([]byte(`{"type":"udpPing","ttl":3,"trace":"abc"}`))
	require.NoError(t, err)
	assert.IsType(t, Ping{}, cmd)
}

func TestEncodeSetTargetRoundTrip(t *testing.T) {
	dec := NewDecoder(8112)
	addr := netip.MustParseAddrPort("10.0.0.2:9100")

	cmd, err := dec.Decode(EncodeSetTarget(addr))
	require.NoError(t, err)
	assert.Equal(t, addr, cmd.(SetTarget).Addr)
}

func TestEncodeSetTargetBaseRoundTrip(t *testing.T) {
	dec := NewDecoder(8112)

	cmd, err := dec.Decode(EncodeSetTargetBase(netip.MustParseAddr("10.0.0.3"), 20000))
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.3:28112"), cmd.(SetTarget).Addr)
}

func TestEncodePingRoundTrip(t *testing.T) {
	dec := NewDecoder(8112)

	cmd, err := dec.Decode(EncodePing(netip.AddrPort{}))
	require.NoError(t, err)
	assert.False(t, cmd.(Ping).ReplyTo.IsValid())

	replyTo := netip.MustParseAddrPort("10.0.0.9:8888")
	cmd, err = dec.Decode(EncodePing(replyTo))
	require.NoError(t, err)
	assert.Equal(t, replyTo, cmd.(Ping).ReplyTo)
}

func TestTargetAckRoundTrip(t *testing.T) {
	ok, err := DecodeTargetAck(encodeTargetAck())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDecodeTargetAckRejectsOtherTypes(t *testing.T) {
	_, err := DecodeTargetAck([]byte(`{"type":"udpPing","success":true}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestPingReplyRoundTrip(t *testing.T) {
	sent := time.Now()

	got, err := DecodePingReply(EncodePingReply(sent))
	require.NoError(t, err)

	// The wire carries whole microseconds.
	assert.Equal(t, sent.UnixMicro(), got.UnixMicro())
	assert.WithinDuration(t, sent, got, time.Microsecond)
}

func TestDecodePingReplyWrongSize(t *testing.T) {
	_, err := DecodePingReply([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrPingReplySize)

	_, err = DecodePingReply(make([]byte, 9))
	assert.ErrorIs(t, err, ErrPingReplySize)
}
