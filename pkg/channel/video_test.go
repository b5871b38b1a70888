package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

func TestVideoOpenSetupAndMedia(t *testing.T) {
	host := newFakeHost()
	sink := &ports.LoggingVideoSink{}
	v := NewVideo(host, sink, 800, 480, 140, 60, "h264", 10_000_000)

	v.Open()
	host.deliver(wire.ChannelVideo, uint16(wire.AVChannelOpenRequestID), wire.ChannelOpenRequest{Priority: 1})

	last := host.lastSent()
	require.Equal(t, uint16(wire.AVChannelOpenResponseID), last.ID)
	require.Equal(t, wire.StatusOK, last.Body.(wire.ChannelOpenResponse).Status)

	host.deliver(wire.ChannelVideo, uint16(wire.AVChannelSetupRequestID), wire.AVChannelSetupRequest{ConfigIndex: 0})

	// Setup response, then the unsolicited focus indication chained
	// after its send completes (§4.8).
	require.Equal(t, 3, host.sentCount())
	setupResp := host.sent[1]
	require.Equal(t, uint16(wire.AVChannelSetupResponseID), setupResp.ID)
	require.Equal(t, wire.StatusOK, setupResp.Body.(wire.AVChannelSetupResponse).Status)
	focusInd := host.sent[2]
	require.Equal(t, uint16(wire.VideoFocusIndicationID), focusInd.ID)
	require.False(t, focusInd.Body.(wire.VideoFocusIndication).Unsolicited)

	host.deliver(wire.ChannelVideo, uint16(wire.AVChannelStartIndicationID), wire.AVChannelStartIndication{SessionID: 7})
	host.deliver(wire.ChannelVideo, uint16(wire.AVMediaWithTimestampIndicationID), wire.AVMediaWithTimestampIndication{
		Timestamp: 1000, Data: []byte{1, 2, 3},
	})

	ack := host.lastSent()
	require.Equal(t, uint16(wire.AVMediaAckIndicationID), ack.ID)
	require.Equal(t, int32(7), ack.Body.(wire.AVMediaAckIndication).SessionID)

	descriptor := v.Descriptor()
	require.Equal(t, wire.ChannelTypeVideo, descriptor.ChannelType)
	require.Equal(t, uint16(800), descriptor.VideoFeature.Width)
}

func TestVideoFocusRequestRoundTrip(t *testing.T) {
	host := newFakeHost()
	sink := &ports.LoggingVideoSink{}
	v := NewVideo(host, sink, 800, 480, 140, 60, "h264", 10_000_000)

	v.Open()
	host.deliver(wire.ChannelVideo, uint16(wire.AVChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelVideo, uint16(wire.AVChannelSetupRequestID), wire.AVChannelSetupRequest{})
	host.deliver(wire.ChannelVideo, uint16(wire.VideoFocusRequestID), wire.VideoFocusRequest{Mode: wire.VideoFocusModeUnfocused})

	last := host.lastSent()
	require.Equal(t, uint16(wire.VideoFocusIndicationID), last.ID)
	ind := last.Body.(wire.VideoFocusIndication)
	require.Equal(t, wire.VideoFocusModeUnfocused, ind.Mode)
	require.False(t, ind.Unsolicited)
	require.False(t, v.focused)
}
