package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

func TestMediaAudioSetupAndMedia(t *testing.T) {
	host := newFakeHost()
	sink := &ports.LoggingAudioSink{Name: "media_audio"}
	a := NewMediaAudio(host, sink, 48000, 16, 2)

	a.Open()
	host.deliver(wire.ChannelMediaAudio, uint16(wire.AVChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelMediaAudio, uint16(wire.AVChannelSetupRequestID), wire.AVChannelSetupRequest{})

	last := host.lastSent()
	require.Equal(t, uint16(wire.AVChannelSetupResponseID), last.ID)
	require.Equal(t, wire.StatusOK, last.Body.(wire.AVChannelSetupResponse).Status)

	host.deliver(wire.ChannelMediaAudio, uint16(wire.AVChannelStartIndicationID), wire.AVChannelStartIndication{SessionID: 3})
	host.deliver(wire.ChannelMediaAudio, uint16(wire.AVMediaWithTimestampIndicationID), wire.AVMediaWithTimestampIndication{
		Timestamp: 500, Data: []byte{9, 9},
	})

	ack := host.lastSent()
	require.Equal(t, uint16(wire.AVMediaAckIndicationID), ack.ID)
	require.Equal(t, int32(3), ack.Body.(wire.AVMediaAckIndication).SessionID)

	descriptor := a.Descriptor()
	require.Equal(t, wire.ChannelTypeMediaAudio, descriptor.ChannelType)
}

func TestSpeechAudioUsesUntimestampedMedia(t *testing.T) {
	host := newFakeHost()
	sink := &ports.LoggingAudioSink{Name: "speech_audio"}
	a := NewSpeechAudio(host, sink, 16000, 16, 1)

	a.Open()
	host.deliver(wire.ChannelSpeechAudio, uint16(wire.AVChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelSpeechAudio, uint16(wire.AVChannelSetupRequestID), wire.AVChannelSetupRequest{})
	host.deliver(wire.ChannelSpeechAudio, uint16(wire.AVMediaIndicationID), wire.AVMediaIndication{Data: []byte{1}})

	require.Equal(t, uint16(wire.AVMediaAckIndicationID), host.lastSent().ID)
	require.Equal(t, wire.ChannelTypeSpeechAudio, a.Descriptor().ChannelType)
}

func TestAudioInputCaptureLifecycle(t *testing.T) {
	host := newFakeHost()
	source := &ports.SilentAudioSource{}
	a := NewAudioInput(host, source, 16000, 16, 1)

	a.Open()
	host.deliver(wire.ChannelAudioInput, uint16(wire.AVChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelAudioInput, uint16(wire.AVInputOpenRequestID), wire.ChannelOpenRequest{})

	last := host.lastSent()
	require.Equal(t, uint16(wire.AVInputOpenResponseID), last.ID)
	require.True(t, a.capturing)

	host.deliver(wire.ChannelAudioInput, uint16(wire.AVChannelStopIndicationID), nil)
	require.False(t, a.capturing)
}
