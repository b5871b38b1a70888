package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// AudioInput is the microphone-capture channel: the direction is
// reversed from the three output channels, so after the generic
// ChannelOpenRequest/Response it waits for a second, input-specific
// open/close pair (AVInputOpenRequestID/AVInputOpenResponseID) before it
// starts pushing captured samples upstream. Those messages carry no
// negotiable fields beyond what ChannelOpenRequest/Response already
// define, so this channel reuses those wire types under the input-open
// message IDs rather than minting duplicate empty structs.
type AudioInput struct {
	base

	source     ports.AudioSource
	sampleRate uint32
	bitDepth   uint8
	channels   uint8

	capturing bool
}

// NewAudioInput creates the audio-input channel.
func NewAudioInput(host Host, source ports.AudioSource, sampleRate uint32, bitDepth, channels uint8) *AudioInput {
	return &AudioInput{
		base:       base{host: host, id: wire.ChannelAudioInput, name: "audio_input"},
		source:     source,
		sampleRate: sampleRate,
		bitDepth:   bitDepth,
		channels:   channels,
	}
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (a *AudioInput) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:   wire.ChannelAudioInput,
		ChannelType: wire.ChannelTypeAudioInput,
		AudioFeature: &wire.AudioFeature{
			SampleRate: a.sampleRate, BitDepth: a.bitDepth, ChannelCount: a.channels,
		},
	}
}

// Open begins waiting for the phone to open this channel.
func (a *AudioInput) Open() {
	a.logState("closed", "awaiting_open", "")
	a.register(a.openResponder(uint16(wire.AVChannelOpenResponseID), a.onInputOpenRequest))
}

func (a *AudioInput) onInputOpenRequest(_ uint16, payload []byte) {
	var req wire.ChannelOpenRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		a.logError("malformed_input_open_request", err)
		return
	}

	if err := a.source.Open(); err != nil {
		a.logError("source_open", err)
		a.send(uint16(wire.AVInputOpenResponseID), wire.ChannelOpenResponse{Status: wire.StatusFail}, nil)
		return
	}

	write := func(timestampUs int64, data []byte) {
		a.send(uint16(wire.AVMediaWithTimestampIndicationID), wire.AVMediaWithTimestampIndication{
			Timestamp: timestampUs, Data: data,
		}, nil)
	}
	if err := a.source.Start(write); err != nil {
		a.logError("source_start", err)
		a.send(uint16(wire.AVInputOpenResponseID), wire.ChannelOpenResponse{Status: wire.StatusFail}, nil)
		return
	}

	a.capturing = true
	a.logState("awaiting_open", "capturing", "")
	a.register(a.onStopIndication)
	a.send(uint16(wire.AVInputOpenResponseID), wire.ChannelOpenResponse{Status: wire.StatusOK}, nil)
}

func (a *AudioInput) onStopIndication(messageID uint16, _ []byte) {
	if wire.AVMessageID(messageID) != wire.AVChannelStopIndicationID {
		a.logError("unknown_audio_input_message", errs.New(errs.UnknownMessage, ""))
		a.register(a.onStopIndication)
		return
	}
	if a.capturing {
		if err := a.source.Stop(); err != nil {
			a.logError("source_stop", err)
		}
		a.capturing = false
	}
	a.logState("capturing", "stopped", "")
}
