package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// maxUnackedAudioFrames bounds how far the phone may stream ahead on an
// audio-output channel (§4.6).
const maxUnackedAudioFrames = 1

// audioConfigIndex is the single configuration this channel advertises,
// echoed back in AVChannelSetupResponse rather than the requested index
// (§4.6: the head unit offers exactly one config, index 0).
const audioConfigIndex = 0

// AudioOutput is one of the three audio-output channels: media audio
// carries a presentation timestamp per §4.6 ("used by video and music
// audio"); speech and system audio do not.
type AudioOutput struct {
	base

	sink        ports.AudioSink
	channelType wire.ChannelType
	sampleRate  uint32
	bitDepth    uint8
	channels    uint8
	timestamped bool

	sessionID int32
}

// NewMediaAudio creates the timestamped music/media-audio channel.
func NewMediaAudio(host Host, sink ports.AudioSink, sampleRate uint32, bitDepth, channels uint8) *AudioOutput {
	return newAudioOutput(host, wire.ChannelMediaAudio, wire.ChannelTypeMediaAudio, "media_audio", sink, sampleRate, bitDepth, channels, true)
}

// NewSpeechAudio creates the non-timestamped voice-guidance audio channel.
func NewSpeechAudio(host Host, sink ports.AudioSink, sampleRate uint32, bitDepth, channels uint8) *AudioOutput {
	return newAudioOutput(host, wire.ChannelSpeechAudio, wire.ChannelTypeSpeechAudio, "speech_audio", sink, sampleRate, bitDepth, channels, false)
}

// NewSystemAudio creates the non-timestamped system-sound audio channel.
func NewSystemAudio(host Host, sink ports.AudioSink, sampleRate uint32, bitDepth, channels uint8) *AudioOutput {
	return newAudioOutput(host, wire.ChannelSystemAudio, wire.ChannelTypeSystemAudio, "system_audio", sink, sampleRate, bitDepth, channels, false)
}

func newAudioOutput(host Host, id wire.ChannelID, typ wire.ChannelType, name string, sink ports.AudioSink, sampleRate uint32, bitDepth, channels uint8, timestamped bool) *AudioOutput {
	return &AudioOutput{
		base:        base{host: host, id: id, name: name},
		sink:        sink,
		channelType: typ,
		sampleRate:  sampleRate,
		bitDepth:    bitDepth,
		channels:    channels,
		timestamped: timestamped,
	}
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (a *AudioOutput) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:   a.id,
		ChannelType: a.channelType,
		AudioFeature: &wire.AudioFeature{
			SampleRate: a.sampleRate, BitDepth: a.bitDepth, ChannelCount: a.channels,
		},
	}
}

// Open begins waiting for the phone to open this channel.
func (a *AudioOutput) Open() {
	a.logState("closed", "awaiting_open", "")
	a.register(a.openResponder(uint16(wire.AVChannelOpenResponseID), a.onSetupRequest))
}

func (a *AudioOutput) onSetupRequest(_ uint16, payload []byte) {
	var req wire.AVChannelSetupRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		a.logError("malformed_setup_request", err)
		return
	}

	if err := a.sink.Open(); err != nil {
		a.logError("sink_open", err)
		a.send(uint16(wire.AVChannelSetupResponseID), wire.AVChannelSetupResponse{Status: wire.StatusFail}, nil)
		return
	}
	if _, err := a.sink.Init(); err != nil {
		a.logError("sink_init", err)
		a.send(uint16(wire.AVChannelSetupResponseID), wire.AVChannelSetupResponse{Status: wire.StatusFail}, nil)
		return
	}

	a.register(a.dispatch)
	a.send(uint16(wire.AVChannelSetupResponseID), wire.AVChannelSetupResponse{
		Status: wire.StatusOK, ConfigIndex: audioConfigIndex, MaxUnackedFrames: maxUnackedAudioFrames,
	}, nil)
}

func (a *AudioOutput) dispatch(messageID uint16, payload []byte) {
	switch wire.AVMessageID(messageID) {
	case wire.AVChannelStartIndicationID:
		a.onStart(payload)
	case wire.AVChannelStopIndicationID:
		a.logState("streaming", "stopped", "")
	case wire.AVMediaWithTimestampIndicationID:
		a.onTimestampedMedia(payload)
	case wire.AVMediaIndicationID:
		a.onMedia(payload)
	default:
		a.logError("unknown_audio_message", errs.New(errs.UnknownMessage, ""))
	}
	a.register(a.dispatch)
}

func (a *AudioOutput) onStart(payload []byte) {
	var ind wire.AVChannelStartIndication
	if err := wire.Unmarshal(payload, &ind); err != nil {
		a.logError("malformed_start_indication", err)
		return
	}
	a.sessionID = ind.SessionID
	a.logState("awaiting_open", "streaming", "")
}

func (a *AudioOutput) onTimestampedMedia(payload []byte) {
	var ind wire.AVMediaWithTimestampIndication
	if err := wire.Unmarshal(payload, &ind); err != nil {
		a.logError("malformed_media", err)
		return
	}
	if err := a.sink.Write(ind.Timestamp, ind.Data); err != nil {
		a.logError("sink_write", err)
	}
	a.send(uint16(wire.AVMediaAckIndicationID), wire.AVMediaAckIndication{SessionID: a.sessionID}, nil)
}

func (a *AudioOutput) onMedia(payload []byte) {
	var ind wire.AVMediaIndication
	if err := wire.Unmarshal(payload, &ind); err != nil {
		a.logError("malformed_media", err)
		return
	}
	if err := a.sink.Write(0, ind.Data); err != nil {
		a.logError("sink_write", err)
	}
	a.send(uint16(wire.AVMediaAckIndicationID), wire.AVMediaAckIndication{SessionID: a.sessionID}, nil)
}
