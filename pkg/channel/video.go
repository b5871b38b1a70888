package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// maxUnackedVideoFrames bounds how far the phone may stream ahead of the
// head unit's consumption before pausing, reported in
// AVChannelSetupResponse (§4.5).
const maxUnackedVideoFrames = 1

// videoConfigIndex is the single configuration this channel advertises,
// echoed back in AVChannelSetupResponse rather than the requested index
// (§4.5: the head unit offers exactly one config, index 0).
const videoConfigIndex = 0

// Video is the video channel (§4.5): negotiates one of the advertised
// resolutions, then relays the H.264 access-unit stream to a VideoSink.
type Video struct {
	base

	sink   ports.VideoSink
	width  uint16
	height uint16
	dpi    uint16
	fps    uint8
	codec  string
	maxBitrate uint32

	focused   bool
	sessionID int32
}

// NewVideo creates the video channel advertising a single resolution/
// codec configuration. width/height/dpi/fps/codec/maxBitrate describe
// that configuration for both the ChannelDescriptor and the setup
// negotiation.
func NewVideo(host Host, sink ports.VideoSink, width, height, dpi uint16, fps uint8, codec string, maxBitrate uint32) *Video {
	return &Video{
		base:       base{host: host, id: wire.ChannelVideo, name: "video"},
		sink:       sink,
		width:      width,
		height:     height,
		dpi:        dpi,
		fps:        fps,
		codec:      codec,
		maxBitrate: maxBitrate,
	}
}

// Descriptor returns this channel's entry for ServiceDiscoveryResponse.
func (v *Video) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:   wire.ChannelVideo,
		ChannelType: wire.ChannelTypeVideo,
		VideoFeature: &wire.VideoFeature{
			Width: v.width, Height: v.height, DPI: v.dpi, FPS: v.fps,
			Codec: v.codec, MaxBitrate: v.maxBitrate,
		},
	}
}

// Open begins waiting for the phone to open this channel.
func (v *Video) Open() {
	v.logState("closed", "awaiting_open", "")
	v.register(v.openResponder(uint16(wire.AVChannelOpenResponseID), v.onSetupRequest))
}

func (v *Video) onSetupRequest(_ uint16, payload []byte) {
	var req wire.AVChannelSetupRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		v.logError("malformed_setup_request", err)
		return
	}

	if err := v.sink.Open(); err != nil {
		v.logError("sink_open", err)
		v.send(uint16(wire.AVChannelSetupResponseID), wire.AVChannelSetupResponse{Status: wire.StatusFail}, nil)
		return
	}
	if _, err := v.sink.Init(); err != nil {
		v.logError("sink_init", err)
		v.send(uint16(wire.AVChannelSetupResponseID), wire.AVChannelSetupResponse{Status: wire.StatusFail}, nil)
		return
	}

	resp := wire.AVChannelSetupResponse{
		Status:           wire.StatusOK,
		ConfigIndex:      videoConfigIndex,
		MaxUnackedFrames: maxUnackedVideoFrames,
	}
	v.register(v.dispatch)
	v.send(uint16(wire.AVChannelSetupResponseID), resp, func(err error) {
		if err != nil {
			v.logError("send_setup_response", err)
			return
		}
		// §4.8: the unsolicited focus indication follows the setup
		// response's send-completion, never races ahead of it.
		v.focused = true
		v.send(uint16(wire.VideoFocusIndicationID), wire.VideoFocusIndication{
			Mode: wire.VideoFocusModeFocused, Unsolicited: false,
		}, nil)
	})
}

// dispatch handles every steady-state video-channel message.
func (v *Video) dispatch(messageID uint16, payload []byte) {
	switch wire.AVMessageID(messageID) {
	case wire.AVChannelStartIndicationID:
		v.onStart(payload)
	case wire.AVChannelStopIndicationID:
		v.logState("streaming", "stopped", "")
	case wire.AVMediaWithTimestampIndicationID:
		v.onMedia(payload)
	case wire.VideoFocusRequestID:
		v.onFocusRequest(payload)
	default:
		v.logError("unknown_video_message", errs.New(errs.UnknownMessage, ""))
	}
	v.register(v.dispatch)
}

func (v *Video) onStart(payload []byte) {
	var ind wire.AVChannelStartIndication
	if err := wire.Unmarshal(payload, &ind); err != nil {
		v.logError("malformed_start_indication", err)
		return
	}
	v.sessionID = ind.SessionID
	v.logState("awaiting_open", "streaming", "")
}

func (v *Video) onMedia(payload []byte) {
	var ind wire.AVMediaWithTimestampIndication
	if err := wire.Unmarshal(payload, &ind); err != nil {
		v.logError("malformed_media", err)
		return
	}
	if err := v.sink.Write(ind.Timestamp, ind.Data); err != nil {
		v.logError("sink_write", err)
	}
	v.send(uint16(wire.AVMediaAckIndicationID), wire.AVMediaAckIndication{SessionID: v.sessionID}, nil)
}

func (v *Video) onFocusRequest(payload []byte) {
	var req wire.VideoFocusRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		v.logError("malformed_focus_request", err)
		return
	}
	v.focused = req.Mode == wire.VideoFocusModeFocused
	v.send(uint16(wire.VideoFocusIndicationID), wire.VideoFocusIndication{
		Mode: req.Mode, Unsolicited: false,
	}, nil)
}
