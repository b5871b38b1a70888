package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// MediaStatus is the media-status channel (§4.10): a one-way relay of
// now-playing state from the phone to a DashboardListener. It never
// replies to the indications it receives.
type MediaStatus struct {
	base

	dashboard ports.DashboardListener
}

// NewMediaStatus creates the media-status channel.
func NewMediaStatus(host Host, dashboard ports.DashboardListener) *MediaStatus {
	return &MediaStatus{base: base{host: host, id: wire.ChannelMediaStatus, name: "media_status"}, dashboard: dashboard}
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (m *MediaStatus) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:          wire.ChannelMediaStatus,
		ChannelType:        wire.ChannelTypeMediaStatus,
		MediaStatusFeature: &wire.MediaStatusFeature{},
	}
}

// Open begins waiting for the phone to open this channel.
func (m *MediaStatus) Open() {
	m.logState("closed", "awaiting_open", "")
	m.register(m.openResponder(uint16(wire.MediaStatusChannelOpenResponseID), m.dispatch))
}

func (m *MediaStatus) dispatch(messageID uint16, payload []byte) {
	switch wire.MediaStatusMessageID(messageID) {
	case wire.MediaStatusPlaybackIndicationID:
		var ind wire.MediaPlaybackIndication
		if err := wire.Unmarshal(payload, &ind); err != nil {
			m.logError("malformed_playback_indication", err)
			break
		}
		if m.dashboard != nil {
			m.dashboard.OnPlaybackState(ind)
		}
	case wire.MediaStatusMetadataIndicationID:
		var ind wire.MediaMetadataIndication
		if err := wire.Unmarshal(payload, &ind); err != nil {
			m.logError("malformed_metadata_indication", err)
			break
		}
		if m.dashboard != nil {
			m.dashboard.OnTrackMetadata(ind)
		}
	default:
		m.logError("unknown_media_status_message", errs.New(errs.UnknownMessage, ""))
	}
	m.register(m.dispatch)
}
