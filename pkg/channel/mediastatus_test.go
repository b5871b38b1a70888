package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// recordingDashboard is a DashboardListener that keeps every update it
// receives, so a test can check what a channel forwarded.
type recordingDashboard struct {
	playback []wire.MediaPlaybackIndication
	metadata []wire.MediaMetadataIndication
	status   []wire.NavigationStatusIndication
	turns    []wire.NavigationTurnIndication
	distance []wire.NavigationDistanceIndication
}

var _ ports.DashboardListener = (*recordingDashboard)(nil)

func (d *recordingDashboard) OnPlaybackState(ind wire.MediaPlaybackIndication) {
	d.playback = append(d.playback, ind)
}

func (d *recordingDashboard) OnTrackMetadata(ind wire.MediaMetadataIndication) {
	d.metadata = append(d.metadata, ind)
}

func (d *recordingDashboard) OnNavigationStatus(ind wire.NavigationStatusIndication) {
	d.status = append(d.status, ind)
}

func (d *recordingDashboard) OnTurn(ind wire.NavigationTurnIndication) {
	d.turns = append(d.turns, ind)
}

func (d *recordingDashboard) OnDistance(ind wire.NavigationDistanceIndication) {
	d.distance = append(d.distance, ind)
}

func TestMediaStatusForwardsToDashboard(t *testing.T) {
	host := newFakeHost()
	dash := &recordingDashboard{}
	m := NewMediaStatus(host, dash)

	m.Open()
	host.deliver(wire.ChannelMediaStatus, uint16(wire.MediaStatusChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelMediaStatus, uint16(wire.MediaStatusMetadataIndicationID), wire.MediaMetadataIndication{
		Title: "Song", Artist: "Artist",
	})
	host.deliver(wire.ChannelMediaStatus, uint16(wire.MediaStatusPlaybackIndicationID), wire.MediaPlaybackIndication{
		State: wire.PlaybackStatePlaying,
	})

	// No responses are ever sent for media-status indications; only the
	// initial ChannelOpenResponse went out.
	require.Equal(t, 1, host.sentCount())

	require.Equal(t, []wire.MediaMetadataIndication{{Title: "Song", Artist: "Artist"}}, dash.metadata)
	require.Equal(t, []wire.MediaPlaybackIndication{{State: wire.PlaybackStatePlaying}}, dash.playback)
}

func TestNavigationForwardsToDashboard(t *testing.T) {
	host := newFakeHost()
	dash := &recordingDashboard{}
	n := NewNavigation(host, dash, 1000)

	n.Open()
	host.deliver(wire.ChannelNavigation, uint16(wire.NavigationChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelNavigation, uint16(wire.NavigationTurnIndicationID), wire.NavigationTurnIndication{
		Maneuver: wire.ManeuverTurnLeft, RoadName: "Main St",
	})
	host.deliver(wire.ChannelNavigation, uint16(wire.NavigationDistanceIndicationID), wire.NavigationDistanceIndication{
		MetersRemaining: 100, SecondsRemaining: 20,
	})

	require.Equal(t, []wire.NavigationTurnIndication{{Maneuver: wire.ManeuverTurnLeft, RoadName: "Main St"}}, dash.turns)
	require.Equal(t, []wire.NavigationDistanceIndication{{MetersRemaining: 100, SecondsRemaining: 20}}, dash.distance)

	descriptor := n.Descriptor()
	require.Equal(t, uint32(1000), descriptor.NavigationFeature.MinimumIntervalMillis)
	require.Equal(t, wire.DefaultNavigationImageOptions, descriptor.NavigationFeature.ImageOptions)
}
