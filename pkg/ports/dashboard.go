package ports

import "github.com/aa-headunit/headunit-go/pkg/wire"

// DashboardListener receives media-status and navigation updates
// forwarded from the phone (§4.10). It stands in for the car's UI or an
// IPC bridge to one.
type DashboardListener interface {
	OnPlaybackState(wire.MediaPlaybackIndication)
	OnTrackMetadata(wire.MediaMetadataIndication)
	OnNavigationStatus(wire.NavigationStatusIndication)
	OnTurn(wire.NavigationTurnIndication)
	OnDistance(wire.NavigationDistanceIndication)
}
