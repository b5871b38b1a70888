package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// Navigation is the navigation channel (§4.10): a one-way relay of
// turn-by-turn guidance state from the phone to a DashboardListener.
type Navigation struct {
	base

	dashboard             ports.DashboardListener
	minimumIntervalMillis uint32
}

// NewNavigation creates the navigation channel, advertising
// minimumIntervalMillis as the shortest interval the phone should use
// between distance updates.
func NewNavigation(host Host, dashboard ports.DashboardListener, minimumIntervalMillis uint32) *Navigation {
	return &Navigation{
		base:                  base{host: host, id: wire.ChannelNavigation, name: "navigation"},
		dashboard:             dashboard,
		minimumIntervalMillis: minimumIntervalMillis,
	}
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (n *Navigation) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:   wire.ChannelNavigation,
		ChannelType: wire.ChannelTypeNavigation,
		NavigationFeature: &wire.NavigationFeature{
			MinimumIntervalMillis: n.minimumIntervalMillis,
			ImageOptions:          wire.DefaultNavigationImageOptions,
		},
	}
}

// Open begins waiting for the phone to open this channel.
func (n *Navigation) Open() {
	n.logState("closed", "awaiting_open", "")
	n.register(n.openResponder(uint16(wire.NavigationChannelOpenResponseID), n.dispatch))
}

func (n *Navigation) dispatch(messageID uint16, payload []byte) {
	switch wire.NavigationMessageID(messageID) {
	case wire.NavigationStatusIndicationID:
		var ind wire.NavigationStatusIndication
		if err := wire.Unmarshal(payload, &ind); err != nil {
			n.logError("malformed_status_indication", err)
			break
		}
		if n.dashboard != nil {
			n.dashboard.OnNavigationStatus(ind)
		}
	case wire.NavigationTurnIndicationID:
		var ind wire.NavigationTurnIndication
		if err := wire.Unmarshal(payload, &ind); err != nil {
			n.logError("malformed_turn_indication", err)
			break
		}
		if n.dashboard != nil {
			n.dashboard.OnTurn(ind)
		}
	case wire.NavigationDistanceIndicationID:
		var ind wire.NavigationDistanceIndication
		if err := wire.Unmarshal(payload, &ind); err != nil {
			n.logError("malformed_distance_indication", err)
			break
		}
		if n.dashboard != nil {
			n.dashboard.OnDistance(ind)
		}
	default:
		n.logError("unknown_navigation_message", errs.New(errs.UnknownMessage, ""))
	}
	n.register(n.dispatch)
}
