package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// fakeHandshaker replays a fixed sequence of output flights, reporting
// done once the sequence is exhausted.
type fakeHandshaker struct {
	flights [][]byte
	idx     int
}

func (f *fakeHandshaker) Begin() {}

func (f *fakeHandshaker) HandshakeStep(_ []byte) ([]byte, bool, error) {
	out := f.flights[f.idx]
	f.idx++
	return out, f.idx >= len(f.flights), nil
}

func newTestControl(host *fakeHost, cb Callbacks) (*Control, *fakeHandshaker) {
	hs := &fakeHandshaker{flights: [][]byte{[]byte("server-hello")}}
	return NewControl(host, hs, cb), hs
}

func driveToActive(t *testing.T, host *fakeHost, c *Control) {
	t.Helper()
	c.Start()
	require.Equal(t, StateVersionSent, c.State())

	host.deliver(wire.ChannelControl, uint16(wire.ControlVersionResponseID), wire.VersionResponse{
		MajorVersion: protocolMajorVersion, MinorVersion: protocolMinorVersion, Status: wire.VersionMatch,
	})
	require.Equal(t, StateAuthComplete, c.State())

	host.deliver(wire.ChannelControl, uint16(wire.ControlServiceDiscoveryRequestID), wire.ServiceDiscoveryRequest{
		DeviceName: "pixel", DeviceBrand: "Google",
	})
	require.Equal(t, StateActive, c.State())
}

func TestControlHandshakeReachesActive(t *testing.T) {
	host := newFakeHost()
	var discoveryBuilt bool
	c, _ := newTestControl(host, Callbacks{
		BuildDiscoveryResponse: func() wire.ServiceDiscoveryResponse {
			discoveryBuilt = true
			return wire.ServiceDiscoveryResponse{HeadUnitName: "test-unit"}
		},
	})

	driveToActive(t, host, c)
	require.True(t, discoveryBuilt)

	last := host.lastSent()
	require.Equal(t, uint16(wire.ControlServiceDiscoveryResponseID), last.ID)
	resp, ok := last.Body.(wire.ServiceDiscoveryResponse)
	require.True(t, ok)
	require.Equal(t, "test-unit", resp.HeadUnitName)
}

func TestControlVersionMismatchFails(t *testing.T) {
	host := newFakeHost()
	var quitErr error
	c, _ := newTestControl(host, Callbacks{OnQuit: func(err error) { quitErr = err }})

	c.Start()
	host.deliver(wire.ChannelControl, uint16(wire.ControlVersionResponseID), wire.VersionResponse{
		Status: wire.VersionMismatch,
	})

	require.Equal(t, StateShutdown, c.State())
	require.Error(t, quitErr)
}

func TestControlAudioFocusRoundTrip(t *testing.T) {
	host := newFakeHost()
	c, _ := newTestControl(host, Callbacks{
		OnAudioFocusRequest: func(req wire.AudioFocusRequest) wire.AudioFocusResponse {
			return wire.AudioFocusResponse{State: wire.AudioFocusStateGain}
		},
	})
	driveToActive(t, host, c)

	host.deliver(wire.ChannelControl, uint16(wire.ControlAudioFocusRequestID), wire.AudioFocusRequest{
		ChannelID: wire.ChannelMediaAudio, Type: wire.AudioFocusGain,
	})

	last := host.lastSent()
	require.Equal(t, uint16(wire.ControlAudioFocusResponseID), last.ID)
	resp := last.Body.(wire.AudioFocusResponse)
	require.Equal(t, wire.AudioFocusStateGain, resp.State)
}

func TestControlPingPong(t *testing.T) {
	host := newFakeHost()
	var gotPong int64
	c, _ := newTestControl(host, Callbacks{OnPong: func(ts int64) { gotPong = ts }})
	driveToActive(t, host, c)

	c.SendPing(42)
	last := host.lastSent()
	require.Equal(t, uint16(wire.ControlPingRequestID), last.ID)

	host.deliver(wire.ChannelControl, uint16(wire.ControlPingResponseID), wire.PingResponse{Timestamp: 42})
	require.Equal(t, int64(42), gotPong)
}

func TestControlShutdownRequestFromPeer(t *testing.T) {
	host := newFakeHost()
	var reason string
	c, _ := newTestControl(host, Callbacks{OnShutdownRequested: func(r string) { reason = r }})
	driveToActive(t, host, c)

	host.deliver(wire.ChannelControl, uint16(wire.ControlShutdownRequestID), wire.ShutdownRequest{Reason: "user quit"})

	require.Equal(t, StateShutdown, c.State())
	require.Equal(t, "user quit", reason)
	last := host.lastSent()
	require.Equal(t, uint16(wire.ControlShutdownResponseID), last.ID)
}

func TestControlLocalShutdownRequest(t *testing.T) {
	host := newFakeHost()
	c, _ := newTestControl(host, Callbacks{})
	driveToActive(t, host, c)

	c.RequestShutdown("device error")

	require.Equal(t, StateShutdown, c.State())
	last := host.lastSent()
	require.Equal(t, uint16(wire.ControlShutdownRequestID), last.ID)
	req := last.Body.(wire.ShutdownRequest)
	require.Equal(t, "device error", req.Reason)
}
