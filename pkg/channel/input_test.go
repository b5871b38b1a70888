package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

func TestPointerAllocatorReusesSmallestFreeID(t *testing.T) {
	p := newPointerAllocator()
	a := p.assign(100)
	b := p.assign(200)
	require.Equal(t, uint8(0), a)
	require.Equal(t, uint8(1), b)

	p.release(100)
	c := p.assign(300)
	require.Equal(t, uint8(0), c, "freed ID 0 should be reused before minting 2")

	require.Equal(t, uint8(1), p.assign(200))
}

func TestInputBindingAndTouchRescale(t *testing.T) {
	host := newFakeHost()
	source := &ports.NullInputSource{ScanCodes: []uint32{1}, Width: 1000, Height: 500}
	in := NewInput(host, source, map[uint32]wire.ButtonCode{1: wire.ButtonHome})

	in.Open()
	host.deliver(wire.ChannelInput, uint16(wire.InputChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelInput, uint16(wire.InputBindingRequestID), wire.BindingRequest{
		ScreenWidth: 800, ScreenHeight: 480, ScanCodes: []uint32{1},
	})

	last := host.lastSent()
	require.Equal(t, uint16(wire.InputBindingResponseID), last.ID)
	require.Equal(t, wire.StatusOK, last.Body.(wire.BindingResponse).Status)

	in.OnTouch(1000, ports.TouchPress, []ports.TouchPoint{{HostPointerID: 42, X: 500, Y: 250}})

	touchSent := host.lastSent()
	require.Equal(t, uint16(wire.InputEventIndicationID), touchSent.ID)
	ind := touchSent.Body.(wire.InputEventIndication)
	require.NotNil(t, ind.Touch)
	require.Equal(t, wire.TouchActionDown, ind.Touch.Action)
	require.Len(t, ind.Touch.Pointers, 1)
	// x = 500 * 800/1000 = 400, y = 250 * 480/500 = 240
	require.Equal(t, uint16(400), ind.Touch.Pointers[0].X)
	require.Equal(t, uint16(240), ind.Touch.Pointers[0].Y)

	in.OnTouch(1100, ports.TouchRelease, []ports.TouchPoint{{HostPointerID: 42, X: 500, Y: 250}})
	released := host.lastSent().Body.(wire.InputEventIndication)
	require.Equal(t, wire.TouchActionUp, released.Touch.Action)

	// After release the pointer ID is freed and reused on the next touch.
	in.OnTouch(1200, ports.TouchPress, []ports.TouchPoint{{HostPointerID: 99, X: 0, Y: 0}})
	reused := host.lastSent().Body.(wire.InputEventIndication)
	require.Equal(t, uint8(0), reused.Touch.Pointers[0].PointerID)
}

func TestInputBindingFailsOnUnsupportedScanCode(t *testing.T) {
	host := newFakeHost()
	source := &ports.NullInputSource{ScanCodes: []uint32{1}, Width: 1000, Height: 500}
	in := NewInput(host, source, map[uint32]wire.ButtonCode{1: wire.ButtonHome})

	in.Open()
	host.deliver(wire.ChannelInput, uint16(wire.InputChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelInput, uint16(wire.InputBindingRequestID), wire.BindingRequest{
		ScreenWidth: 800, ScreenHeight: 480, ScanCodes: []uint32{1, 2},
	})

	last := host.lastSent()
	require.Equal(t, uint16(wire.InputBindingResponseID), last.ID)
	require.Equal(t, wire.StatusFail, last.Body.(wire.BindingResponse).Status)
}

func TestInputButtonMapping(t *testing.T) {
	host := newFakeHost()
	source := &ports.NullInputSource{ScanCodes: []uint32{7}}
	in := NewInput(host, source, map[uint32]wire.ButtonCode{7: wire.ButtonCall})

	in.OnButton(1, 7, true)
	sent := host.lastSent().Body.(wire.InputEventIndication)
	require.Equal(t, wire.ButtonCall, *sent.Button)
	require.True(t, *sent.Pressed)

	// Unmapped scan codes are dropped, not forwarded.
	countBefore := host.sentCount()
	in.OnButton(2, 999, true)
	require.Equal(t, countBefore, host.sentCount())
}
