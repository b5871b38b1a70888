package channel

import (
	"sort"
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// pointerAllocator assigns each host touch device's (potentially large,
// sparse) pointer ID the smallest unused small integer, and frees it back
// to the pool the moment the pointer lifts (§4.7, §8 invariant 5). The
// original implementation does this with a min-heap seeded with an
// INT_MAX sentinel and a lazily-grown high-water mark; a bool set keyed
// by the small ID plus a host-ID->small-ID map gives the same
// smallest-free-id-first behavior without reproducing the heap.
type pointerAllocator struct {
	mu   sync.Mutex
	used map[uint8]bool
	ids  map[uint32]uint8
}

func newPointerAllocator() *pointerAllocator {
	return &pointerAllocator{used: make(map[uint8]bool), ids: make(map[uint32]uint8)}
}

// assign returns host's compacted ID, allocating the smallest unused one
// on first sight of that host ID.
func (p *pointerAllocator) assign(host uint32) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[host]; ok {
		return id
	}
	var id uint8
	for p.used[id] {
		id++
	}
	p.used[id] = true
	p.ids[host] = id
	return id
}

// release returns host's compacted ID to the free pool.
func (p *pointerAllocator) release(host uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[host]; ok {
		delete(p.ids, host)
		delete(p.used, id)
	}
}

// Input is the input channel (§4.7): button, rotary wheel, and
// multi-touch events from an InputSource, rescaled into the phone's
// virtual display and relayed as InputEventIndication messages.
type Input struct {
	base

	source    ports.InputSource
	buttonMap map[uint32]wire.ButtonCode

	pointers *pointerAllocator

	mu          sync.Mutex
	boundWidth  uint16
	boundHeight uint16
	deviceWidth int
	deviceHeight int
	hasDevice   bool
	active      map[uint32]wire.TouchPointer
}

// NewInput creates the input channel over source, reporting buttons
// through buttonMap (host scan code -> wire button code; codes absent
// from the map are logged and ignored).
func NewInput(host Host, source ports.InputSource, buttonMap map[uint32]wire.ButtonCode) *Input {
	if buttonMap == nil {
		buttonMap = map[uint32]wire.ButtonCode{}
	}
	in := &Input{
		base:      base{host: host, id: wire.ChannelInput, name: "input"},
		source:    source,
		buttonMap: buttonMap,
		pointers:  newPointerAllocator(),
		active:    make(map[uint32]wire.TouchPointer),
	}
	if w, h, ok := source.ScreenSize(); ok {
		in.deviceWidth, in.deviceHeight, in.hasDevice = w, h, true
	}
	return in
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (in *Input) Descriptor() wire.ChannelDescriptor {
	_, _, touch := in.source.ScreenSize()
	return wire.ChannelDescriptor{
		ChannelID:   wire.ChannelInput,
		ChannelType: wire.ChannelTypeInput,
		InputFeature: &wire.InputFeature{
			SupportsButtons: len(in.source.SupportedScanCodes()) > 0,
			SupportsWheel:   true,
			SupportsTouch:   touch,
		},
	}
}

// Open begins waiting for the phone to open this channel. The
// InputSource is attached as a listener only once binding succeeds.
func (in *Input) Open() {
	in.logState("closed", "awaiting_open", "")
	in.register(in.openResponder(uint16(wire.InputChannelOpenResponseID), in.onBindingRequest))
}

func (in *Input) onBindingRequest(_ uint16, payload []byte) {
	var req wire.BindingRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		in.logError("malformed_binding_request", err)
		return
	}

	if !in.scanCodesSupported(req.ScanCodes) {
		in.send(uint16(wire.InputBindingResponseID), wire.BindingResponse{Status: wire.StatusFail}, nil)
		return
	}

	in.mu.Lock()
	in.boundWidth, in.boundHeight = req.ScreenWidth, req.ScreenHeight
	in.mu.Unlock()

	if err := in.source.Attach(in); err != nil {
		in.logError("source_attach", err)
		in.send(uint16(wire.InputBindingResponseID), wire.BindingResponse{Status: wire.StatusFail}, nil)
		return
	}

	in.logState("awaiting_open", "bound", "")
	in.send(uint16(wire.InputBindingResponseID), wire.BindingResponse{Status: wire.StatusOK}, nil)
}

// scanCodesSupported reports whether every code in codes is in the
// device's supported set (§4.7, §7: FAIL on the first unsupported code).
func (in *Input) scanCodesSupported(codes []uint32) bool {
	supported := make(map[uint32]bool, len(in.source.SupportedScanCodes()))
	for _, c := range in.source.SupportedScanCodes() {
		supported[c] = true
	}
	for _, c := range codes {
		if !supported[c] {
			return false
		}
	}
	return true
}

// OnButton implements ports.InputListener.
func (in *Input) OnButton(timestampUs int64, scanCode uint32, pressed bool) {
	code, ok := in.buttonMap[scanCode]
	if !ok {
		in.logError("unmapped_button", errs.New(errs.Unsupported, ""))
		return
	}
	in.send(uint16(wire.InputEventIndicationID), wire.InputEventIndication{
		Timestamp: timestampUs, Button: &code, Pressed: &pressed,
	}, nil)
}

// OnWheel implements ports.InputListener.
func (in *Input) OnWheel(timestampUs int64, _ uint32, delta int32) {
	dir := wire.WheelClockwise
	if delta < 0 {
		dir = wire.WheelCounterClockwise
	}
	in.send(uint16(wire.InputEventIndicationID), wire.InputEventIndication{
		Timestamp: timestampUs, Wheel: &dir,
	}, nil)
}

// OnTouch implements ports.InputListener, compacting pointer IDs and
// rescaling coordinates from the touchscreen's native resolution into
// the phone's bound virtual display (§4.7: x = tx*VW/TW, y = ty*VH/TH).
func (in *Input) OnTouch(timestampUs int64, action ports.TouchAction, points []ports.TouchPoint) {
	var wireAction wire.TouchAction
	releasing := false
	switch action {
	case ports.TouchPress, ports.TouchPointerDown:
		wireAction = wire.TouchActionDown
	case ports.TouchDrag:
		wireAction = wire.TouchActionMove
	case ports.TouchRelease, ports.TouchPointerUp:
		wireAction = wire.TouchActionUp
		releasing = true
	}

	in.mu.Lock()
	for _, p := range points {
		id := in.pointers.assign(p.HostPointerID)
		in.active[p.HostPointerID] = wire.TouchPointer{
			PointerID: id,
			X:         in.rescaleX(p.X),
			Y:         in.rescaleY(p.Y),
		}
	}
	out := make([]wire.TouchPointer, 0, len(in.active))
	for _, tp := range in.active {
		out = append(out, tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointerID < out[j].PointerID })
	if releasing {
		for _, p := range points {
			in.pointers.release(p.HostPointerID)
			delete(in.active, p.HostPointerID)
		}
	}
	in.mu.Unlock()

	ev := wire.TouchEvent{Action: wireAction, Pointers: out}
	in.send(uint16(wire.InputEventIndicationID), wire.InputEventIndication{
		Timestamp: timestampUs, Touch: &ev,
	}, nil)
}

func (in *Input) rescaleX(x int) uint16 {
	if !in.hasDevice || in.deviceWidth == 0 || in.boundWidth == 0 {
		return uint16(x)
	}
	return uint16(x * int(in.boundWidth) / in.deviceWidth)
}

func (in *Input) rescaleY(y int) uint16 {
	if !in.hasDevice || in.deviceHeight == 0 || in.boundHeight == 0 {
		return uint16(y)
	}
	return uint16(y * int(in.boundHeight) / in.deviceHeight)
}

// SendButtonPress synthesizes a press+release pair for code, for
// head-unit-UI-triggered soft buttons (original's
// InputService::sendButtonPress; supplemented feature, see DESIGN.md).
func (in *Input) SendButtonPress(timestampUs int64, code wire.ButtonCode) {
	pressed, released := true, false
	in.send(uint16(wire.InputEventIndicationID), wire.InputEventIndication{
		Timestamp: timestampUs, Button: &code, Pressed: &pressed,
	}, func(err error) {
		if err != nil {
			in.logError("send_button_press", err)
			return
		}
		in.send(uint16(wire.InputEventIndicationID), wire.InputEventIndication{
			Timestamp: timestampUs, Button: &code, Pressed: &released,
		}, nil)
	})
}
