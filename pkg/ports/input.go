package ports

// TouchAction mirrors the host input device's raw multi-touch lifecycle,
// richer than wire.TouchAction because it distinguishes the primary
// pointer from secondary ones — pkg/channel/input.go collapses this into
// wire's simplified action plus a compacted pointer ID (§4.7).
type TouchAction uint8

const (
	TouchPress TouchAction = iota
	TouchRelease
	TouchDrag
	TouchPointerDown
	TouchPointerUp
)

// TouchPoint is one finger's raw location, keyed by the host device's
// own pointer ID — which may be large and sparse, unlike the compacted
// ID the input channel assigns before putting it on the wire.
type TouchPoint struct {
	HostPointerID uint32
	X, Y          int
}

// InputListener receives raw events from an InputSource. The input
// channel is the sole listener for the lifetime of its session.
type InputListener interface {
	OnButton(timestampUs int64, scanCode uint32, pressed bool)
	OnWheel(timestampUs int64, scanCode uint32, delta int32)
	OnTouch(timestampUs int64, action TouchAction, points []TouchPoint)
}

// InputSource emits touch and button events from the head unit's
// physical or virtual controls. It stands in for the platform's input
// device driver.
type InputSource interface {
	// SupportedScanCodes lists the button scan codes this device can
	// report, used to answer BindingRequest.
	SupportedScanCodes() []uint32

	// ScreenSize reports the touchscreen's native resolution, if any.
	ScreenSize() (width, height int, ok bool)

	// Attach registers the input channel as the source's sole listener.
	Attach(listener InputListener) error
}
