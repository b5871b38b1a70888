package wire

// Message bodies are CBOR maps keyed by field name; the cbor tag pins the
// wire key independently of the Go field name so renaming a field in code
// never changes the wire contract.

// VersionRequest is the first message sent by the head unit on the
// control channel, before any cryptor handshake (§4.4).
type VersionRequest struct {
	MajorVersion uint16 `cbor:"major_version"`
	MinorVersion uint16 `cbor:"minor_version"`
}

// VersionResponse is the phone's reply to VersionRequest.
type VersionResponse struct {
	MajorVersion uint16                `cbor:"major_version"`
	MinorVersion uint16                `cbor:"minor_version"`
	Status       VersionResponseStatus `cbor:"status"`
}

// Handshake carries one leg of the cryptor's TLS handshake, chunked
// across one or more control-channel messages (§4.5).
type Handshake struct {
	Payload []byte `cbor:"payload"`
}

// AuthComplete is sent once the cryptor handshake succeeds.
type AuthComplete struct {
	Status Status `cbor:"status"`
}

// ServiceDiscoveryRequest asks the head unit to describe its channels.
type ServiceDiscoveryRequest struct {
	DeviceName  string `cbor:"device_name"`
	DeviceBrand string `cbor:"device_brand"`
}

// ChannelDescriptor describes one channel the head unit offers, along
// with the channel-type-specific feature payload. Exactly one of the
// feature fields is populated, matching ChannelType.
type ChannelDescriptor struct {
	ChannelID   ChannelID   `cbor:"channel_id"`
	ChannelType ChannelType `cbor:"channel_type"`

	InputFeature       *InputFeature       `cbor:"input_feature,omitempty"`
	SensorFeature      *SensorFeature      `cbor:"sensor_feature,omitempty"`
	VideoFeature       *VideoFeature       `cbor:"video_feature,omitempty"`
	AudioFeature       *AudioFeature       `cbor:"audio_feature,omitempty"`
	BluetoothFeature   *BluetoothFeature   `cbor:"bluetooth_feature,omitempty"`
	MediaStatusFeature *MediaStatusFeature `cbor:"media_status_feature,omitempty"`
	NavigationFeature  *NavigationFeature  `cbor:"navigation_feature,omitempty"`
}

// InputFeature advertises the input channel's supported event kinds and,
// for touch, the reporting touchscreen's resolution (§4.7).
type InputFeature struct {
	SupportsButtons bool   `cbor:"supports_buttons"`
	SupportsWheel   bool   `cbor:"supports_wheel"`
	SupportsTouch   bool   `cbor:"supports_touch"`
	TouchWidth      uint16 `cbor:"touch_width"`
	TouchHeight     uint16 `cbor:"touch_height"`
}

// SensorFeature advertises which sensor types the head unit can report.
type SensorFeature struct {
	SupportedSensors []SensorType `cbor:"supported_sensors"`
}

// SensorType enumerates reportable sensor kinds.
type SensorType uint8

const (
	SensorTypeDrivingStatus SensorType = iota
	SensorTypeNightMode
	SensorTypeLocation
)

// VideoFeature advertises the video channel's resolution and codec
// configuration.
type VideoFeature struct {
	Width       uint16 `cbor:"width"`
	Height      uint16 `cbor:"height"`
	DPI         uint16 `cbor:"dpi"`
	FPS         uint8  `cbor:"fps"`
	Codec       string `cbor:"codec"`
	MaxBitrate  uint32 `cbor:"max_bitrate"`
}

// AudioFeature advertises an audio channel's sample format.
type AudioFeature struct {
	SampleRate    uint32 `cbor:"sample_rate"`
	BitDepth      uint8  `cbor:"bit_depth"`
	ChannelCount  uint8  `cbor:"channel_count"`
}

// BluetoothFeature advertises the head unit's Bluetooth adapter address,
// used by the phone to pair after wireless bootstrap (§5).
type BluetoothFeature struct {
	AdapterAddress   string   `cbor:"adapter_address"`
	SupportedProfiles []string `cbor:"supported_profiles"`
}

// MediaStatusFeature carries no negotiable parameters today; its
// presence in a ChannelDescriptor is itself the capability signal.
type MediaStatusFeature struct{}

// NavigationImageOptions advertises the turn-icon image format the head
// unit accepts (§4.10).
type NavigationImageOptions struct {
	Depth  uint8  `cbor:"depth"`
	Width  uint16 `cbor:"width"`
	Height uint16 `cbor:"height"`
}

// NavigationFeature advertises the navigation channel's minimum turn
// and distance update intervals, plus the turn-icon image format it
// accepts.
type NavigationFeature struct {
	MinimumIntervalMillis uint32                 `cbor:"minimum_interval_millis"`
	ImageOptions          NavigationImageOptions `cbor:"image_options"`
}

// DefaultNavigationImageOptions is the turn-icon format advertised by
// this head unit (§4.10).
var DefaultNavigationImageOptions = NavigationImageOptions{Depth: 16, Width: 256, Height: 256}

// ServiceDiscoveryResponse enumerates every channel the head unit
// offers, plus head-unit identity metadata shown in the phone's UI. The
// fields past LeftHandDrive are supplemented from the original
// implementation's onServiceDiscoveryRequest, which the distilled spec
// omitted (see SPEC_FULL.md, "Supplemented features").
type ServiceDiscoveryResponse struct {
	HeadUnitName                string              `cbor:"head_unit_name"`
	CarModel                    string              `cbor:"car_model"`
	CarYear                     string              `cbor:"car_year"`
	CarSerial                   string              `cbor:"car_serial"`
	LeftHandDrive               bool                `cbor:"left_hand_drive"`
	SoftwareBuild               string              `cbor:"sw_build"`
	SoftwareVersion             string              `cbor:"sw_version"`
	CanPlayNativeMediaDuringVR  bool                `cbor:"can_play_native_media_during_vr"`
	Channels                    []ChannelDescriptor `cbor:"channels"`
}

// AudioFocusRequest asks the head unit to grant or release audio focus
// for a given source.
type AudioFocusRequest struct {
	ChannelID ChannelID      `cbor:"channel_id"`
	Type      AudioFocusType `cbor:"type"`
}

// AudioFocusResponse is the head unit's reply, carrying the resulting
// audio focus state.
type AudioFocusResponse struct {
	State AudioFocusState `cbor:"state"`
}

// NavigationFocusRequest asks for or releases navigation focus.
type NavigationFocusRequest struct {
	Type AudioFocusType `cbor:"type"`
}

// NavigationFocusResponse is the head unit's reply.
type NavigationFocusResponse struct {
	State AudioFocusState `cbor:"state"`
}

// VoiceSessionRequest toggles the voice assistant session, driven by a
// head-unit button press (§4.4, "Supplemented features").
type VoiceSessionRequest struct {
	Active bool `cbor:"active"`
}

// PingRequest is sent periodically by the head unit to detect a wedged
// or vanished phone side (§7).
type PingRequest struct {
	Timestamp int64 `cbor:"timestamp"`
}

// PingResponse echoes the request's timestamp.
type PingResponse struct {
	Timestamp int64 `cbor:"timestamp"`
}

// ShutdownRequest announces an orderly session teardown.
type ShutdownRequest struct {
	Reason string `cbor:"reason"`
}

// ShutdownResponse acknowledges a ShutdownRequest.
type ShutdownResponse struct{}

// ChannelOpenRequest asks to activate a previously discovered channel.
type ChannelOpenRequest struct {
	Priority uint8 `cbor:"priority"`
}

// ChannelOpenResponse replies to a ChannelOpenRequest.
type ChannelOpenResponse struct {
	Status Status `cbor:"status"`
}

// AVChannelSetupRequest negotiates the concrete AV stream configuration
// (a single index into the corresponding feature's advertised configs).
type AVChannelSetupRequest struct {
	ConfigIndex uint8 `cbor:"config_index"`
}

// AVChannelSetupResponse is the head unit's reply, plus a hint on how
// much to buffer before the stream is considered ready.
type AVChannelSetupResponse struct {
	Status           Status `cbor:"status"`
	ConfigIndex      uint8  `cbor:"config_index"`
	MaxUnackedFrames uint8  `cbor:"max_unacked_frames"`
}

// AVChannelStartIndication announces that the phone has begun (or
// stopped, via AVChannelStopIndication) streaming on an AV channel.
type AVChannelStartIndication struct {
	SessionID int32 `cbor:"session_id"`
}

// AVChannelStopIndication announces the phone has stopped streaming.
type AVChannelStopIndication struct{}

// AVMediaWithTimestampIndication carries one media payload annotated
// with a presentation timestamp, used by video and music audio.
type AVMediaWithTimestampIndication struct {
	Timestamp int64  `cbor:"timestamp"`
	Data      []byte `cbor:"data"`
}

// AVMediaIndication carries one media payload with no timestamp, used
// by speech and system audio.
type AVMediaIndication struct {
	Data []byte `cbor:"data"`
}

// AVMediaAckIndication acknowledges receipt of buffered media, letting
// the phone pace its sends against MaxUnackedFrames.
type AVMediaAckIndication struct {
	SessionID int32 `cbor:"session_id"`
}

// VideoFocusRequest asks the head unit whether the video surface may be
// shown.
type VideoFocusRequest struct {
	Mode VideoFocusMode `cbor:"mode"`
}

// VideoFocusIndication announces a change in video focus, which may be
// unsolicited (e.g. the head unit's own UI takes the foreground).
type VideoFocusIndication struct {
	Mode       VideoFocusMode `cbor:"mode"`
	Unsolicited bool          `cbor:"unsolicited"`
}

// BindingRequest associates the input channel's virtual display with a
// screen size, needed to interpret absolute touch coordinates, and lists
// the scan codes the phone wants to bind — the head unit must FAIL if
// any of them is outside the device's supported set (§4.7, §7).
type BindingRequest struct {
	ScreenWidth  uint16   `cbor:"screen_width"`
	ScreenHeight uint16   `cbor:"screen_height"`
	ScanCodes    []uint32 `cbor:"scan_codes"`
}

// BindingResponse acknowledges a BindingRequest.
type BindingResponse struct {
	Status Status `cbor:"status"`
}

// ButtonCode enumerates the physical/virtual buttons the head unit may
// report on the input channel.
type ButtonCode uint8

const (
	ButtonHome ButtonCode = iota
	ButtonBack
	ButtonCall
	ButtonEndCall
	ButtonPlay
	ButtonPause
	ButtonNext
	ButtonPrevious
	ButtonMicrophone
)

// TouchAction enumerates the phases of a touch pointer's lifecycle.
type TouchAction uint8

const (
	TouchActionDown TouchAction = iota
	TouchActionMove
	TouchActionUp
)

// TouchPointer is one pointer's location within a TouchEvent, keyed by
// a small, session-local pointer ID assigned by the compaction scheme
// (§4.7, §8 invariant 5), not the host touch device's own pointer ID.
type TouchPointer struct {
	PointerID uint8  `cbor:"pointer_id"`
	X         uint16 `cbor:"x"`
	Y         uint16 `cbor:"y"`
}

// TouchEvent reports one multi-touch update, already rescaled from
// touchscreen coordinates into the video surface's coordinate space.
type TouchEvent struct {
	Action   TouchAction    `cbor:"action"`
	Pointers []TouchPointer `cbor:"pointers"`
}

// WheelDirection is the direction a rotary input control moved.
type WheelDirection uint8

const (
	WheelClockwise WheelDirection = iota
	WheelCounterClockwise
)

// InputEventIndication reports one input event. Exactly one of Button,
// Wheel, or Touch is populated.
type InputEventIndication struct {
	Timestamp int64           `cbor:"timestamp"`
	Button    *ButtonCode     `cbor:"button,omitempty"`
	Pressed   *bool           `cbor:"pressed,omitempty"`
	Wheel     *WheelDirection `cbor:"wheel,omitempty"`
	Touch     *TouchEvent     `cbor:"touch,omitempty"`
}

// SensorStartRequest subscribes to updates for one sensor type.
type SensorStartRequest struct {
	Type SensorType `cbor:"type"`
}

// SensorStartResponse acknowledges a SensorStartRequest.
type SensorStartResponse struct {
	Status Status `cbor:"status"`
}

// DrivingStatus is the coarse gear-shift/motion state reported by the
// driving-status sensor.
type DrivingStatus uint8

const (
	DrivingStatusUnrestricted DrivingStatus = iota
	DrivingStatusNoVideo
	DrivingStatusNoKeyboardInput
	DrivingStatusFullyRestricted
)

// SensorEventIndication reports one sensor update. Exactly one of the
// typed payload fields is populated, matching the subscribed SensorType.
type SensorEventIndication struct {
	DrivingStatus *DrivingStatus `cbor:"driving_status,omitempty"`
	NightMode     *bool          `cbor:"night_mode,omitempty"`
	Location      *LocationEvent `cbor:"location,omitempty"`
}

// LocationEvent is one GNSS fix reported by the location sensor.
type LocationEvent struct {
	Timestamp int64   `cbor:"timestamp"`
	Latitude  float64 `cbor:"latitude"`
	Longitude float64 `cbor:"longitude"`
	Accuracy  float32 `cbor:"accuracy"`
	Speed     float32 `cbor:"speed"`
	Bearing   float32 `cbor:"bearing"`
}

// BluetoothPairingRequest asks the head unit to begin in-session
// Bluetooth pairing with the phone's adapter address, distinct from the
// wireless bootstrap handled by btbootstrap (§5, §4.9).
type BluetoothPairingRequest struct {
	PhoneAddress string `cbor:"phone_address"`
}

// BluetoothPairingResponse reports the outcome of a pairing attempt.
type BluetoothPairingResponse struct {
	Status      Status `cbor:"status"`
	AlreadyPaired bool  `cbor:"already_paired"`
}

// PlaybackState enumerates coarse playback states for media-status
// reporting.
type PlaybackState uint8

const (
	PlaybackStateStopped PlaybackState = iota
	PlaybackStatePlaying
	PlaybackStatePaused
)

// MediaPlaybackIndication reports a change in playback state.
type MediaPlaybackIndication struct {
	State PlaybackState `cbor:"state"`
}

// MediaMetadataIndication reports now-playing metadata, sent whenever
// the track changes.
type MediaMetadataIndication struct {
	Title       string `cbor:"title"`
	Artist      string `cbor:"artist"`
	Album       string `cbor:"album"`
	DurationMillis int64 `cbor:"duration_millis"`
}

// ManeuverType enumerates the kinds of upcoming turn a navigation turn
// event may describe.
type ManeuverType uint8

const (
	ManeuverStraight ManeuverType = iota
	ManeuverTurnLeft
	ManeuverTurnRight
	ManeuverUTurn
	ManeuverMergeLeft
	ManeuverMergeRight
	ManeuverArrive
)

// NavigationStatusIndication reports whether turn-by-turn guidance is
// currently active.
type NavigationStatusIndication struct {
	Active bool `cbor:"active"`
}

// NavigationTurnIndication describes the next maneuver.
type NavigationTurnIndication struct {
	Maneuver  ManeuverType `cbor:"maneuver"`
	RoadName  string       `cbor:"road_name"`
	ImageURI  string       `cbor:"image_uri,omitempty"`
}

// NavigationDistanceIndication reports the remaining distance and time
// to the next maneuver, sent at the navigation feature's advertised
// minimum interval.
type NavigationDistanceIndication struct {
	MetersRemaining  uint32 `cbor:"meters_remaining"`
	SecondsRemaining uint32 `cbor:"seconds_remaining"`
}
