package wire

// Each service channel owns its own message-ID namespace (§3 "Message").
// Constants carry an ID suffix so they never collide with the Go type
// name of the message body they identify.

// ControlMessageID enumerates messages on the control channel (channel 0).
type ControlMessageID uint16

const (
	ControlVersionRequestID ControlMessageID = iota + 1
	ControlVersionResponseID
	ControlHandshakeID
	ControlAuthCompleteID
	ControlServiceDiscoveryRequestID
	ControlServiceDiscoveryResponseID
	ControlAudioFocusRequestID
	ControlAudioFocusResponseID
	ControlNavigationFocusRequestID
	ControlNavigationFocusResponseID
	ControlVoiceSessionRequestID
	ControlPingRequestID
	ControlPingResponseID
	ControlShutdownRequestID
	ControlShutdownResponseID
)

func (m ControlMessageID) String() string {
	switch m {
	case ControlVersionRequestID:
		return "VersionRequest"
	case ControlVersionResponseID:
		return "VersionResponse"
	case ControlHandshakeID:
		return "Handshake"
	case ControlAuthCompleteID:
		return "AuthComplete"
	case ControlServiceDiscoveryRequestID:
		return "ServiceDiscoveryRequest"
	case ControlServiceDiscoveryResponseID:
		return "ServiceDiscoveryResponse"
	case ControlAudioFocusRequestID:
		return "AudioFocusRequest"
	case ControlAudioFocusResponseID:
		return "AudioFocusResponse"
	case ControlNavigationFocusRequestID:
		return "NavigationFocusRequest"
	case ControlNavigationFocusResponseID:
		return "NavigationFocusResponse"
	case ControlVoiceSessionRequestID:
		return "VoiceSessionRequest"
	case ControlPingRequestID:
		return "PingRequest"
	case ControlPingResponseID:
		return "PingResponse"
	case ControlShutdownRequestID:
		return "ShutdownRequest"
	case ControlShutdownResponseID:
		return "ShutdownResponse"
	default:
		return "Unknown"
	}
}

// AVMessageID enumerates messages shared by every audio/video ("AV")
// channel: video, the three audio-output channels, and audio input.
type AVMessageID uint16

const (
	AVChannelOpenRequestID AVMessageID = iota + 1
	AVChannelOpenResponseID
	AVChannelSetupRequestID
	AVChannelSetupResponseID
	AVChannelStartIndicationID
	AVChannelStopIndicationID
	AVMediaWithTimestampIndicationID
	AVMediaIndicationID
	AVMediaAckIndicationID
	AVInputOpenRequestID
	AVInputOpenResponseID
	VideoFocusRequestID
	VideoFocusIndicationID
)

func (m AVMessageID) String() string {
	switch m {
	case AVChannelOpenRequestID:
		return "ChannelOpenRequest"
	case AVChannelOpenResponseID:
		return "ChannelOpenResponse"
	case AVChannelSetupRequestID:
		return "AVChannelSetupRequest"
	case AVChannelSetupResponseID:
		return "AVChannelSetupResponse"
	case AVChannelStartIndicationID:
		return "AVChannelStartIndication"
	case AVChannelStopIndicationID:
		return "AVChannelStopIndication"
	case AVMediaWithTimestampIndicationID:
		return "AVMediaWithTimestampIndication"
	case AVMediaIndicationID:
		return "AVMediaIndication"
	case AVMediaAckIndicationID:
		return "AVMediaAckIndication"
	case AVInputOpenRequestID:
		return "AVInputOpenRequest"
	case AVInputOpenResponseID:
		return "AVInputOpenResponse"
	case VideoFocusRequestID:
		return "VideoFocusRequest"
	case VideoFocusIndicationID:
		return "VideoFocusIndication"
	default:
		return "Unknown"
	}
}

// InputMessageID enumerates messages on the input channel.
type InputMessageID uint16

const (
	InputChannelOpenRequestID InputMessageID = iota + 1
	InputChannelOpenResponseID
	InputBindingRequestID
	InputBindingResponseID
	InputEventIndicationID
)

func (m InputMessageID) String() string {
	switch m {
	case InputChannelOpenRequestID:
		return "ChannelOpenRequest"
	case InputChannelOpenResponseID:
		return "ChannelOpenResponse"
	case InputBindingRequestID:
		return "BindingRequest"
	case InputBindingResponseID:
		return "BindingResponse"
	case InputEventIndicationID:
		return "InputEventIndication"
	default:
		return "Unknown"
	}
}

// SensorMessageID enumerates messages on the sensor channel.
type SensorMessageID uint16

const (
	SensorChannelOpenRequestID SensorMessageID = iota + 1
	SensorChannelOpenResponseID
	SensorStartRequestID
	SensorStartResponseID
	SensorEventIndicationID
)

func (m SensorMessageID) String() string {
	switch m {
	case SensorChannelOpenRequestID:
		return "ChannelOpenRequest"
	case SensorChannelOpenResponseID:
		return "ChannelOpenResponse"
	case SensorStartRequestID:
		return "SensorStartRequest"
	case SensorStartResponseID:
		return "SensorStartResponse"
	case SensorEventIndicationID:
		return "SensorEventIndication"
	default:
		return "Unknown"
	}
}

// BluetoothMessageID enumerates messages on the in-session Bluetooth channel.
type BluetoothMessageID uint16

const (
	BluetoothChannelOpenRequestID BluetoothMessageID = iota + 1
	BluetoothChannelOpenResponseID
	BluetoothPairingRequestID
	BluetoothPairingResponseID
)

func (m BluetoothMessageID) String() string {
	switch m {
	case BluetoothChannelOpenRequestID:
		return "ChannelOpenRequest"
	case BluetoothChannelOpenResponseID:
		return "ChannelOpenResponse"
	case BluetoothPairingRequestID:
		return "BluetoothPairingRequest"
	case BluetoothPairingResponseID:
		return "BluetoothPairingResponse"
	default:
		return "Unknown"
	}
}

// MediaStatusMessageID enumerates messages on the media-status channel.
type MediaStatusMessageID uint16

const (
	MediaStatusChannelOpenRequestID MediaStatusMessageID = iota + 1
	MediaStatusChannelOpenResponseID
	MediaStatusPlaybackIndicationID
	MediaStatusMetadataIndicationID
)

func (m MediaStatusMessageID) String() string {
	switch m {
	case MediaStatusChannelOpenRequestID:
		return "ChannelOpenRequest"
	case MediaStatusChannelOpenResponseID:
		return "ChannelOpenResponse"
	case MediaStatusPlaybackIndicationID:
		return "PlaybackIndication"
	case MediaStatusMetadataIndicationID:
		return "MetadataIndication"
	default:
		return "Unknown"
	}
}

// NavigationMessageID enumerates messages on the navigation channel.
type NavigationMessageID uint16

const (
	NavigationChannelOpenRequestID NavigationMessageID = iota + 1
	NavigationChannelOpenResponseID
	NavigationStatusIndicationID
	NavigationTurnIndicationID
	NavigationDistanceIndicationID
)

func (m NavigationMessageID) String() string {
	switch m {
	case NavigationChannelOpenRequestID:
		return "ChannelOpenRequest"
	case NavigationChannelOpenResponseID:
		return "ChannelOpenResponse"
	case NavigationStatusIndicationID:
		return "NavigationStatusIndication"
	case NavigationTurnIndicationID:
		return "NavigationTurnIndication"
	case NavigationDistanceIndicationID:
		return "NavigationDistanceIndication"
	default:
		return "Unknown"
	}
}
