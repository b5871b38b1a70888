package btbootstrap

// MessageType identifies a Bluetooth bootstrap message on the RFCOMM
// wire (§3 "Bluetooth bootstrap state machine", §4.13). The request/
// response variant (§9 Design Notes) is implemented; the busy-spin and
// signals-only variants elsewhere in the original are not.
type MessageType uint16

const (
	SocketInfoRequestType       MessageType = 1
	SocketInfoResponseAckType   MessageType = 2
	NetworkInfoType             MessageType = 3
	NetworkAckType              MessageType = 6
	SocketInfoResponseType      MessageType = 7
)

func (t MessageType) String() string {
	switch t {
	case SocketInfoRequestType:
		return "SocketInfoRequest"
	case SocketInfoResponseAckType:
		return "SocketInfoResponseAck"
	case NetworkInfoType:
		return "NetworkInfo"
	case NetworkAckType:
		return "NetworkAck"
	case SocketInfoResponseType:
		return "SocketInfoResponse"
	default:
		return "Unknown"
	}
}

// SecurityMode is the Wi-Fi security mode advertised in NetworkInfo.
type SecurityMode uint8

const (
	SecurityWPA2Personal SecurityMode = iota
)

// AccessPointType is the Wi-Fi AP provisioning mode advertised in
// NetworkInfo.
type AccessPointType uint8

const (
	AccessPointStatic AccessPointType = iota
)

// Status mirrors wire.Status for the RFCOMM channel's own ack messages,
// kept distinct since this package does not otherwise depend on pkg/wire
// beyond its CBOR codec.
type Status uint8

const (
	StatusOK Status = iota
	StatusFail
)

// SocketInfoRequest tells the phone where to dial back for projection
// (§4.13): the head unit's IP address and the fixed wireless port.
type SocketInfoRequest struct {
	IPAddress string
	Port      uint16
}

// SocketInfoResponseAck is the phone's empty-body acknowledgment of
// SocketInfoRequest (type 2, §3).
type SocketInfoResponseAck struct{}

// SocketInfoResponse is the server-originated variant of socket info
// (type 7, §3), sent only if the phone addresses a SocketInfoRequest
// (type 1) to the server first; unused in the server-initiated flow
// this package drives (§4.13, S6). The type is defined because §3 lists
// it as part of the message set; the server never decodes it.
type SocketInfoResponse struct {
	IPAddress string
	Port      uint16
	Status    Status
}

// NetworkInfo hands the phone the Wi-Fi credentials to join for
// wireless projection (§4.13).
type NetworkInfo struct {
	SSID         string
	PSK          string
	MACAddress   string
	Security     SecurityMode
	AccessPoint  AccessPointType
}

// NetworkAck is the phone's reply to NetworkInfo (type 6, §3).
type NetworkAck struct {
	Status Status
}
