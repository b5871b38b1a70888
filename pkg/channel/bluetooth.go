package channel

import "github.com/aa-headunit/headunit-go/pkg/wire"

// Pairer attempts in-session Bluetooth pairing with a phone address
// already known from the wireless bootstrap or discovered independently.
// It stands in for the host Bluetooth adapter's pairing API, distinct
// from pkg/btbootstrap's RFCOMM wireless-setup handshake (§4.9, §5).
type Pairer interface {
	Pair(phoneAddress string) (alreadyPaired bool, err error)
}

// Bluetooth is the in-session Bluetooth channel (§4.9): the phone asks
// the head unit to pair with its adapter address once projection is
// already active, used when the session started over USB and Bluetooth
// was never bootstrapped.
type Bluetooth struct {
	base

	pairer            Pairer
	adapterAddress    string
	supportedProfiles []string
}

// NewBluetooth creates the in-session Bluetooth channel.
func NewBluetooth(host Host, pairer Pairer, adapterAddress string, supportedProfiles []string) *Bluetooth {
	return &Bluetooth{
		base:              base{host: host, id: wire.ChannelBluetooth, name: "bluetooth"},
		pairer:            pairer,
		adapterAddress:    adapterAddress,
		supportedProfiles: supportedProfiles,
	}
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (b *Bluetooth) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:   wire.ChannelBluetooth,
		ChannelType: wire.ChannelTypeBluetooth,
		BluetoothFeature: &wire.BluetoothFeature{
			AdapterAddress: b.adapterAddress, SupportedProfiles: b.supportedProfiles,
		},
	}
}

// Open begins waiting for the phone to open this channel.
func (b *Bluetooth) Open() {
	b.logState("closed", "awaiting_open", "")
	b.register(b.openResponder(uint16(wire.BluetoothChannelOpenResponseID), b.onPairingRequest))
}

func (b *Bluetooth) onPairingRequest(_ uint16, payload []byte) {
	var req wire.BluetoothPairingRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		b.logError("malformed_pairing_request", err)
		b.register(b.onPairingRequest)
		return
	}

	resp := wire.BluetoothPairingResponse{Status: wire.StatusFail}
	if b.pairer != nil {
		already, err := b.pairer.Pair(req.PhoneAddress)
		if err != nil {
			b.logError("pair", err)
		} else {
			resp = wire.BluetoothPairingResponse{Status: wire.StatusOK, AlreadyPaired: already}
		}
	}

	// A session may pair more than one phone address over its lifetime
	// (rare, but nothing forbids it); re-arm for another request.
	b.register(b.onPairingRequest)
	b.send(uint16(wire.BluetoothPairingResponseID), resp, nil)
}
