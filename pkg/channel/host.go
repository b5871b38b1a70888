// Package channel implements the per-service channel state machines that
// sit above pkg/messenger: control, video, the three audio-output
// channels, audio input, input, sensor, in-session Bluetooth pairing,
// media status, and navigation (§4.4-§4.11).
package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/messenger"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// Host is the slice of the session a service channel needs. It is
// satisfied by *pkg/session.Session, keeping this package free of an
// import cycle back to it.
//
// Every service channel's traffic is encrypted (only the control channel
// ever sends in the clear, via ControlHost below), so Send has no
// encrypted parameter: the session always encrypts on a service channel's
// behalf.
type Host interface {
	// Send encodes body under messageID and queues it for delivery on
	// ch. then, if non-nil, runs once the write completes or fails —
	// channels that must order two sends (a setup response followed by
	// an unsolicited focus indication, say) chain the second send
	// inside then rather than issuing it immediately (§4.8).
	Send(ch wire.ChannelID, messageID uint16, body any, then func(error))

	// Register installs handler as ch's next inbound message's one-shot
	// receiver. A second registration before the first fires surfaces
	// messenger's ProtocolViolation unchanged.
	Register(ch wire.ChannelID, handler messenger.ReceiveHandler) error

	Logger() log.Logger
}

// ControlHost is the narrower interface the control channel uses: its
// traffic is never encrypted, even after AuthComplete (§3 "Encryption
// gate"), so it has no business going through Host.
type ControlHost interface {
	SendControl(messageID uint16, body any, then func(error))
	RegisterControl(handler messenger.ReceiveHandler) error
	Logger() log.Logger
}
