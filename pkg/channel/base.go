package channel

import (
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/messenger"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// base is embedded by every service channel; it carries the handful of
// things every one of them needs and factors out the open-request
// handshake every channel answers identically (§4.4 "ChannelOpenRequest").
type base struct {
	host Host
	id   wire.ChannelID
	name string // logging tag, e.g. "video", "input"
}

func (b *base) send(messageID uint16, body any, then func(error)) {
	b.host.Send(b.id, messageID, body, then)
}

func (b *base) register(handler messenger.ReceiveHandler) {
	if err := b.host.Register(b.id, handler); err != nil {
		b.logError("register", err)
	}
}

func (b *base) logError(kind string, err error) {
	b.host.Logger().Log(log.Event{
		ChannelID: uint8(b.id),
		Layer:     log.LayerChannel,
		Category:  log.CategoryError,
		Error:     &log.ErrorEvent{Kind: kind, Message: err.Error()},
	})
}

func (b *base) logState(old, new, reason string) {
	b.host.Logger().Log(log.Event{
		ChannelID: uint8(b.id),
		Layer:     log.LayerChannel,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity: b.name, OldState: old, NewState: new, Reason: reason,
		},
	})
}

// openResponder replies OK to a ChannelOpenRequest and, once the reply is
// written, re-arms next as the channel's following receive handler. Every
// channel answers ChannelOpenRequest the same way; what differs is the
// message ID of the response and what comes after.
func (b *base) openResponder(responseID uint16, next messenger.ReceiveHandler) messenger.ReceiveHandler {
	return func(messageID uint16, payload []byte) {
		var req wire.ChannelOpenRequest
		if err := wire.Unmarshal(payload, &req); err != nil {
			b.logError("malformed_open_request", err)
			return
		}
		b.send(responseID, wire.ChannelOpenResponse{Status: wire.StatusOK}, func(err error) {
			if err != nil {
				b.logError("send_open_response", err)
				return
			}
			if next != nil {
				b.register(next)
			}
		})
	}
}
