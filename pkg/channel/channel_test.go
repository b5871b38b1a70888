package channel

import (
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/messenger"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// fakeHost is a synchronous, in-memory stand-in for a session, shared by
// every _test.go file in this package. Send invokes its completion
// callback immediately (there is no real transport), and deliver
// simulates messenger popping and firing the one-shot handler currently
// registered for a channel.
type fakeHost struct {
	mu       sync.Mutex
	handlers map[wire.ChannelID]messenger.ReceiveHandler
	sent     []sentMessage
}

type sentMessage struct {
	Channel wire.ChannelID
	ID      uint16
	Body    any
}

func newFakeHost() *fakeHost {
	return &fakeHost{handlers: make(map[wire.ChannelID]messenger.ReceiveHandler)}
}

func (f *fakeHost) Send(ch wire.ChannelID, id uint16, body any, then func(error)) {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{ch, id, body})
	f.mu.Unlock()
	if then != nil {
		then(nil)
	}
}

func (f *fakeHost) Register(ch wire.ChannelID, h messenger.ReceiveHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.handlers[ch]; exists {
		return errs.New(errs.ProtocolViolation, "fakehost")
	}
	f.handlers[ch] = h
	return nil
}

func (f *fakeHost) Logger() log.Logger { return log.NoopLogger{} }

func (f *fakeHost) SendControl(id uint16, body any, then func(error)) {
	f.Send(wire.ChannelControl, id, body, then)
}

func (f *fakeHost) RegisterControl(h messenger.ReceiveHandler) error {
	return f.Register(wire.ChannelControl, h)
}

// deliver simulates the phone sending messageID/body on ch: it pops
// whatever handler is currently armed (panicking, like a real protocol
// violation would surface elsewhere, if none is armed) and invokes it.
func (f *fakeHost) deliver(ch wire.ChannelID, messageID uint16, body any) {
	f.mu.Lock()
	h, ok := f.handlers[ch]
	if ok {
		delete(f.handlers, ch)
	}
	f.mu.Unlock()
	if !ok {
		panic("fakehost: no handler armed for channel")
	}
	payload, err := wire.Marshal(body)
	if err != nil {
		panic(err)
	}
	h(messageID, payload)
}

// lastSent returns the most recently sent message, or zero value if none.
func (f *fakeHost) lastSent() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeHost) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
