package messenger

import (
	"fmt"
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/transport"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// ReceiveHandler is invoked once a channel's next inbound message has
// been fully reassembled (and decrypted, if applicable).
type ReceiveHandler func(messageID uint16, payload []byte)

// Cryptor encrypts/decrypts whole reassembled message envelopes. It is
// satisfied by pkg/cryptor once the session's handshake has completed.
// Until one is installed, only unencrypted messages flow: an encrypted
// Send fails with ProtocolViolation and an inbound encrypted frame is
// logged and dropped.
type Cryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type outboundItem struct {
	channel   wire.ChannelID
	envelope  []byte
	encrypted bool
	promise   func(error)
}

// Messenger demultiplexes frames from a single Transport into per-
// channel one-shot receive handlers, and serializes outbound messages
// back onto that Transport (§4.3).
type Messenger struct {
	transport   transport.Transport
	fw          *wire.FrameWriter
	fr          *wire.FrameReader
	reassembler *wire.Reassembler
	logger      log.Logger

	cryptorMu sync.RWMutex
	cryptor   Cryptor

	handlersMu sync.Mutex
	handlers   map[wire.ChannelID]ReceiveHandler

	outbound chan outboundItem
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Messenger over t. Call Start to begin pumping frames.
func New(t transport.Transport, logger log.Logger) *Messenger {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Messenger{
		transport:   t,
		fw:          wire.NewFrameWriter(t),
		fr:          wire.NewFrameReader(t),
		reassembler: wire.NewReassembler(),
		logger:      logger,
		handlers:    make(map[wire.ChannelID]ReceiveHandler),
		outbound:    make(chan outboundItem, 64),
		stopCh:      make(chan struct{}),
	}
}

// SetCryptor installs the session's cryptor once the control channel's
// handshake completes. It is safe to call concurrently with Send/the
// read loop.
func (m *Messenger) SetCryptor(c Cryptor) {
	m.cryptorMu.Lock()
	m.cryptor = c
	m.cryptorMu.Unlock()
}

func (m *Messenger) getCryptor() Cryptor {
	m.cryptorMu.RLock()
	defer m.cryptorMu.RUnlock()
	return m.cryptor
}

// Start launches the read and write pump goroutines.
func (m *Messenger) Start() {
	m.wg.Add(2)
	go m.readLoop()
	go m.writeLoop()
}

// Stop halts the transport and both pumps, and waits for them to exit.
func (m *Messenger) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.stopCh)
		err = m.transport.Stop()
	})
	m.wg.Wait()
	return err
}

// RegisterReceive registers handler as the one-shot receiver for
// channel's next inbound message. Registering a second handler before
// the first fires is a protocol violation (§4.3).
func (m *Messenger) RegisterReceive(channel wire.ChannelID, handler ReceiveHandler) error {
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	if _, exists := m.handlers[channel]; exists {
		return errs.New(errs.ProtocolViolation, fmt.Sprintf("messenger:%s", channel))
	}
	m.handlers[channel] = handler
	return nil
}

func (m *Messenger) popHandler(channel wire.ChannelID) ReceiveHandler {
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	h, ok := m.handlers[channel]
	if !ok {
		return nil
	}
	delete(m.handlers, channel)
	return h
}

// Send encodes body under messageID, optionally encrypts it, and
// appends it to the outbound queue. promise, if non-nil, is invoked
// once the message has been written (or failed to write).
func (m *Messenger) Send(channel wire.ChannelID, messageID uint16, body any, encrypted bool, promise func(error)) error {
	// Checked up front (with a default so it never blocks) so that a
	// Messenger already stopped never queues a message writeLoop has
	// already exited and will never drain; the second select below
	// still covers the race of Stop() racing a concurrent Send().
	select {
	case <-m.stopCh:
		return errs.New(errs.Aborted, "messenger")
	default:
	}

	envelope, err := wire.EncodeMessage(messageID, body)
	if err != nil {
		return err
	}

	item := outboundItem{channel: channel, envelope: envelope, encrypted: encrypted, promise: promise}
	select {
	case m.outbound <- item:
		return nil
	case <-m.stopCh:
		return errs.New(errs.Aborted, "messenger")
	}
}

func (m *Messenger) readLoop() {
	defer m.wg.Done()
	for {
		f, err := m.fr.ReadFrame()
		if err != nil {
			m.logger.Log(log.Event{
				Layer:    log.LayerFraming,
				Category: log.CategoryError,
				Error:    &log.ErrorEvent{Kind: "frame_read", Message: err.Error()},
			})
			return
		}

		payload, flags, complete, err := m.reassembler.Feed(f)
		if err != nil {
			m.logger.Log(log.Event{
				ChannelID: uint8(f.ChannelID),
				Layer:     log.LayerFraming,
				Category:  log.CategoryError,
				Error:     &log.ErrorEvent{Kind: "reassembly", Message: err.Error()},
			})
			continue
		}
		if !complete {
			continue
		}

		if flags&wire.FlagEncrypted != 0 {
			c := m.getCryptor()
			if c == nil {
				m.logger.Log(log.Event{
					ChannelID: uint8(f.ChannelID),
					Layer:     log.LayerSession,
					Category:  log.CategoryError,
					Error:     &log.ErrorEvent{Kind: "decrypt_failed", Message: "no cryptor installed for encrypted frame"},
				})
				continue
			}
			payload, err = c.Decrypt(payload)
			if err != nil {
				m.logger.Log(log.Event{
					ChannelID: uint8(f.ChannelID),
					Layer:     log.LayerSession,
					Category:  log.CategoryError,
					Error:     &log.ErrorEvent{Kind: "decrypt_failed", Message: err.Error()},
				})
				continue
			}
		}

		messageID, body, err := wire.DecodeMessageID(payload)
		if err != nil {
			m.logger.Log(log.Event{
				ChannelID: uint8(f.ChannelID),
				Layer:     log.LayerSession,
				Category:  log.CategoryError,
				Error:     &log.ErrorEvent{Kind: "malformed_message", Message: err.Error()},
			})
			continue
		}

		handler := m.popHandler(f.ChannelID)
		if handler == nil {
			m.logger.Log(log.Event{
				ChannelID: uint8(f.ChannelID),
				Layer:     log.LayerSession,
				Category:  log.CategoryError,
				Error:     &log.ErrorEvent{Kind: "unknown_message", Message: fmt.Sprintf("no handler for message id %d", messageID)},
			})
			continue
		}
		handler(messageID, body)
	}
}

func (m *Messenger) writeLoop() {
	defer m.wg.Done()
	for {
		select {
		case item := <-m.outbound:
			err := m.writeOne(item)
			if item.promise != nil {
				item.promise(err)
			}
		case <-m.stopCh:
			return
		}
	}
}

func (m *Messenger) writeOne(item outboundItem) error {
	payload := item.envelope
	if item.encrypted {
		c := m.getCryptor()
		if c == nil {
			return errs.New(errs.ProtocolViolation, "messenger:send-before-handshake")
		}
		ciphertext, err := c.Encrypt(payload)
		if err != nil {
			return err
		}
		payload = ciphertext
	}

	total := uint32(len(payload))
	offset := 0
	for {
		end := offset + wire.MaxPayloadSize
		if end > len(payload) {
			end = len(payload)
		}

		flags := uint8(0)
		if offset == 0 {
			flags |= wire.FlagFirst
		}
		if end == len(payload) {
			flags |= wire.FlagLast
		}
		if item.encrypted {
			flags |= wire.FlagEncrypted
		}

		err := m.fw.WriteFrame(wire.Frame{
			ChannelID:   item.channel,
			Flags:       flags,
			TotalLength: total,
			Payload:     payload[offset:end],
		})
		if err != nil {
			return errs.Wrap(errs.IO, "messenger", err)
		}

		offset = end
		if offset >= len(payload) {
			return nil
		}
	}
}
