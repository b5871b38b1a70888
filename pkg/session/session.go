// Package session implements AndroidAutoEntity: the projection session
// that owns the cryptor, messenger, control channel, and the set of
// service channels, and drives them through the lifecycle in spec §4.2.
package session

import (
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/channel"
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/messenger"
	"github.com/aa-headunit/headunit-go/pkg/transport"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// ServiceChannel is the uniform shape every service channel in pkg/channel
// satisfies: opened once service discovery completes, and able to
// describe itself for the ServiceDiscoveryResponse.
type ServiceChannel interface {
	Open()
	Descriptor() wire.ChannelDescriptor
}

// Cryptor is the handshake/record-layer engine the session installs into
// both the control channel (as a channel.Handshaker) and the messenger
// (as a messenger.Cryptor) once constructed. *pkg/cryptor.Cryptor
// satisfies it.
type Cryptor interface {
	Begin()
	HandshakeStep(in []byte) (out []byte, done bool, err error)
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
	Close() error
}

// Identity describes the head unit for the ServiceDiscoveryResponse
// (§4.4, grounded on AndroidAutoEntity::onServiceDiscoveryRequest's
// hardcoded fields, made configurable here).
type Identity struct {
	HeadUnitName               string
	CarModel                   string
	CarYear                    string
	CarSerial                  string
	LeftHandDrive              bool
	SoftwareBuild              string
	SoftwareVersion            string
	CanPlayNativeMediaDuringVR bool
}

// EventHandler is notified when the session ends, by any cause: a clean
// shutdown handshake, a protocol violation, a transport error, or a
// pinger timeout. It mirrors IAndroidAutoEntityEventHandler.
type EventHandler interface {
	OnSessionQuit(err error)
}

// Session is AndroidAutoEntity: it wires the control channel's callbacks
// to the messenger's cryptor installation and to every service channel's
// lifecycle, and owns the pinger that keeps the link alive once active.
type Session struct {
	transport transport.Transport
	msgr      *messenger.Messenger
	cryptor   Cryptor
	logger    log.Logger

	control  *channel.Control
	channels []ServiceChannel
	identity Identity
	pinger   *Pinger

	mu          sync.Mutex
	eventHandler EventHandler
	stopped     bool
}

// New creates a Session over t, using cr as the handshake/record-layer
// engine, identity as the service-discovery metadata to advertise, and
// channels as the full ordered set of service channels to open once
// discovery completes.
func New(t transport.Transport, cr Cryptor, logger log.Logger, identity Identity, channels []ServiceChannel) *Session {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	s := &Session{
		transport: t,
		msgr:      messenger.New(t, logger),
		cryptor:   cr,
		logger:    logger,
		channels:  channels,
		identity:  identity,
	}
	s.control = channel.NewControl(s, cr, channel.Callbacks{
		BuildDiscoveryResponse: s.buildDiscoveryResponse,
		OnAuthComplete:         s.onAuthComplete,
		OnServiceDiscoveryDone: s.onServiceDiscoveryDone,
		OnAudioFocusRequest:    s.onAudioFocusRequest,
		OnNavigationFocus:      s.onNavigationFocus,
		OnVoiceSession:         s.onVoiceSession,
		OnPong:                 s.onPong,
		OnShutdownRequested:    s.onShutdownRequested,
		OnShutdownAcked:        s.quit,
		OnQuit:                 s.quit,
	})
	s.pinger = NewPinger(s.control.SendPing, s.onPingTimeout)
	return s
}

// Start begins the session: launches the messenger's pumps, schedules
// the pinger, and kicks off the control channel's version negotiation
// (AndroidAutoEntity::start).
func (s *Session) Start(eventHandler EventHandler) {
	s.mu.Lock()
	s.eventHandler = eventHandler
	s.mu.Unlock()

	s.msgr.Start()
	s.pinger.Start()
	s.control.Start()
}

// Stop cancels the pinger first (so a stop never races a spurious
// timeout quit), then tears down the messenger, transport, and cryptor
// (AndroidAutoEntity::stop).
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.eventHandler = nil
	s.mu.Unlock()

	s.pinger.Stop()
	err := s.msgr.Stop()
	if cerr := s.cryptor.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// RequestShutdown begins a head-unit-initiated orderly teardown of the
// control channel; the session itself quits once the phone acks.
func (s *Session) RequestShutdown(reason string) {
	s.control.RequestShutdown(reason)
}

// --- channel.Host / channel.ControlHost ---

func (s *Session) Send(ch wire.ChannelID, messageID uint16, body any, then func(error)) {
	err := s.msgr.Send(ch, messageID, body, true, then)
	if err != nil && then != nil {
		then(err)
	}
}

func (s *Session) SendControl(messageID uint16, body any, then func(error)) {
	err := s.msgr.Send(wire.ChannelControl, messageID, body, false, then)
	if err != nil && then != nil {
		then(err)
	}
}

func (s *Session) Register(ch wire.ChannelID, handler messenger.ReceiveHandler) error {
	return s.msgr.RegisterReceive(ch, handler)
}

func (s *Session) RegisterControl(handler messenger.ReceiveHandler) error {
	return s.msgr.RegisterReceive(wire.ChannelControl, handler)
}

func (s *Session) Logger() log.Logger {
	return s.logger
}

// --- control channel callbacks ---

func (s *Session) buildDiscoveryResponse() wire.ServiceDiscoveryResponse {
	descriptors := make([]wire.ChannelDescriptor, 0, len(s.channels))
	for _, c := range s.channels {
		descriptors = append(descriptors, c.Descriptor())
	}
	return wire.ServiceDiscoveryResponse{
		HeadUnitName:               s.identity.HeadUnitName,
		CarModel:                   s.identity.CarModel,
		CarYear:                    s.identity.CarYear,
		CarSerial:                  s.identity.CarSerial,
		LeftHandDrive:              s.identity.LeftHandDrive,
		SoftwareBuild:              s.identity.SoftwareBuild,
		SoftwareVersion:            s.identity.SoftwareVersion,
		CanPlayNativeMediaDuringVR: s.identity.CanPlayNativeMediaDuringVR,
		Channels:                   descriptors,
	}
}

// onAuthComplete installs the now-established cryptor into the
// messenger: every message after this point on a non-control channel is
// encrypted (§3 "Encryption gate").
func (s *Session) onAuthComplete() {
	s.msgr.SetCryptor(s.cryptor)
}

// onServiceDiscoveryDone opens every service channel, mirroring
// AndroidAutoEntity::start's for_each over its ServiceList, deferred here
// until discovery rather than at session start since the phone cannot
// address a channel before it has been told the channel exists.
func (s *Session) onServiceDiscoveryDone() {
	for _, c := range s.channels {
		c.Open()
	}
}

func (s *Session) onAudioFocusRequest(req wire.AudioFocusRequest) wire.AudioFocusResponse {
	state := wire.AudioFocusStateGain
	if req.Type == wire.AudioFocusRelease {
		state = wire.AudioFocusStateLoss
	}
	return wire.AudioFocusResponse{State: state}
}

// navigationFocusGranted is the fixed reply value §4.4 specifies for
// NavigationFocusResponse (type=2) — not an AudioFocusRequest grant/loss
// state, just sharing the wire field's numeric type.
const navigationFocusGranted = wire.AudioFocusState(2)

func (s *Session) onNavigationFocus(_ wire.NavigationFocusRequest) wire.NavigationFocusResponse {
	return wire.NavigationFocusResponse{State: navigationFocusGranted}
}

func (s *Session) onVoiceSession(_ wire.VoiceSessionRequest) {}

func (s *Session) onPong(_ int64) {
	s.pinger.Pong()
}

func (s *Session) onShutdownRequested(_ string) {
	s.quit(nil)
}

func (s *Session) onPingTimeout() {
	s.quit(errs.New(errs.Timeout, "session:pinger"))
}

// quit notifies the event handler exactly once per session
// (AndroidAutoEntity::triggerQuit); err is nil for a clean peer-initiated
// shutdown.
func (s *Session) quit(err error) {
	s.mu.Lock()
	eh := s.eventHandler
	s.eventHandler = nil
	s.mu.Unlock()
	if eh != nil {
		eh.OnSessionQuit(err)
	}
}
