package channel

import (
	"fmt"
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// protocolMajorVersion/protocolMinorVersion are the version this head
// unit advertises in VersionRequest (§4.4).
const (
	protocolMajorVersion uint16 = 1
	protocolMinorVersion uint16 = 0
)

// State is the control channel's lifecycle, driving the session's own
// state as a side effect of each transition (§4.4, grounded on
// AndroidAutoEntity's start/onVersionResponse/onHandshake/
// onServiceDiscoveryRequest method sequence).
type State uint8

const (
	StateIdle State = iota
	StateVersionSent
	StateHandshakeInProgress
	StateAuthComplete
	StateServiceDiscoveryComplete
	StateActive
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVersionSent:
		return "version_sent"
	case StateHandshakeInProgress:
		return "handshake_in_progress"
	case StateAuthComplete:
		return "auth_complete"
	case StateServiceDiscoveryComplete:
		return "service_discovery_complete"
	case StateActive:
		return "active"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Handshaker is the handshake-step slice of pkg/cryptor.Cryptor that the
// control channel drives; it starts the handshake goroutine and then
// feeds it inbound Handshake message payloads one at a time.
type Handshaker interface {
	Begin()
	HandshakeStep(in []byte) (out []byte, done bool, err error)
}

// Callbacks lets the session (which owns the other channels, the
// cryptor installation, and the pinger) react to control-channel events
// without this package importing pkg/session.
type Callbacks struct {
	BuildDiscoveryResponse func() wire.ServiceDiscoveryResponse
	OnAuthComplete         func()
	OnServiceDiscoveryDone func()
	OnAudioFocusRequest    func(wire.AudioFocusRequest) wire.AudioFocusResponse
	OnNavigationFocus      func(wire.NavigationFocusRequest) wire.NavigationFocusResponse
	OnVoiceSession         func(wire.VoiceSessionRequest)
	OnPong                 func(timestamp int64)
	OnShutdownRequested    func(reason string)
	OnShutdownAcked        func()
	OnQuit                 func(err error)
}

// Control is the control channel (channel 0): version negotiation, the
// cryptor handshake, service discovery, focus arbitration, voice-session
// toggling, and shutdown. Its traffic is never encrypted (§3 "Encryption
// gate"), hence ControlHost rather than Host.
type Control struct {
	host      ControlHost
	handshake Handshaker
	cb        Callbacks

	mu    sync.Mutex
	state State
}

// NewControl creates a Control bound to host, driving handshake and
// invoking cb as events occur.
func NewControl(host ControlHost, handshake Handshaker, cb Callbacks) *Control {
	return &Control{host: host, handshake: handshake, cb: cb}
}

func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Control) setState(s State, reason string) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()
	c.host.Logger().Log(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity: "control", OldState: old.String(), NewState: s.String(), Reason: reason,
		},
	})
}

func (c *Control) send(messageID uint16, body any, then func(error)) {
	c.host.SendControl(messageID, body, then)
}

func (c *Control) register(handler func(uint16, []byte)) {
	if err := c.host.RegisterControl(handler); err != nil {
		c.logError("register", err)
	}
}

func (c *Control) logError(kind string, err error) {
	c.host.Logger().Log(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryError,
		Error:    &log.ErrorEvent{Kind: kind, Message: err.Error()},
	})
}

// Start sends VersionRequest and begins the handshake sequence once the
// phone's VersionResponse confirms a compatible version.
func (c *Control) Start() {
	c.setState(StateVersionSent, "start")
	c.register(c.onVersionResponse)
	c.send(uint16(wire.ControlVersionRequestID), wire.VersionRequest{
		MajorVersion: protocolMajorVersion,
		MinorVersion: protocolMinorVersion,
	}, func(err error) {
		if err != nil {
			c.fail(errs.Wrap(errs.IO, "control:version_request", err))
		}
	})
}

func (c *Control) onVersionResponse(_ uint16, payload []byte) {
	var resp wire.VersionResponse
	if err := wire.Unmarshal(payload, &resp); err != nil {
		c.fail(errs.Wrap(errs.ProtocolViolation, "control:version_response", err))
		return
	}
	if resp.Status == wire.VersionMismatch {
		c.fail(errs.New(errs.ProtocolViolation, "control:version_mismatch"))
		return
	}

	c.setState(StateHandshakeInProgress, "version_matched")
	c.handshake.Begin()
	c.stepHandshake(nil)
}

// stepHandshake feeds in into the cryptor, sends whatever bytes it
// produced (if any), then either waits for the phone's next Handshake
// message or, once done, moves on to AuthComplete.
func (c *Control) stepHandshake(in []byte) {
	out, done, err := c.handshake.HandshakeStep(in)
	if err != nil {
		c.fail(err)
		return
	}

	proceed := func() {
		if done {
			c.completeAuth()
			return
		}
		c.register(c.onHandshake)
	}

	if len(out) == 0 {
		proceed()
		return
	}
	c.send(uint16(wire.ControlHandshakeID), wire.Handshake{Payload: out}, func(err error) {
		if err != nil {
			c.fail(errs.Wrap(errs.IO, "control:handshake", err))
			return
		}
		proceed()
	})
}

func (c *Control) onHandshake(_ uint16, payload []byte) {
	var msg wire.Handshake
	if err := wire.Unmarshal(payload, &msg); err != nil {
		c.fail(errs.Wrap(errs.ProtocolViolation, "control:handshake", err))
		return
	}
	c.stepHandshake(msg.Payload)
}

func (c *Control) completeAuth() {
	c.setState(StateAuthComplete, "handshake_complete")
	if c.cb.OnAuthComplete != nil {
		c.cb.OnAuthComplete()
	}
	c.register(c.onServiceDiscoveryRequest)
	c.send(uint16(wire.ControlAuthCompleteID), wire.AuthComplete{Status: wire.StatusOK}, func(err error) {
		if err != nil {
			c.fail(errs.Wrap(errs.IO, "control:auth_complete", err))
		}
	})
}

func (c *Control) onServiceDiscoveryRequest(_ uint16, payload []byte) {
	var req wire.ServiceDiscoveryRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		c.fail(errs.Wrap(errs.ProtocolViolation, "control:service_discovery", err))
		return
	}

	var resp wire.ServiceDiscoveryResponse
	if c.cb.BuildDiscoveryResponse != nil {
		resp = c.cb.BuildDiscoveryResponse()
	}

	c.setState(StateServiceDiscoveryComplete, "discovery_requested:"+req.DeviceName)
	if c.cb.OnServiceDiscoveryDone != nil {
		c.cb.OnServiceDiscoveryDone()
	}
	c.register(c.dispatch)
	c.send(uint16(wire.ControlServiceDiscoveryResponseID), resp, func(err error) {
		if err != nil {
			c.fail(errs.Wrap(errs.IO, "control:service_discovery_response", err))
			return
		}
		c.setState(StateActive, "discovery_response_sent")
	})
}

// dispatch handles every steady-state control message: the channel
// accepts exactly one kind at a time per messenger's contract, so a
// single re-armed handler switches on whatever arrives next, mirroring
// AndroidAutoEntity's single receive-callback loop.
func (c *Control) dispatch(messageID uint16, payload []byte) {
	switch wire.ControlMessageID(messageID) {
	case wire.ControlAudioFocusRequestID:
		c.onAudioFocusRequest(payload)
	case wire.ControlNavigationFocusRequestID:
		c.onNavigationFocusRequest(payload)
	case wire.ControlVoiceSessionRequestID:
		c.onVoiceSessionRequest(payload)
	case wire.ControlPingRequestID:
		c.onPingRequest(payload)
	case wire.ControlPingResponseID:
		c.onPingResponse(payload)
	case wire.ControlShutdownRequestID:
		c.onShutdownRequest(payload)
	case wire.ControlShutdownResponseID:
		c.onShutdownResponse(payload)
		return // peer acked our shutdown; session is tearing down
	default:
		c.logError("unknown_control_message", errs.New(errs.UnknownMessage, fmt.Sprintf("control:%d", messageID)))
	}
	c.register(c.dispatch)
}

func (c *Control) onAudioFocusRequest(payload []byte) {
	var req wire.AudioFocusRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		c.logError("malformed_audio_focus_request", err)
		return
	}
	resp := wire.AudioFocusResponse{State: wire.AudioFocusStateLoss}
	if c.cb.OnAudioFocusRequest != nil {
		resp = c.cb.OnAudioFocusRequest(req)
	}
	c.send(uint16(wire.ControlAudioFocusResponseID), resp, nil)
}

func (c *Control) onNavigationFocusRequest(payload []byte) {
	var req wire.NavigationFocusRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		c.logError("malformed_navigation_focus_request", err)
		return
	}
	resp := wire.NavigationFocusResponse{State: wire.AudioFocusStateLoss}
	if c.cb.OnNavigationFocus != nil {
		resp = c.cb.OnNavigationFocus(req)
	}
	c.send(uint16(wire.ControlNavigationFocusResponseID), resp, nil)
}

func (c *Control) onVoiceSessionRequest(payload []byte) {
	var req wire.VoiceSessionRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		c.logError("malformed_voice_session_request", err)
		return
	}
	// No response is defined for VoiceSessionRequest (Open Question
	// decision, see DESIGN.md): it is purely an indication.
	if c.cb.OnVoiceSession != nil {
		c.cb.OnVoiceSession(req)
	}
}

func (c *Control) onPingRequest(payload []byte) {
	var req wire.PingRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		c.logError("malformed_ping_request", err)
		return
	}
	c.send(uint16(wire.ControlPingResponseID), wire.PingResponse{Timestamp: req.Timestamp}, nil)
}

func (c *Control) onPingResponse(payload []byte) {
	var resp wire.PingResponse
	if err := wire.Unmarshal(payload, &resp); err != nil {
		c.logError("malformed_ping_response", err)
		return
	}
	if c.cb.OnPong != nil {
		c.cb.OnPong(resp.Timestamp)
	}
}

func (c *Control) onShutdownRequest(payload []byte) {
	var req wire.ShutdownRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		c.logError("malformed_shutdown_request", err)
		return
	}
	c.setState(StateShutdown, "peer_requested:"+req.Reason)
	c.send(uint16(wire.ControlShutdownResponseID), wire.ShutdownResponse{}, nil)
	if c.cb.OnShutdownRequested != nil {
		c.cb.OnShutdownRequested(req.Reason)
	}
}

func (c *Control) onShutdownResponse(_ []byte) {
	c.setState(StateShutdown, "peer_acked")
	if c.cb.OnShutdownAcked != nil {
		c.cb.OnShutdownAcked()
	}
}

// SendPing issues a PingRequest, used by the pinger (§7).
func (c *Control) SendPing(timestamp int64) {
	c.send(uint16(wire.ControlPingRequestID), wire.PingRequest{Timestamp: timestamp}, func(err error) {
		if err != nil {
			c.fail(errs.Wrap(errs.IO, "control:ping", err))
		}
	})
}

// RequestShutdown begins a head-unit-initiated orderly teardown.
func (c *Control) RequestShutdown(reason string) {
	c.setState(StateShutdown, "local_requested:"+reason)
	c.send(uint16(wire.ControlShutdownRequestID), wire.ShutdownRequest{Reason: reason}, nil)
}

func (c *Control) fail(err error) {
	c.setState(StateShutdown, err.Error())
	c.logError("control_failure", err)
	if c.cb.OnQuit != nil {
		c.cb.OnQuit(err)
	}
}
