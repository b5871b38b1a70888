// Package btbootstrap implements the Bluetooth bootstrap handshake that
// hands a phone the head unit's Wi-Fi credentials and TCP endpoint
// before wireless projection begins (§3 "Bluetooth bootstrap state
// machine", §4.13). Grounded on original_source/btservice/
// AndroidBluetoothServer.cpp's request/response variant — not the
// busy-spin `while(true) switch(state)` variant also present in the
// original tree (§9 Design Notes): every state transition here happens
// on a blocking read of the next expected message, never a poll loop.
package btbootstrap

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/aa-headunit/headunit-go/pkg/connection"
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// Channel is the fixed RFCOMM channel the bootstrap service listens on
// (§4.13, §6 "Network").
const Channel = 22

// handshakeTimeout bounds how long the server waits for the phone's
// reply at each step of the handshake.
const handshakeTimeout = 15 * time.Second

// State is a position in the per-connection bootstrap state machine
// (§3 "Bluetooth bootstrap state machine").
type State int

const (
	StateIdle State = iota
	StateDeviceConnected
	StateSentSocketInfo
	StatePhoneAckedSocketInfo
	StateSentNetworkInfo
	StatePhoneAckedNetworkInfo
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeviceConnected:
		return "device_connected"
	case StateSentSocketInfo:
		return "sent_socket_info"
	case StatePhoneAckedSocketInfo:
		return "phone_acked_socket_info"
	case StateSentNetworkInfo:
		return "sent_network_info"
	case StatePhoneAckedNetworkInfo:
		return "phone_acked_network_info"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// WifiCredentials is the network information handed to the phone once
// it has acknowledged the socket info (§4.13).
type WifiCredentials struct {
	SSID       string
	PSK        string
	MACAddress string
}

// conn is the minimal per-client carrier the server needs: a
// ReadWriteCloser plus the client's Bluetooth address for persistence.
// rfcommListener implementations on each platform satisfy this.
type conn interface {
	io.ReadWriteCloser
}

// listener is the platform port a Server drives; listenRFCOMM (linux)
// or its non-linux stub provide the concrete implementation.
type listener interface {
	Accept() (conn, string, error)
	Close() error
}

// Server is the RFCOMM bootstrap server (§4.13): on each client
// connection it drives the socket-info/network-info handshake to
// completion or to StateError, then closes the connection.
type Server struct {
	ln       listener
	wifi     WifiCredentials
	socketIP string
	port     uint16
	logger   log.Logger

	// OnPaired is called with the phone's Bluetooth address once the
	// handshake completes (§4.13 "persist the phone's address as the
	// last-paired device for auto-reconnect").
	OnPaired func(phoneAddress string)
}

// Listen opens the RFCOMM listener on Channel and returns a Server bound
// to it. wifi is the network info advertised to every connecting phone;
// socketIP/port are the SocketInfoRequest fields (typically the first
// non-loopback IPv4 address and 5000, §4.13).
func Listen(wifi WifiCredentials, socketIP string, port uint16, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	ln, err := listenRFCOMM(Channel)
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln, wifi: wifi, socketIP: socketIP, port: port, logger: logger}, nil
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.ln.Close()
}

// Serve accepts connections until ctx is cancelled or Accept fails with
// errs.Aborted. Any other Accept error, including the IO error the
// RFCOMM listener returns once Close has been called, is retried with
// backoff for as long as ctx is live. Each accepted connection is driven
// through the handshake synchronously in its own
// goroutine (one client at a time is expected in practice, but nothing
// here assumes it).
func (s *Server) Serve(ctx context.Context) error {
	backoff := connection.NewBackoff()

	for {
		c, addr, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errs.Is(err, errs.Aborted) {
				return nil
			}
			s.logEvent("accept error: " + err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff.Next()):
			}
			continue
		}
		backoff.Reset()
		go s.handle(c, addr)
	}
}

func (s *Server) handle(c conn, phoneAddress string) {
	defer c.Close()

	state := StateDeviceConnected
	s.logState(state)

	if err := writeFrame(c, SocketInfoRequestType, SocketInfoRequest{IPAddress: s.socketIP, Port: s.port}); err != nil {
		s.fail(state, "send_socket_info", err)
		return
	}
	state = StateSentSocketInfo
	s.logState(state)

	msgType, _, err := s.readWithTimeout(c)
	if err != nil {
		s.fail(state, "read_socket_info_ack", err)
		return
	}
	if msgType != SocketInfoResponseAckType {
		s.logEvent("unexpected message type " + msgType.String() + " awaiting socket info ack")
		s.fail(state, "unexpected_message", errs.New(errs.ProtocolViolation, "btbootstrap"))
		return
	}
	state = StatePhoneAckedSocketInfo
	s.logState(state)

	if err := writeFrame(c, NetworkInfoType, NetworkInfo{
		SSID: s.wifi.SSID, PSK: s.wifi.PSK, MACAddress: s.wifi.MACAddress,
		Security: SecurityWPA2Personal, AccessPoint: AccessPointStatic,
	}); err != nil {
		s.fail(state, "send_network_info", err)
		return
	}
	state = StateSentNetworkInfo
	s.logState(state)

	msgType, body, err := s.readWithTimeout(c)
	if err != nil {
		s.fail(state, "read_network_ack", err)
		return
	}
	if msgType != NetworkAckType {
		s.fail(state, "unexpected_message", errs.New(errs.ProtocolViolation, "btbootstrap"))
		return
	}
	var ack NetworkAck
	if err := decodeBody(body, &ack); err != nil {
		s.fail(state, "malformed_network_ack", err)
		return
	}
	if ack.Status != StatusOK {
		s.fail(state, "network_ack_failed", errs.New(errs.ProtocolViolation, "btbootstrap"))
		return
	}

	state = StatePhoneAckedNetworkInfo
	s.logState(state)

	if s.OnPaired != nil {
		s.OnPaired(phoneAddress)
	}
}

func (s *Server) readWithTimeout(c conn) (MessageType, []byte, error) {
	type result struct {
		msgType MessageType
		body    []byte
		err     error
	}
	resultCh := make(chan result, 1)
	go func() {
		mt, body, err := readFrame(c)
		resultCh <- result{mt, body, err}
	}()

	select {
	case r := <-resultCh:
		return r.msgType, r.body, r.err
	case <-time.After(handshakeTimeout):
		return 0, nil, errs.New(errs.Timeout, "btbootstrap:read")
	}
}

func (s *Server) fail(state State, reason string, err error) {
	s.logEvent(state.String() + " -> error: " + reason + ": " + err.Error())
}

func (s *Server) logState(state State) {
	s.logEvent("state=" + state.String())
}

func (s *Server) logEvent(msg string) {
	logger := s.logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	logger.Log(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryPairing,
		Pairing:  &log.PairingEvent{Status: msg},
	})
}

// FirstNonLoopbackIPv4 returns the first non-loopback IPv4 address
// found on any local interface, for the SocketInfoRequest (§4.13).
func FirstNonLoopbackIPv4() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", errs.Wrap(errs.IO, "btbootstrap:interfaces", err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", errs.New(errs.IO, "btbootstrap:no_ipv4_address")
}

func decodeBody(body []byte, v any) error {
	if len(body) == 0 {
		return nil
	}
	return wire.Unmarshal(body, v)
}
