package btbootstrap

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clientRead reads one frame and returns its type and body, failing the
// test on a read error, for the test's client-side half of the
// handshake (S6).
func clientRead(t *testing.T, c net.Conn) (MessageType, []byte) {
	t.Helper()
	mt, body, err := readFrame(c)
	require.NoError(t, err)
	return mt, body
}

func TestServerHandleHappyPath(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	var paired string
	s := &Server{
		wifi:     WifiCredentials{SSID: "MyCar", PSK: "hunter2", MACAddress: "11:22:33:44:55:66"},
		socketIP: "192.168.1.50",
		port:     5000,
	}
	s.OnPaired = func(addr string) { paired = addr }

	done := make(chan struct{})
	go func() {
		s.handle(serverConn, "AA:BB:CC:DD:EE:FF")
		close(done)
	}()

	mt, body := clientRead(t, clientConn)
	require.Equal(t, SocketInfoRequestType, mt)
	var req SocketInfoRequest
	require.NoError(t, decodeBody(body, &req))
	require.Equal(t, "192.168.1.50", req.IPAddress)
	require.EqualValues(t, 5000, req.Port)

	require.NoError(t, writeFrame(clientConn, SocketInfoResponseAckType, SocketInfoResponseAck{}))

	mt, body = clientRead(t, clientConn)
	require.Equal(t, NetworkInfoType, mt)
	var net_ NetworkInfo
	require.NoError(t, decodeBody(body, &net_))
	require.Equal(t, "MyCar", net_.SSID)
	require.Equal(t, "hunter2", net_.PSK)

	require.NoError(t, writeFrame(clientConn, NetworkAckType, NetworkAck{Status: StatusOK}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not complete")
	}

	require.Equal(t, "AA:BB:CC:DD:EE:FF", paired)
}

func TestServerHandleRejectsNetworkAckFailure(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	var paired string
	s := &Server{wifi: WifiCredentials{SSID: "x", PSK: "y"}, socketIP: "10.0.0.1", port: 5000}
	s.OnPaired = func(addr string) { paired = addr }

	done := make(chan struct{})
	go func() {
		s.handle(serverConn, "AA:BB:CC:DD:EE:FF")
		close(done)
	}()

	clientRead(t, clientConn)
	require.NoError(t, writeFrame(clientConn, SocketInfoResponseAckType, SocketInfoResponseAck{}))
	clientRead(t, clientConn)
	require.NoError(t, writeFrame(clientConn, NetworkAckType, NetworkAck{Status: StatusFail}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not complete")
	}

	require.Empty(t, paired)
}

func TestMessageTypeString(t *testing.T) {
	require.Equal(t, "SocketInfoRequest", SocketInfoRequestType.String())
	require.Equal(t, "NetworkInfo", NetworkInfoType.String())
	require.Equal(t, "Unknown", MessageType(99).String())
}
