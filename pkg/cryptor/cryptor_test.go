package cryptor

import (
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/keystore"
)

// runHandshake drives a real tls.Client (standing in for the phone) over
// a net.Pipe against the production Cryptor's pull-based HandshakeStep,
// manually relaying bytes between the two exactly as the control channel
// would: each Handshake control message in one direction becomes one
// HandshakeStep call or one pipe write in the other.
func runHandshake(t *testing.T, c *Cryptor, client *tls.Conn, headUnitConn net.Conn) {
	t.Helper()

	readCh := make(chan []byte, 16)
	go func() {
		buf := make([]byte, 8192)
		for {
			n, err := headUnitConn.Read(buf)
			if n > 0 {
				readCh <- append([]byte(nil), buf[:n]...)
			}
			if err != nil {
				close(readCh)
				return
			}
		}
	}()

	clientDone := make(chan error, 1)
	go func() { clientDone <- client.Handshake() }()

	c.Begin()

	var in []byte
	select {
	case chunk, ok := <-readCh:
		require.True(t, ok, "client closed before sending ClientHello")
		in = chunk
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for ClientHello")
	}

	for {
		out, done, err := c.HandshakeStep(in)
		require.NoError(t, err)

		if len(out) > 0 {
			go func(b []byte) { _, _ = headUnitConn.Write(b) }(out)
		}
		if done {
			break
		}

		select {
		case chunk, ok := <-readCh:
			require.True(t, ok, "client closed mid-handshake")
			in = chunk
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for next client flight")
		}
	}

	select {
	case err := <-clientDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for client handshake completion")
	}
}

func newTestIdentity(t *testing.T) *keystore.Identity {
	t.Helper()
	id, err := keystore.Generate("headunit-test")
	require.NoError(t, err)
	return id
}

func TestHandshakeStepCompletesAgainstRealTLSClient(t *testing.T) {
	id := newTestIdentity(t)
	c := NewServer(id)

	clientConn, headUnitConn := net.Pipe()
	defer clientConn.Close()
	defer headUnitConn.Close()

	client := tls.Client(clientConn, &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12})

	runHandshake(t, c, client, headUnitConn)

	require.True(t, c.isEstablished())
}

func TestEncryptDecryptRoundTripAfterHandshake(t *testing.T) {
	id := newTestIdentity(t)
	c := NewServer(id)

	clientConn, headUnitConn := net.Pipe()
	defer clientConn.Close()
	defer headUnitConn.Close()

	client := tls.Client(clientConn, &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12})
	runHandshake(t, c, client, headUnitConn)

	plaintext := []byte("service discovery response payload")
	ciphertext, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	require.NotEmpty(t, ciphertext)
	require.NotEqual(t, plaintext, ciphertext)

	clientReadDone := make(chan struct{})
	var clientPlaintext []byte
	go func() {
		buf := make([]byte, 4096)
		n, rerr := client.Read(buf)
		require.NoError(t, rerr)
		clientPlaintext = append([]byte(nil), buf[:n]...)
		close(clientReadDone)
	}()

	_, err = headUnitConn.Write(ciphertext)
	require.NoError(t, err)

	select {
	case <-clientReadDone:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for client to read decrypted record")
	}
	require.Equal(t, plaintext, clientPlaintext)

	reply := []byte("phone to head unit reply")
	writeDone := make(chan struct{})
	go func() {
		_, werr := client.Write(reply)
		require.NoError(t, werr)
		close(writeDone)
	}()

	buf := make([]byte, 4096)
	n, err := headUnitConn.Read(buf)
	require.NoError(t, err)

	got, err := c.Decrypt(buf[:n])
	require.NoError(t, err)
	require.Equal(t, reply, got)

	select {
	case <-writeDone:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for client write to complete")
	}
}

func TestEncryptBeforeHandshakeFails(t *testing.T) {
	id := newTestIdentity(t)
	c := NewServer(id)

	_, err := c.Encrypt([]byte("too early"))
	require.Error(t, err)
}

func TestDecryptBeforeHandshakeFails(t *testing.T) {
	id := newTestIdentity(t)
	c := NewServer(id)

	_, err := c.Decrypt([]byte("too early"))
	require.Error(t, err)
}
