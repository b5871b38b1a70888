package cryptor

import (
	"crypto/tls"
	"sync"
	"time"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/keystore"
)

// stepTimeout bounds how long HandshakeStep waits for the tls engine to
// produce output bytes after being fed input, or to signal completion.
const stepTimeout = 5 * time.Second

// recordTimeout bounds Encrypt/Decrypt's wait on the established
// connection's record layer.
const recordTimeout = 5 * time.Second

// Cryptor drives the projection session's client-certificate TLS-style
// handshake and, once established, encrypts/decrypts whole message
// envelopes as TLS application-data records (§4.1 "Cryptor contract").
// The head unit always plays the TLS server role: it presents its
// embedded identity; the phone trusts it by the certificate's presence
// in a preinstalled root list rather than by chain verification.
type Cryptor struct {
	pump    *pump
	tlsConn *tls.Conn

	handshakeDone chan error
	handshakeOnce sync.Once

	mu          sync.Mutex
	established bool
}

// NewServer creates a Cryptor that authenticates the session using id.
func NewServer(id *keystore.Identity) *Cryptor {
	p := newPump()
	cfg := &tls.Config{
		Certificates: []tls.Certificate{id.TLSCertificate()},
		ClientAuth:   tls.NoClientCert,
		MinVersion:   tls.VersionTLS12,
	}

	c := &Cryptor{
		pump:          p,
		tlsConn:       tls.Server(p, cfg),
		handshakeDone: make(chan error, 1),
	}
	return c
}

// Begin starts the handshake goroutine. Call it once before the first
// HandshakeStep.
func (c *Cryptor) Begin() {
	c.handshakeOnce.Do(func() {
		go func() {
			c.handshakeDone <- c.tlsConn.Handshake()
		}()
	})
}

// HandshakeStep feeds in (bytes received from the phone on the control
// channel's Handshake message, empty on the very first call) into the
// TLS engine and returns whatever bytes it produced in response. done
// is true once the handshake has completed successfully; a non-nil err
// is always *errs.Error{Kind: errs.HandshakeFailed}.
func (c *Cryptor) HandshakeStep(in []byte) (out []byte, done bool, err error) {
	c.pump.feed(in)

	select {
	case herr := <-c.handshakeDone:
		if herr != nil {
			return nil, false, errs.Wrap(errs.HandshakeFailed, "cryptor", herr)
		}
		c.mu.Lock()
		c.established = true
		c.mu.Unlock()
		// The final flight may have been written before Handshake()
		// returned; pick up anything still queued with no further wait.
		out, _ = c.pump.drain(0)
		return out, true, nil
	default:
	}

	out, derr := c.pump.drain(stepTimeout)
	if derr != nil {
		return nil, false, errs.Wrap(errs.HandshakeFailed, "cryptor", derr)
	}

	select {
	case herr := <-c.handshakeDone:
		if herr != nil {
			return out, false, errs.Wrap(errs.HandshakeFailed, "cryptor", herr)
		}
		c.mu.Lock()
		c.established = true
		c.mu.Unlock()
		return out, true, nil
	default:
		return out, false, nil
	}
}

// Encrypt writes plaintext as one TLS application-data flight and
// returns the ciphertext bytes produced.
func (c *Cryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if !c.isEstablished() {
		return nil, errs.New(errs.HandshakeFailed, "cryptor:encrypt-before-handshake")
	}

	writeDone := make(chan error, 1)
	go func() {
		_, err := c.tlsConn.Write(plaintext)
		writeDone <- err
	}()

	var out []byte
	deadline := time.After(recordTimeout)
	for {
		select {
		case chunk := <-c.pump.writeCh:
			out = append(out, chunk...)
		case err := <-writeDone:
			if err != nil {
				return nil, errs.Wrap(errs.IO, "cryptor:encrypt", err)
			}
			// Drain any remaining queued output with no further wait.
			rest, _ := c.pump.drain(0)
			out = append(out, rest...)
			return out, nil
		case <-deadline:
			return nil, errs.New(errs.Timeout, "cryptor:encrypt")
		}
	}
}

// Decrypt feeds ciphertext (one full reassembled record set produced
// by a single peer Encrypt call) into the TLS engine and returns the
// recovered plaintext.
func (c *Cryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if !c.isEstablished() {
		return nil, errs.New(errs.HandshakeFailed, "cryptor:decrypt-before-handshake")
	}

	c.pump.feed(ciphertext)

	type readResult struct {
		n   int
		err error
	}
	readDone := make(chan readResult, 1)
	buf := make([]byte, 1<<20)
	go func() {
		n, err := c.tlsConn.Read(buf)
		readDone <- readResult{n, err}
	}()

	select {
	case r := <-readDone:
		if r.err != nil {
			return nil, errs.Wrap(errs.DecryptFailed, "cryptor:decrypt", r.err)
		}
		return buf[:r.n], nil
	case <-time.After(recordTimeout):
		return nil, errs.New(errs.Timeout, "cryptor:decrypt")
	}
}

func (c *Cryptor) isEstablished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.established
}

// Close releases the cryptor's internal pump, unblocking any in-flight
// HandshakeStep/Encrypt/Decrypt.
func (c *Cryptor) Close() error {
	return c.pump.Close()
}
