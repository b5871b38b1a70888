package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/session"
	"github.com/aa-headunit/headunit-go/pkg/transport"
)

// fakeHub hands back a canned endpoint set (or error) from a channel, one
// value per Wait call, and blocks until ctx is cancelled if the channel is
// empty.
type fakeHub struct {
	results chan hubResult
}

type hubResult struct {
	eps transport.USBEndpoints
	err error
}

func newFakeHub() *fakeHub {
	return &fakeHub{results: make(chan hubResult, 4)}
}

func (h *fakeHub) Wait(ctx context.Context) (transport.USBEndpoints, error) {
	select {
	case r := <-h.results:
		return r.eps, r.err
	case <-ctx.Done():
		return nil, errs.Wrap(errs.Aborted, "usb:hub", ctx.Err())
	}
}

// fakeTCP mirrors fakeHub for the wireless arrival path.
type fakeTCP struct {
	results chan tcpResult
}

type tcpResult struct {
	t   transport.Transport
	err error
}

func newFakeTCP() *fakeTCP {
	return &fakeTCP{results: make(chan tcpResult, 4)}
}

func (f *fakeTCP) Accept(ctx context.Context) (transport.Transport, string, error) {
	select {
	case r := <-f.results:
		return r.t, "conn-id", r.err
	case <-ctx.Done():
		return nil, "", errs.Wrap(errs.Aborted, "transport:tcp", ctx.Err())
	}
}

// fakeTransport is a no-op Transport that records whether Stop was called.
type fakeTransport struct {
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTransport) Read(p []byte) (int, error)  { return 0, nil }
func (f *fakeTransport) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}
func (f *fakeTransport) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// fakeEndpoints satisfies transport.USBEndpoints (io.ReadWriteCloser).
type fakeEndpoints struct{}

func (fakeEndpoints) Read(p []byte) (int, error)  { return 0, nil }
func (fakeEndpoints) Write(p []byte) (int, error) { return len(p), nil }
func (fakeEndpoints) Close() error                { return nil }

// newNoopSession builds a real *session.Session over a transport that never
// produces data, so Start/Stop exercise the genuine lifecycle without a
// live peer.
func newNoopSession(t transport.Transport) *session.Session {
	return session.New(t, noopCryptor{}, nil, session.Identity{}, nil)
}

type noopCryptor struct{}

func (noopCryptor) Begin() {}
func (noopCryptor) HandshakeStep(in []byte) ([]byte, bool, error) {
	return nil, false, nil
}
func (noopCryptor) Encrypt(p []byte) ([]byte, error) { return p, nil }
func (noopCryptor) Decrypt(p []byte) ([]byte, error) { return p, nil }
func (noopCryptor) Close() error                     { return nil }

func TestSecondArrivalWhileSessionActiveIsClosedImmediately(t *testing.T) {
	hub := newFakeHub()
	tcp := newFakeTCP()

	var built []transport.Transport
	var mu sync.Mutex
	a := New(hub, tcp, func(tr transport.Transport) *session.Session {
		mu.Lock()
		built = append(built, tr)
		mu.Unlock()
		return newNoopSession(tr)
	}, nil)

	a.WaitForDevice()

	first := &fakeTransport{}
	hub.results <- hubResult{eps: fakeEndpoints{}, err: nil}
	_ = first // first arrival comes through fakeHub, not this value

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(built) == 1
	}, time.Second, 10*time.Millisecond)

	second := &fakeTransport{}
	tcp.results <- tcpResult{t: second, err: nil}

	require.Eventually(t, second.wasStopped, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, built, 1, "no session should be built for the second arrival")

	a.Stop()
}

func TestQuitResumesWaitingUnlessStopped(t *testing.T) {
	hub := newFakeHub()
	tcp := newFakeTCP()

	var count int32Counter
	a := New(hub, tcp, func(tr transport.Transport) *session.Session {
		count.inc()
		return newNoopSession(tr)
	}, nil)

	a.WaitForDevice()

	hub.results <- hubResult{eps: fakeEndpoints{}, err: nil}
	require.Eventually(t, func() bool { return count.get() == 1 }, time.Second, 10*time.Millisecond)

	a.OnSessionQuit(nil)

	hub.results <- hubResult{eps: fakeEndpoints{}, err: nil}
	require.Eventually(t, func() bool { return count.get() == 2 }, time.Second, 10*time.Millisecond)

	a.Stop()

	// After Stop, a further quit must not resume waiting.
	a.OnSessionQuit(nil)
	hub.results <- hubResult{eps: fakeEndpoints{}, err: nil}
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(2), count.get())
}

func TestUSBHubErrorRestartsWaitUnlessAbortedOrInProgress(t *testing.T) {
	hub := newFakeHub()
	tcp := newFakeTCP()

	var count int32Counter
	a := New(hub, tcp, func(tr transport.Transport) *session.Session {
		count.inc()
		return newNoopSession(tr)
	}, nil)

	a.WaitForDevice()

	hub.results <- hubResult{err: errs.New(errs.IO, "usb:hub:test")}
	hub.results <- hubResult{eps: fakeEndpoints{}, err: nil}

	// The first error is followed by a backoff sleep (~1s+jitter) before
	// the retry, so give this one more room than the other assertions.
	require.Eventually(t, func() bool { return count.get() == 1 }, 3*time.Second, 20*time.Millisecond)

	a.Stop()
}

func TestTCPAcceptErrorRestartsWaitUnlessAborted(t *testing.T) {
	hub := newFakeHub()
	tcp := newFakeTCP()

	var count int32Counter
	a := New(hub, tcp, func(tr transport.Transport) *session.Session {
		count.inc()
		return newNoopSession(tr)
	}, nil)

	a.WaitForDevice()

	tcp.results <- tcpResult{err: errs.New(errs.IO, "transport:tcp:test")}
	tcp.results <- tcpResult{t: &fakeTransport{}, err: nil}

	// The first error is followed by a backoff sleep (~1s+jitter) before
	// the retry, so give this one more room than the other assertions.
	require.Eventually(t, func() bool { return count.get() == 1 }, 3*time.Second, 20*time.Millisecond)

	a.Stop()
}

// int32Counter is a tiny atomic counter, avoiding a sync/atomic import just
// for three tests.
type int32Counter struct {
	mu sync.Mutex
	n  int32
}

func (c *int32Counter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *int32Counter) get() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
