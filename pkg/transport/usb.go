package transport

import (
	"io"
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/errs"
)

// USBEndpoints is the pair of bulk endpoints pkg/usb exposes once a
// device has been switched into accessory mode (§4.14). The concrete
// implementation is a thin wrapper over the host's USB stack; this
// package only needs read/write/close.
type USBEndpoints interface {
	io.ReadWriteCloser
}

// usbTransport adapts a pair of USB bulk endpoints to the Transport
// port, mirroring tcpTransport's error-classification behavior so
// pkg/session never branches on which carrier it's running over.
type usbTransport struct {
	ep USBEndpoints

	mu      sync.Mutex
	stopped bool
}

// NewUSBTransport wraps ep as a Transport.
func NewUSBTransport(ep USBEndpoints) Transport {
	return &usbTransport{ep: ep}
}

func (t *usbTransport) Read(p []byte) (int, error) {
	n, err := t.ep.Read(p)
	return n, t.classify(err)
}

func (t *usbTransport) Write(p []byte) (int, error) {
	n, err := t.ep.Write(p)
	return n, t.classify(err)
}

func (t *usbTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	t.stopped = true
	return t.ep.Close()
}

func (t *usbTransport) classify(err error) error {
	if err == nil {
		return nil
	}
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return errs.Wrap(errs.Aborted, "transport:usb", err)
	}
	return errs.Wrap(errs.IO, "transport:usb", err)
}

var _ Transport = (*usbTransport)(nil)
