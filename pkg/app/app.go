// Package app implements the device-wait loop (§4.12, "App" in the
// original): it multiplexes a USB accessory-mode hub and a TCP listener
// as concurrent arrival sources, enforces the at-most-one-session
// invariant (§3 "Lifecycles", §8 property 7), and resumes waiting after
// a session quits unless the operator asked to stop. Grounded
// method-for-method on original_source/openauto/App.cpp.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/aa-headunit/headunit-go/pkg/connection"
	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/session"
	"github.com/aa-headunit/headunit-go/pkg/transport"
	"github.com/aa-headunit/headunit-go/pkg/usb"
)

// USBHub is the port pkg/usb.Hub satisfies: block until a device has
// been switched into accessory mode and re-enumerated, or ctx is
// cancelled.
type USBHub interface {
	Wait(ctx context.Context) (transport.USBEndpoints, error)
}

// TCPAcceptor is the port transport.TCPListener satisfies.
type TCPAcceptor interface {
	Accept(ctx context.Context) (transport.Transport, string, error)
}

// SessionFactory builds a fresh Session over a newly arrived transport.
// main wires this to session.New plus the concrete cryptor/channel set.
type SessionFactory func(t transport.Transport) *session.Session

// App is the device-wait loop: at most one Session exists at a time;
// a new arrival while one is active is closed immediately (§8 property 7).
type App struct {
	hub     USBHub
	tcp     TCPAcceptor
	factory SessionFactory
	logger  log.Logger

	mu        sync.Mutex
	current   *session.Session
	stopped   bool
	cancelUSB context.CancelFunc
}

// New creates an App over hub and tcp, using factory to build a Session
// for each accepted transport.
func New(hub USBHub, tcp TCPAcceptor, factory SessionFactory, logger log.Logger) *App {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &App{hub: hub, tcp: tcp, factory: factory, logger: logger}
}

// WaitForDevice launches both arrival waiters (App::waitForDevice).
func (a *App) WaitForDevice() {
	go a.waitForUSBDevice()
	go a.waitForWirelessDevice()
}

// Stop cancels the in-flight USB wait and stops the active session, if
// any, and prevents WaitForDevice from being re-armed by a subsequent
// quit (App::stop). A pending TCP accept is not cancelled; its waiter
// returns once Accept itself returns.
func (a *App) Stop() {
	a.mu.Lock()
	a.stopped = true
	if a.cancelUSB != nil {
		a.cancelUSB()
	}
	sess := a.current
	a.current = nil
	a.mu.Unlock()

	if sess != nil {
		sess.Stop()
	}
}

// waitForUSBDevice repeatedly drives the USB hub until a device arrives
// or the wait is aborted; errors other than Aborted/InProgress restart
// the wait (§7 "USB-hub errors other than Aborted/InProgress restart
// the wait"), grounded on App::onUSBHubError.
func (a *App) waitForUSBDevice() {
	backoff := connection.NewBackoff()

	for {
		if a.isStopped() {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		a.mu.Lock()
		a.cancelUSB = cancel
		a.mu.Unlock()

		eps, err := a.hub.Wait(ctx)
		if err != nil {
			kind, _ := errs.Of(err)
			if kind == errs.Aborted {
				return
			}
			if kind == errs.InProgress {
				return
			}
			a.logEvent("usb hub error: " + err.Error())
			time.Sleep(backoff.Next())
			continue
		}

		a.onArrival(transport.NewUSBTransport(eps))
		return
	}
}

// waitForWirelessDevice accepts on the TCP listener until a connection
// arrives or the wait is aborted (App::waitForWirelessDevice).
func (a *App) waitForWirelessDevice() {
	backoff := connection.NewBackoff()

	for {
		if a.isStopped() {
			return
		}

		t, _, err := a.tcp.Accept(context.Background())
		if err != nil {
			if errs.Is(err, errs.Aborted) {
				return
			}
			a.logEvent("tcp accept error: " + err.Error())
			time.Sleep(backoff.Next())
			continue
		}

		a.onArrival(t)
		return
	}
}

// onArrival is App::start/App::aoapDeviceHandler collapsed into one
// path: if a session is already active, the new transport is closed
// immediately (§8 property 7); otherwise the USB waiter is cancelled
// (SPEC_FULL's "USB hub cancellation ordering") and a session is
// created and started. The TCP waiter is not cancelled.
func (a *App) onArrival(t transport.Transport) {
	a.mu.Lock()
	if a.current != nil {
		a.mu.Unlock()
		t.Stop()
		a.logEvent("android auto entity is still running")
		return
	}
	if a.cancelUSB != nil {
		a.cancelUSB()
	}

	sess := a.factory(t)
	a.current = sess
	a.mu.Unlock()

	sess.Start(a)
}

// OnSessionQuit implements session.EventHandler: it tears down the
// session and, unless Stop was called, resumes waiting for the next
// device (App::onAndroidAutoQuit).
func (a *App) OnSessionQuit(err error) {
	a.mu.Lock()
	sess := a.current
	a.current = nil
	stopped := a.stopped
	a.mu.Unlock()

	if sess != nil {
		sess.Stop()
	}
	if err != nil {
		a.logEvent("quit: " + err.Error())
	} else {
		a.logEvent("quit")
	}

	if !stopped {
		a.WaitForDevice()
	}
}

// SessionActive reports whether a device is currently projecting.
func (a *App) SessionActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

func (a *App) isStopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

func (a *App) logEvent(msg string) {
	a.logger.Log(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryControl,
		Control:  &log.ControlEvent{Type: "app:" + msg},
	})
}

var _ session.EventHandler = (*App)(nil)
var _ USBHub = (*usb.Hub)(nil)
var _ TCPAcceptor = (*transport.TCPListener)(nil)
