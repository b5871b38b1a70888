package session

import (
	"sync"
	"time"
)

// pingInterval and pingDeadline are spec §7's liveness constants: a
// PingRequest goes out every pingInterval; if no pong has landed for
// pingDeadline (five missed intervals), the link is presumed dead.
const (
	pingInterval = 3 * time.Second
	pingDeadline = 15 * time.Second
)

// Pinger is AndroidAutoEntity's IPinger: a timer plus a deadline watchdog
// (§4.2 "Ping scheduling"). Pongs are idempotent — only whether one
// landed since the last check matters, not how many.
type Pinger struct {
	sendPing  func(timestampMicros int64)
	onTimeout func()

	mu       sync.Mutex
	lastPong time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPinger creates a Pinger that calls sendPing on every interval and
// onTimeout once pingDeadline elapses with no intervening Pong.
func NewPinger(sendPing func(int64), onTimeout func()) *Pinger {
	return &Pinger{
		sendPing:  sendPing,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
	}
}

// Start arms the ping loop. It must be called exactly once.
func (p *Pinger) Start() {
	p.mu.Lock()
	p.lastPong = time.Now()
	p.mu.Unlock()
	go p.loop()
}

// Stop cancels the loop; further calls are no-ops. It must run before
// the session tears down the control channel, so a stop never races a
// spurious timeout quit (§4.2 "Cancellation").
func (p *Pinger) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Pong records a received PingResponse, resetting the deadline.
func (p *Pinger) Pong() {
	p.mu.Lock()
	p.lastPong = time.Now()
	p.mu.Unlock()
}

func (p *Pinger) sinceLastPong() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.lastPong)
}

func (p *Pinger) loop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			p.sendPing(now.UnixMicro())
			if p.sinceLastPong() >= pingDeadline {
				if p.onTimeout != nil {
					p.onTimeout()
				}
				return
			}
		case <-p.stopCh:
			return
		}
	}
}
