package transport

import "io"

// Transport is the byte-level carrier beneath pkg/wire's frame codec.
// Read/Write behave like a net.Conn's: Read blocks until at least one
// byte is available or the transport is stopped, Write may return a
// short write only on error. Stop unblocks any in-flight Read/Write with
// an *errs.Error{Kind: errs.Aborted} and makes the Transport unusable.
// Stop is idempotent and safe to call from a different goroutine than
// the one blocked in Read/Write.
type Transport interface {
	io.Reader
	io.Writer
	Stop() error
}
