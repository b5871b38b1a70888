// Package errs defines the closed set of error kinds shared across the
// transport, cryptor, messenger, and channel layers, so callers can
// dispatch on errs.Of(err) (or errors.As with a *errs.Error target) once
// instead of matching a
// different sentinel per package.
package errs
