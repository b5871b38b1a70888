// Package log provides structured protocol event logging for the head unit.
//
// The messenger, session, device-wait loop and Bluetooth bootstrap accept
// an optional Logger and emit Events through it; channels log through
// their host's Logger. The transport layer does not log. NoopLogger
// discards everything, so logging has no cost when disabled.
package log
