// Package messenger demultiplexes inbound frames to per-channel,
// one-shot receive handlers and serializes outbound messages onto a
// single Transport, fragmenting and optionally encrypting each message
// independently of any other in flight.
package messenger
