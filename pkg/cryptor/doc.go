// Package cryptor implements the projection session's handshake and
// record encryption. The wire contract is pull-based
// (HandshakeStep(in) -> (out, done, err)) but crypto/tls expects a
// full-duplex net.Conn, so this package bridges the two with an
// in-process byte pump standing in for the underlying socket.
package cryptor
