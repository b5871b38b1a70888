// Package keystore manages the head unit's embedded identity: a
// self-signed ECDSA P-256 certificate and private key used by pkg/cryptor
// to authenticate the projection session's TLS handshake, plus PEM
// persistence and an HKDF helper for auxiliary key derivation.
package keystore
