package keystore

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveLinkKey derives a fixed-length auxiliary key from secret with
// HKDF-SHA256. info distinguishes independent derivations from the same
// secret. No other package in this module calls it; the Bluetooth
// bootstrap exchanges no shared secret.
func DeriveLinkKey(secret, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("keystore: derive link key: %w", err)
	}
	return out, nil
}
