package keystore

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// PEM encoding/decoding errors.
var (
	ErrInvalidPEM = errors.New("keystore: invalid PEM data")
)

// EncodeCertPEM encodes an X.509 certificate to PEM format.
func EncodeCertPEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	})
}

// DecodeCertPEM decodes a PEM-encoded X.509 certificate.
func DecodeCertPEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, ErrInvalidPEM
	}
	return x509.ParseCertificate(block.Bytes)
}

// EncodeKeyPEM encodes an ECDSA private key to PEM format.
func EncodeKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: der,
	}), nil
}

// DecodeKeyPEM decodes a PEM-encoded ECDSA private key.
func DecodeKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, ErrInvalidPEM
	}
	return x509.ParseECPrivateKey(block.Bytes)
}

// Save writes the identity's certificate and private key to two PEM
// files next to each other: certPath and keyPath.
func Save(id *Identity, certPath, keyPath string) error {
	if err := os.WriteFile(certPath, EncodeCertPEM(id.Certificate), 0o644); err != nil {
		return fmt.Errorf("keystore: write cert: %w", err)
	}
	keyPEM, err := EncodeKeyPEM(id.PrivateKey)
	if err != nil {
		return fmt.Errorf("keystore: encode key: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("keystore: write key: %w", err)
	}
	return nil
}

// Load reads an identity back from the PEM files written by Save.
func Load(certPath, keyPath string) (*Identity, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("keystore: read cert: %w", err)
	}
	cert, err := DecodeCertPEM(certData)
	if err != nil {
		return nil, fmt.Errorf("keystore: decode cert: %w", err)
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("keystore: read key: %w", err)
	}
	key, err := DecodeKeyPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("keystore: decode key: %w", err)
	}

	return &Identity{Certificate: cert, PrivateKey: key}, nil
}

// LoadOrGenerate loads an identity from disk, generating and saving a
// fresh one if the files are absent or the existing identity has
// expired.
func LoadOrGenerate(certPath, keyPath, commonName string) (*Identity, error) {
	id, err := Load(certPath, keyPath)
	if err == nil && !id.IsExpired() {
		return id, nil
	}

	fresh, err := Generate(commonName)
	if err != nil {
		return nil, err
	}
	if err := Save(fresh, certPath, keyPath); err != nil {
		return nil, err
	}
	return fresh, nil
}
