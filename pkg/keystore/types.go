package keystore

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"
	"time"
)

// Validity is how long a generated self-signed identity remains valid.
// The head unit regenerates its identity on expiry rather than renewing
// it, since there is no CA relationship to renew against.
const Validity = 10 * 365 * 24 * time.Hour

// Identity holds the head unit's embedded ECDSA P-256 key pair and its
// self-signed certificate.
type Identity struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// ExpiresAt returns when the identity's certificate expires.
func (id *Identity) ExpiresAt() time.Time {
	if id == nil || id.Certificate == nil {
		return time.Time{}
	}
	return id.Certificate.NotAfter
}

// IsExpired reports whether the identity's certificate has expired.
func (id *Identity) IsExpired() bool {
	if id == nil || id.Certificate == nil {
		return true
	}
	return time.Now().After(id.Certificate.NotAfter)
}

// TLSCertificate converts the identity to a tls.Certificate suitable for
// tls.Config.Certificates.
func (id *Identity) TLSCertificate() tls.Certificate {
	if id == nil || id.Certificate == nil || id.PrivateKey == nil {
		return tls.Certificate{}
	}
	return tls.Certificate{
		Certificate: [][]byte{id.Certificate.Raw},
		PrivateKey:  id.PrivateKey,
		Leaf:        id.Certificate,
	}
}

// TLSCertPool returns an x509.CertPool containing only this identity's
// own certificate. The head unit's cryptor requests no certificate from
// the phone and verifies none, so the projection handshake does not use
// this pool; it suits a TLS client that dials a server built from the
// same Identity.
func (id *Identity) TLSCertPool() *x509.CertPool {
	if id == nil || id.Certificate == nil {
		return nil
	}
	pool := x509.NewCertPool()
	pool.AddCert(id.Certificate)
	return pool
}
