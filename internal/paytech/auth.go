package paytech

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrInvalidSignature means the digests carried by the notification do not
// match the digests of the locally configured credentials.
var ErrInvalidSignature = errors.New("paytech: invalid signature")

// Authenticator verifies IPN authenticity using PayTech's shared-secret
// scheme: the provider sends sha256(api_key) and sha256(api_secret) as hex,
// and the receiver recomputes both from its own copy of the credentials.
// This is not an HMAC over the body; the hash input is the secret itself,
// and substituting a conventional HMAC would not interoperate.
type Authenticator struct {
	keyDigest    string
	secretDigest string
	configured   bool
}

// NewAuthenticator precomputes the expected digests from the configured
// API key and secret.
func NewAuthenticator(apiKey, apiSecret string) *Authenticator {
	return &Authenticator{
		keyDigest:    sha256Hex(apiKey),
		secretDigest: sha256Hex(apiSecret),
		configured:   apiKey != "" && apiSecret != "",
	}
}

// Verify compares both supplied digests against the expected ones in
// constant time. Either mismatch rejects the notification; an
// unconfigured authenticator fails closed.
func (a *Authenticator) Verify(n *Notification) error {
	if !a.configured {
		return ErrInvalidSignature
	}
	keyOK := subtle.ConstantTimeCompare([]byte(a.keyDigest), []byte(n.APIKeySHA256)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(a.secretDigest), []byte(n.APISecretSHA256)) == 1
	if !keyOK || !secretOK {
		return ErrInvalidSignature
	}
	return nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
