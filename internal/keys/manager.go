// Package keys owns the process-scoped signing key material.
//
// Keys are generated once at startup, held only in memory and never
// persisted: a restart invalidates every token issued before it.
// Private keys never leave this package; callers sign and verify
// through the Manager.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
)

// Mode selects which signature algorithms a deployment uses.
type Mode string

const (
	// ModeEd25519 signs tokens with Ed25519 only.
	ModeEd25519 Mode = "ed25519"
	// ModeHybrid signs tokens with Ed25519 and ML-DSA-44 over the same bytes.
	ModeHybrid Mode = "hybrid"
)

// Algorithm tags carried in token headers.
const (
	AlgEdDSA   = "EdDSA"
	AlgMLDSA44 = "ML-DSA-44"
)

// ErrNoSecondaryKey is returned by SignSecondary outside hybrid mode.
var ErrNoSecondaryKey = errors.New("secondary signing key is not configured")

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEd25519, ModeHybrid:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown signature mode %q", s)
	}
}

// PublicKey describes one public key for diagnostics.
type PublicKey struct {
	Algorithm   string
	Key         []byte
	Fingerprint string
}

// Manager holds immutable key material. It is safe for concurrent use.
type Manager struct {
	mode Mode

	primary       ed25519.PrivateKey
	primaryPublic ed25519.PublicKey

	secondary       *mldsa44.PrivateKey
	secondaryPublic *mldsa44.PublicKey
}

// Generate creates key material for mode, reading entropy from random.
// A nil random uses crypto/rand. Any failure leaves no usable Manager.
func Generate(mode Mode, random io.Reader) (*Manager, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if random == nil {
		random = rand.Reader
	}

	m := &Manager{mode: mode}

	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	m.primary, m.primaryPublic = priv, pub

	if mode == ModeHybrid {
		pqPub, pqPriv, err := mldsa44.GenerateKey(random)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ml-dsa-44 key: %w", err)
		}
		m.secondary, m.secondaryPublic = pqPriv, pqPub
	}

	return m, nil
}

// Mode returns the configured signature mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// Hybrid reports whether a secondary signature is produced and required.
func (m *Manager) Hybrid() bool {
	return m.mode == ModeHybrid
}

// SignPrimary signs msg with Ed25519.
func (m *Manager) SignPrimary(msg []byte) ([]byte, error) {
	sig, err := jwt.SigningMethodEdDSA.Sign(string(msg), m.primary)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with ed25519: %w", err)
	}
	return sig, nil
}

// VerifyPrimary reports whether sig is a valid Ed25519 signature of msg.
func (m *Manager) VerifyPrimary(msg, sig []byte) bool {
	return jwt.SigningMethodEdDSA.Verify(string(msg), sig, m.primaryPublic) == nil
}

// SignSecondary signs msg with ML-DSA-44 using an empty context string.
func (m *Manager) SignSecondary(msg []byte) ([]byte, error) {
	if m.secondary == nil {
		return nil, ErrNoSecondaryKey
	}
	sig := make([]byte, mldsa44.SignatureSize)
	if err := mldsa44.SignTo(m.secondary, msg, nil, false, sig); err != nil {
		return nil, fmt.Errorf("failed to sign with ml-dsa-44: %w", err)
	}
	return sig, nil
}

// VerifySecondary reports whether sig is a valid ML-DSA-44 signature of msg.
// It is always false outside hybrid mode.
func (m *Manager) VerifySecondary(msg, sig []byte) bool {
	if m.secondaryPublic == nil || len(sig) != mldsa44.SignatureSize {
		return false
	}
	return mldsa44.Verify(m.secondaryPublic, msg, nil, sig)
}

// PublicKeys returns the public halves of the key material.
func (m *Manager) PublicKeys() []PublicKey {
	out := []PublicKey{{
		Algorithm:   AlgEdDSA,
		Key:         append([]byte(nil), m.primaryPublic...),
		Fingerprint: Fingerprint(m.primaryPublic),
	}}
	if m.secondaryPublic != nil {
		raw, err := m.secondaryPublic.MarshalBinary()
		if err == nil {
			out = append(out, PublicKey{
				Algorithm:   AlgMLDSA44,
				Key:         raw,
				Fingerprint: Fingerprint(raw),
			})
		}
	}
	return out
}

// Fingerprint returns the first 16 hex characters of the BLAKE3 digest of key.
func Fingerprint(key []byte) string {
	sum := blake3.Sum256(key)
	return hex.EncodeToString(sum[:])[:16]
}
