// Package token issues and verifies signed access tokens.
//
// Wire format: three unpadded base64url segments, header.claims.signature.
// In hybrid mode the header additionally carries "sig2", the ML-DSA
// signature over exactly the bytes the primary signature covers.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 30 * time.Minute

const typeJWT = "JWT"

// Header is the token header. Sig2 is excluded from every signing input.
type Header struct {
	Alg  string
	Alg2 string
	Typ  string
	Sig2 []byte
}

func (h Header) members(withSecondary bool) map[string]any {
	m := map[string]any{"alg": h.Alg, "typ": h.Typ}
	if h.Alg2 != "" {
		m["alg2"] = h.Alg2
	}
	if withSecondary && len(h.Sig2) > 0 {
		m["sig2"] = segmentEncoding.EncodeToString(h.Sig2)
	}
	return m
}

// Signed returns the header without the secondary signature block.
func (h Header) Signed() Header {
	h.Sig2 = nil
	return h
}

// Claims are the registered claims carried by every token.
// UserID binds the token to the account that held Subject at issuance.
type Claims struct {
	Subject   string `json:"sub"`
	UserID    string `json:"uid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
	Audience  string `json:"aud"`
	ID        string `json:"jti"`
}

func (c Claims) members() map[string]any {
	return map[string]any{
		"sub": c.Subject,
		"uid": c.UserID,
		"iat": c.IssuedAt,
		"exp": c.ExpiresAt,
		"iss": c.Issuer,
		"aud": c.Audience,
		"jti": c.ID,
	}
}

// Expiry returns the exp claim as a time.
func (c Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Token is an issued token together with its decoded parts.
type Token struct {
	Raw       string
	Header    Header
	Claims    Claims
	Signature []byte
}

// Kind classifies a verification failure for internal diagnostics.
type Kind int

const (
	KindMalformed Kind = iota + 1
	KindBadSignature
	KindExpired
	KindRevoked
	KindUnknownSubject
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	case KindRevoked:
		return "revoked"
	case KindUnknownSubject:
		return "unknown_subject"
	default:
		return "unknown"
	}
}

var (
	ErrRevoked        = errors.New("token is revoked")
	ErrUnknownSubject = errors.New("token subject is unknown")
)

// Failure is a rejected verification. It must never be surfaced to clients
// as is; callers collapse it into a single unauthenticated result.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("token rejected (%s): %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func malformed(format string, args ...any) *Failure {
	return &Failure{Kind: KindMalformed, Err: fmt.Errorf("%w: "+format, append([]any{jwt.ErrTokenMalformed}, args...)...)}
}

func badSignature(cause error) *Failure {
	return &Failure{Kind: KindBadSignature, Err: cause}
}

// KindOf returns the failure kind of err, or 0 if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
