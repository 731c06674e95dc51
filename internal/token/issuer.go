package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/homestock-server/internal/keys"
)

// Signer produces the primary and, in hybrid mode, the secondary signature.
type Signer interface {
	Hybrid() bool
	SignPrimary(msg []byte) ([]byte, error)
	SignSecondary(msg []byte) ([]byte, error)
}

// Options configures an Issuer.
type Options struct {
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      func() time.Time
}

// Issuer builds and signs tokens.
type Issuer struct {
	signer   Signer
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewIssuer creates an Issuer. A zero TTL means DefaultTTL.
func NewIssuer(signer Signer, opts Options) *Issuer {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Issuer{
		signer:   signer,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      opts.TTL,
		now:      opts.Now,
		newID:    uuid.NewString,
	}
}

// TTL returns the default token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a token for subject. A non-positive ttl uses the issuer default.
func (i *Issuer) Issue(subject string, userID uuid.UUID, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = i.ttl
	}
	if ttl < time.Second {
		return Token{}, fmt.Errorf("ttl %s is shorter than one second", ttl)
	}

	issuedAt := i.now().Unix()
	claims := Claims{
		Subject:   subject,
		UserID:    userID.String(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + int64(ttl/time.Second),
		Issuer:    i.issuer,
		Audience:  i.audience,
		ID:        i.newID(),
	}
	header := expectedHeader(i.signer.Hybrid())

	input := Canon(header, claims)
	signature, err := i.signer.SignPrimary(input)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	if i.signer.Hybrid() {
		// The secondary signature covers the primary signing input verbatim.
		header.Sig2, err = i.signer.SignSecondary(input)
		if err != nil {
			return Token{}, fmt.Errorf("failed to sign token: %w", err)
		}
	}

	return Token{
		Raw:       assemble(header, claims, signature),
		Header:    header,
		Claims:    claims,
		Signature: signature,
	}, nil
}

func assemble(header Header, claims Claims, signature []byte) string {
	var b strings.Builder
	b.Write(encodeSegment(header.members(true)))
	b.WriteByte('.')
	b.Write(encodeSegment(claims.members()))
	b.WriteByte('.')
	b.WriteString(segmentEncoding.EncodeToString(signature))
	return b.String()
}

func expectedHeader(hybrid bool) Header {
	h := Header{Alg: keys.AlgEdDSA, Typ: typeJWT}
	if hybrid {
		h.Alg2 = keys.AlgMLDSA44
	}
	return h
}
