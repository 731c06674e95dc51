package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/homestock-server/internal/model"
)

// KeyVerifier checks signatures against the process key material.
type KeyVerifier interface {
	Hybrid() bool
	VerifyPrimary(msg, sig []byte) bool
	VerifySecondary(msg, sig []byte) bool
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// SubjectResolver looks up the account a token subject names.
type SubjectResolver interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// Verifier validates tokens issued by an Issuer sharing the same key material.
type Verifier struct {
	keys     KeyVerifier
	ledger   RevocationChecker
	users    SubjectResolver
	issuer   string
	audience string
}

// NewVerifier creates a Verifier expecting the given iss and aud values.
func NewVerifier(keys KeyVerifier, ledger RevocationChecker, users SubjectResolver, issuer, audience string) *Verifier {
	return &Verifier{
		keys:     keys,
		ledger:   ledger,
		users:    users,
		issuer:   issuer,
		audience: audience,
	}
}

// Verify runs every check in order and returns the resolved identity.
// Rejections are *Failure values; storage errors are returned wrapped and
// must be treated as rejections by the caller.
func (v *Verifier) Verify(ctx context.Context, raw string, now time.Time) (model.Identity, error) {
	tok, err := Parse(raw)
	if err != nil {
		return model.Identity{}, err
	}

	input, err := v.checkPrimary(tok)
	if err != nil {
		return model.Identity{}, err
	}
	if err := v.checkAudience(tok.Claims); err != nil {
		return model.Identity{}, err
	}
	if !now.Before(tok.Claims.Expiry()) {
		return model.Identity{}, &Failure{Kind: KindExpired, Err: jwt.ErrTokenExpired}
	}
	if err := v.checkSecondary(tok, input); err != nil {
		return model.Identity{}, err
	}

	revoked, err := v.ledger.Contains(ctx, tok.Claims.ID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return model.Identity{}, &Failure{Kind: KindRevoked, Err: ErrRevoked}
	}

	user, err := v.users.GetByUsername(ctx, tok.Claims.Subject)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, &Failure{Kind: KindUnknownSubject, Err: ErrUnknownSubject}
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to resolve subject: %w", err)
	}
	if user.ID.String() != tok.Claims.UserID {
		return model.Identity{}, &Failure{Kind: KindUnknownSubject, Err: ErrUnknownSubject}
	}

	return model.Identity{
		UserID:   user.ID,
		Username: user.Username,
		TokenID:  tok.Claims.ID,
		Expiry:   tok.Claims.Expiry(),
	}, nil
}

// Inspect checks structure, signatures, issuer and audience but not expiry,
// revocation or subject. Logout uses it to learn what to revoke.
func (v *Verifier) Inspect(raw string) (Claims, error) {
	tok, err := Parse(raw)
	if err != nil {
		return Claims{}, err
	}
	input, err := v.checkPrimary(tok)
	if err != nil {
		return Claims{}, err
	}
	if err := v.checkAudience(tok.Claims); err != nil {
		return Claims{}, err
	}
	if err := v.checkSecondary(tok, input); err != nil {
		return Claims{}, err
	}
	return tok.Claims, nil
}

func (v *Verifier) checkPrimary(tok Token) ([]byte, error) {
	want := expectedHeader(v.keys.Hybrid())
	signed := tok.Header.Signed()
	if signed.Alg != want.Alg || signed.Alg2 != want.Alg2 || signed.Typ != want.Typ {
		return nil, badSignature(fmt.Errorf("%w: unexpected algorithm set", jwt.ErrTokenSignatureInvalid))
	}
	if !v.keys.Hybrid() && len(tok.Header.Sig2) > 0 {
		return nil, badSignature(fmt.Errorf("%w: unexpected secondary signature", jwt.ErrTokenSignatureInvalid))
	}

	input := Canon(signed, tok.Claims)
	if !v.keys.VerifyPrimary(input, tok.Signature) {
		return nil, badSignature(jwt.ErrTokenSignatureInvalid)
	}
	return input, nil
}

func (v *Verifier) checkAudience(c Claims) error {
	if c.Issuer != v.issuer {
		return badSignature(jwt.ErrTokenInvalidIssuer)
	}
	if c.Audience != v.audience {
		return badSignature(jwt.ErrTokenInvalidAudience)
	}
	return nil
}

func (v *Verifier) checkSecondary(tok Token, input []byte) error {
	if !v.keys.Hybrid() {
		return nil
	}
	if len(tok.Header.Sig2) == 0 {
		return badSignature(fmt.Errorf("%w: missing secondary signature", jwt.ErrTokenSignatureInvalid))
	}
	if !v.keys.VerifySecondary(input, tok.Header.Sig2) {
		return badSignature(fmt.Errorf("%w: secondary signature", jwt.ErrTokenSignatureInvalid))
	}
	return nil
}
