package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

type wireHeader struct {
	Alg  string `json:"alg"`
	Alg2 string `json:"alg2"`
	Typ  string `json:"typ"`
	Sig2 string `json:"sig2"`
}

// Parse splits raw into its parts without checking any signature.
// Segments must be the canonical encoding of their decoded values.
func Parse(raw string) (Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Token{}, malformed("expected three segments")
	}

	var wh wireHeader
	if err := decodeSegment(parts[0], &wh); err != nil {
		return Token{}, malformed("header: %v", err)
	}
	header := Header{Alg: wh.Alg, Alg2: wh.Alg2, Typ: wh.Typ}
	if wh.Sig2 != "" {
		sig2, err := segmentEncoding.Strict().DecodeString(wh.Sig2)
		if err != nil {
			return Token{}, malformed("secondary signature: %v", err)
		}
		header.Sig2 = sig2
	}
	if string(encodeSegment(header.members(true))) != parts[0] {
		return Token{}, malformed("header is not canonical")
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return Token{}, malformed("claims: %v", err)
	}
	if string(encodeSegment(claims.members())) != parts[1] {
		return Token{}, malformed("claims are not canonical")
	}
	if err := claims.validate(); err != nil {
		return Token{}, malformed("claims: %v", err)
	}

	signature, err := segmentEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return Token{}, malformed("signature: %v", err)
	}

	return Token{Raw: raw, Header: header, Claims: claims, Signature: signature}, nil
}

func decodeSegment(segment string, v any) error {
	raw, err := segmentEncoding.Strict().DecodeString(segment)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data")
	}
	return nil
}

func (c Claims) validate() error {
	switch {
	case c.Subject == "":
		return errors.New("missing sub")
	case c.UserID == "":
		return errors.New("missing uid")
	case c.ID == "":
		return errors.New("missing jti")
	case c.Issuer == "":
		return errors.New("missing iss")
	case c.Audience == "":
		return errors.New("missing aud")
	case c.IssuedAt <= 0:
		return errors.New("missing iat")
	case c.ExpiresAt <= c.IssuedAt:
		return errors.New("exp must be after iat")
	}
	return nil
}
