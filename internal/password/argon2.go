// Package password hashes and verifies user passwords with argon2id.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

var (
	// ErrInvalidHash is returned when an encoded hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid argon2id hash")
	// ErrIncompatibleVersion is returned for hashes produced by another argon2 version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params holds argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are the production cost parameters: 64 MiB, 3 passes, 4 lanes.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2 hashes passwords into PHC strings that embed parameters and salt,
// so verification never depends on the current configuration.
type Argon2 struct {
	params Params
	rand   io.Reader
}

// NewArgon2 creates a hasher with the given parameters.
func NewArgon2(params Params) (*Argon2, error) {
	if params.Memory < 8 || params.Time < 1 || params.Parallelism < 1 {
		return nil, fmt.Errorf("invalid argon2 cost parameters: m=%d t=%d p=%d", params.Memory, params.Time, params.Parallelism)
	}
	if params.SaltLength < 16 || params.KeyLength < 16 {
		return nil, fmt.Errorf("invalid argon2 lengths: salt=%d key=%d", params.SaltLength, params.KeyLength)
	}
	return &Argon2{params: params, rand: rand.Reader}, nil
}

// Hash returns the PHC-encoded argon2id digest of password.
func (a *Argon2) Hash(password string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := io.ReadFull(a.rand, salt); err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.params.Time, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.params.Memory,
		a.params.Time,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the encoded digest.
// The comparison is constant time over the derived key.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker parameters than the hasher's.
func (a *Argon2) NeedsRehash(encoded string) (bool, error) {
	params, _, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return params.Memory < a.params.Memory ||
		params.Time < a.params.Time ||
		params.Parallelism < a.params.Parallelism ||
		uint32(len(key)) != a.params.KeyLength, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return Params{}, nil, nil, ErrIncompatibleVersion
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return Params{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}

func parseParams(s string) (Params, error) {
	var params Params
	pairs := strings.Split(s, ",")
	if len(pairs) != 3 {
		return Params{}, ErrInvalidHash
	}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return Params{}, ErrInvalidHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return Params{}, ErrInvalidHash
		}
		switch k {
		case "m":
			params.Memory = uint32(n)
		case "t":
			params.Time = uint32(n)
		case "p":
			if n > 255 {
				return Params{}, ErrInvalidHash
			}
			params.Parallelism = uint8(n)
		default:
			return Params{}, ErrInvalidHash
		}
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return Params{}, ErrInvalidHash
	}
	return params, nil
}
