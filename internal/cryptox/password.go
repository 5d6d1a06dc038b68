// Package cryptox implements password hashing for taskkeeper.
//
// New hashes use Argon2id encoded in the PHC string format
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt>$<key>
//
// with unpadded standard base64 for salt and key. Stored bcrypt hashes
// ($2a$, $2b$, $2y$) are still accepted; a successful match against one
// yields a replacement Argon2id hash for the caller to persist.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argon2Version = argon2.Version

// ErrInvalidHash is returned when a stored hash cannot be parsed or uses an
// unsupported algorithm.
var ErrInvalidHash = errors.New("invalid password hash")

// Argon2idParams tunes the primary algorithm.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the parameters used for new hashes.
func DefaultParams() Argon2idParams {
	par := runtime.NumCPU()
	if par > 4 {
		par = 4
	}
	if par < 1 {
		par = 1
	}
	return Argon2idParams{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: uint8(par),
		SaltLength:  16,
		KeyLength:   32,
	}
}

// PasswordHasher hashes and verifies passwords. It is safe for concurrent use.
type PasswordHasher struct {
	params Argon2idParams
	dummy  string
}

// NewPasswordHasher builds a hasher with the given parameters. A hash of a
// throwaway password is computed up front for DummyVerify.
func NewPasswordHasher(params Argon2idParams) (*PasswordHasher, error) {
	h := &PasswordHasher{params: params}
	dummy, err := h.Hash("dummy-password-for-timing-only")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Hash returns an Argon2id PHC string for password. Each call uses a fresh
// random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.params.MemoryKiB, h.params.Iterations, h.params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// VerifyAndUpgrade checks password against stored. On a match it may also
// return a new Argon2id hash when stored was produced by bcrypt or by weaker
// Argon2id parameters; upgraded is empty otherwise. A mismatch is not an
// error: it returns (false, "", nil).
func (h *PasswordHasher) VerifyAndUpgrade(password, stored string) (matched bool, upgraded string, err error) {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		params, salt, expected, err := decodeArgon2id(stored)
		if err != nil {
			return false, "", err
		}
		if !withinBounds(params, h.params) {
			return false, "", ErrInvalidHash
		}
		key := argon2.IDKey([]byte(password), salt,
			params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected)))
		if subtle.ConstantTimeCompare(key, expected) != 1 {
			return false, "", nil
		}
		if !weaker(params, h.params) {
			return true, "", nil
		}

	case isBcrypt(stored):
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, "", nil
		}
		if err != nil {
			return false, "", ErrInvalidHash
		}

	default:
		return false, "", ErrInvalidHash
	}

	upgraded, err = h.Hash(password)
	if err != nil {
		return true, "", err
	}
	return true, upgraded, nil
}

// DummyVerify burns the same work as a real verification. Call it when the
// account does not exist so response time does not reveal that.
func (h *PasswordHasher) DummyVerify(password string) {
	_, _, _ = h.VerifyAndUpgrade(password, h.dummy)
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// weaker reports whether got costs less than want.
func weaker(got, want Argon2idParams) bool {
	return got.MemoryKiB < want.MemoryKiB ||
		got.Iterations < want.Iterations ||
		got.KeyLength < want.KeyLength
}

// withinBounds rejects attacker-supplied parameters far above our own.
func withinBounds(got, limits Argon2idParams) bool {
	if got.MemoryKiB > limits.MemoryKiB*2 || got.Iterations > limits.Iterations*2 {
		return false
	}
	if uint32(got.Parallelism) > uint32(limits.Parallelism)*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	return got.KeyLength >= 16 && got.KeyLength <= 128
}

func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	return Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, nil
}
