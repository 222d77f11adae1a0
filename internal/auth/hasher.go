package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 16
	keyLength  = 32
)

// Hasher derives password hashes with argon2id. The cost parameters are set
// at construction and recorded inside every hash it produces in the standard
// PHC form ($argon2id$v=19$m=...,t=...,p=...$key), so verification always
// replays the parameters a credential was created with: raising the cost for
// new accounts invalidates no existing hash.
type Hasher struct {
	time     uint32
	memoryKB uint32
	threads  uint8
}

func NewHasher(time, memoryKB uint32, threads uint8) *Hasher {
	if time == 0 {
		time = 1
	}
	if memoryKB == 0 {
		memoryKB = 64 * 1024
	}
	if threads == 0 {
		threads = 4
	}
	return &Hasher{time: time, memoryKB: memoryKB, threads: threads}
}

// Hash generates a fresh random salt and returns the parameter-annotated
// hash string and the base64-encoded salt.
func (h *Hasher) Hash(password string) (hash, salt string, err error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), raw, h.time, h.memoryKB, h.threads, keyLength)
	hash = fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, h.memoryKB, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(key))
	return hash, base64.RawStdEncoding.EncodeToString(raw), nil
}

// Verify recomputes the hash with the stored salt and the parameters recorded
// in the stored hash, then compares in constant time. Any decoding failure
// counts as a mismatch.
func (h *Hasher) Verify(password, storedHash, storedSalt string) bool {
	params, rawHash, err := decodeHash(storedHash)
	if err != nil {
		return false
	}
	rawSalt, err := base64.RawStdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(password), rawSalt, params.time, params.memoryKB, params.threads, uint32(len(rawHash)))
	return subtle.ConstantTimeCompare(key, rawHash) == 1
}

type hashParams struct {
	time     uint32
	memoryKB uint32
	threads  uint8
}

func decodeHash(encoded string) (hashParams, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "argon2id" {
		return hashParams{}, nil, errors.New("malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return hashParams{}, nil, errors.New("unsupported argon2 version")
	}

	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return hashParams{}, nil, errors.New("malformed password hash parameters")
	}
	if m < 1 || t < 1 || p < 1 || p > 255 {
		return hashParams{}, nil, errors.New("password hash parameters out of range")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return hashParams{}, nil, errors.New("malformed password hash key")
	}

	return hashParams{time: uint32(t), memoryKB: uint32(m), threads: uint8(p)}, key, nil
}
