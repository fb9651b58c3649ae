// Package password hashes and verifies credentials with argon2id, encoded
// in the standard PHC string format.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// Config carries the argon2id cost parameters.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig is a reasonable interactive-login cost profile.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords. Immutable after construction.
type Hasher struct {
	config Config
}

// NewHasher validates the cost parameters and returns a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password memory must be >= 8192 KB")
	case cfg.Time < minTimeCost:
		return nil, errors.New("password time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password key length must be >= 16")
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives an argon2id hash of password and encodes it as a PHC string.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an encoded hash in constant time.
// A corrupt or foreign-algorithm hash is an error, not a mismatch: the
// caller must be able to tell a data-integrity bug from a wrong password.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, key, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		params.time,
		params.memory,
		params.parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

type phcParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parsePHC(encodedHash string) (phcParams, []byte, []byte, error) {
	var params phcParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return params, nil, nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return params, nil, nil, errors.New("unsupported algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return params, nil, nil, errors.New("unsupported argon2 version")
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.parallelism); err != nil {
		return params, nil, nil, errors.New("invalid parameter format")
	}
	if params.memory < minMemoryKB || params.time < minTimeCost || params.parallelism < minParallelism {
		return params, nil, nil, errors.New("parameters below minimum cost")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return params, nil, nil, errors.New("invalid salt")
	}

	key, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errors.New("invalid hash")
	}

	return params, salt, key, nil
}
