// Package password hashes and verifies credentials with argon2id using the
// PHC string format, so parameters travel with each stored hash and can be
// tuned without invalidating existing credentials.
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

const (
	minPasswordBytes = 8
	algorithmID      = "argon2id"
)

// Config holds the argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher derives and verifies argon2id hashes with a fixed parameter set.
type Hasher struct {
	config Config
}

// New validates cfg and returns a [Hasher].
func New(cfg Config) (*Hasher, error) {
	if cfg.Memory < 8*1024 || cfg.Time < 1 || cfg.Parallelism < 1 {
		return nil, errors.New("password: argon2 cost parameters below minimum")
	}
	if cfg.SaltLength < 16 || cfg.KeyLength < 16 {
		return nil, errors.New("password: salt and key must be at least 16 bytes")
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a PHC-encoded argon2id hash from password.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPasswordBytes {
		return "", errors.New("password too short")
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
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
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant-time; parameters come from the stored hash, not the Hasher.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	memory, timeCost, parallelism, salt, hash, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		timeCost,
		memory,
		parallelism,
		uint32(len(hash)),
	)

	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

func parsePHC(encoded string) (memory, timeCost uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, errors.New("password: unrecognized hash format")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, errors.New("password: malformed version")
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("password: incompatible argon2 version")
	}

	for _, param := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(param, "=", 2)
		if len(kv) != 2 {
			return 0, 0, 0, nil, nil, errors.New("password: malformed parameters")
		}
		n, convErr := strconv.ParseUint(kv[1], 10, 32)
		if convErr != nil {
			return 0, 0, 0, nil, nil, errors.New("password: malformed parameters")
		}
		switch kv[0] {
		case "m":
			memory = uint32(n)
		case "t":
			timeCost = uint32(n)
		case "p":
			parallelism = uint8(n)
		}
	}
	if memory == 0 || timeCost == 0 || parallelism == 0 {
		return 0, 0, 0, nil, nil, errors.New("password: missing parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, errors.New("password: malformed salt")
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, errors.New("password: malformed hash")
	}

	return memory, timeCost, parallelism, salt, hash, nil
}
