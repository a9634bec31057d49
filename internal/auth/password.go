package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for new hashes. Verification reads the parameters
// stored in each hash, so these can be raised without invalidating
// existing admin entries.
const (
	argonTime    = 3         // passes over memory
	argonMemory  = 64 * 1024 // KiB, so 64 MiB per hash
	argonThreads = 1         // admin logins are rare; keep one core free
	argonKeyLen  = 32        // bytes of derived key
	argonSaltLen = 16        // bytes of random salt

	// MinPasswordLength applies to HashPassword only.
	MinPasswordLength = 8
)

// HashPassword hashes a plaintext password with Argon2id and a fresh
// random salt.
//
// Parameters:
//   - password: plaintext, at least MinPasswordLength bytes
//
// Returns:
//   - the hash in PHC string form, ready for security.admins[].password_hash:
//     $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
//   - ErrWeakPassword if the password is too short
//
// Example:
//
//	hash, err := auth.HashPassword("correct horse battery")
//	// or from the shell: sensoradmin hash-password -
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, MinPasswordLength)
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	params := argonParams{time: argonTime, memory: argonMemory, threads: argonThreads}
	return encodePHC(salt, argonKey(password, salt, params), params), nil
}

// VerifyPassword checks password against a PHC-encoded Argon2id hash.
//
// The comparison is constant-time. A mismatch returns (false, nil); an
// error means the stored hash itself is unusable and wraps ErrInvalidHash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	salt, hash, params, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32
	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

func argonKey(password string, salt []byte, p argonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, argonKeyLen)
}

func encodePHC(salt, hash []byte, p argonParams) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

// decodePHC splits a PHC string into salt, hash and cost parameters.
func decodePHC(encoded string) (salt, hash []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC format has exactly 6 $-delimited parts
		return nil, nil, params, fmt.Errorf("%w: expected 6 fields", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("%w: parsing version: %w", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("%w: parsing parameters: %w", ErrInvalidHash, err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, params, fmt.Errorf("%w: decoding salt: %w", ErrInvalidHash, err)
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, params, fmt.Errorf("%w: decoding hash: %w", ErrInvalidHash, err)
	}
	if len(hash) == 0 {
		return nil, nil, params, fmt.Errorf("%w: empty hash", ErrInvalidHash)
	}
	return salt, hash, params, nil
}
