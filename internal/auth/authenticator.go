package auth

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
)

// Authenticator checks admin credentials from the service configuration
// and issues access tokens.
type Authenticator struct {
	hashes map[string]string
	secret string
	ttl    time.Duration
	// dummy is verified for unknown users so both failure paths cost one
	// Argon2id evaluation.
	dummy string
}

// NewAuthenticator builds an Authenticator from the security settings.
func NewAuthenticator(cfg config.SecurityConfig) (*Authenticator, error) {
	a := &Authenticator{
		hashes: make(map[string]string, len(cfg.Admins)),
		secret: cfg.JWT.Secret,
		ttl:    time.Duration(cfg.JWT.AccessTokenTTL) * time.Minute,
	}
	for _, admin := range cfg.Admins {
		if _, _, _, err := decodePHC(admin.PasswordHash); err != nil {
			return nil, fmt.Errorf("admin %q: %w", admin.Username, err)
		}
		a.hashes[admin.Username] = admin.PasswordHash
	}

	dummy, err := HashPassword("sensoradmin-unknown-user")
	if err != nil {
		return nil, err
	}
	a.dummy = dummy
	return a, nil
}

// Login verifies username and password and returns an access token.
func (a *Authenticator) Login(username, password string) (*Token, error) {
	hash, known := a.hashes[username]
	if !known {
		hash = a.dummy
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return nil, err
	}
	if !ok || !known {
		return nil, ErrInvalidCredentials
	}
	return GenerateAccessToken(username, a.secret, a.ttl)
}

// Verify parses an access token issued by Login.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	return ParseToken(token, a.secret)
}

// AdminCount returns the number of configured admins.
func (a *Authenticator) AdminCount() int {
	return len(a.hashes)
}
