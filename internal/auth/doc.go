// Package auth authenticates sensor admin operators.
//
// Operators are listed in the configuration file with Argon2id password
// hashes (PHC strings, produced by `sensoradmin hash-password`). A
// successful login returns a short-lived HS256 JWT that the API accepts as
// a Bearer token. There is no user database and no refresh token; tokens
// expire after security.jwt.access_token_ttl minutes.
package auth
