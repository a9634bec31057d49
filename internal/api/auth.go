package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/audit"
	"github.com/nerrad567/gray-logic-sensors/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleLogin checks admin credentials and returns an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("login failed", "username", req.Username)
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login error", "username", req.Username, "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	s.auditLog(audit.ActionLogin, audit.EntitySession, "", req.Username, nil)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   int(time.Until(token.ExpiresAt).Seconds()),
		ExpiresAt:   token.ExpiresAt,
	})
}

// handleMe returns the admin the bearer token belongs to.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"username": usernameFrom(r.Context()),
	})
}
