package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"comforty/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleLogin checks credentials and issues a session. The token is returned
// in the body and also set as a cookie for browser clients.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.sessions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "authentication is not configured")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessions.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.WarnContext(r.Context(), "Login rejected", "email", req.Email)
			writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	slog.InfoContext(r.Context(), "Session issued", "email", sess.Email)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	})
}

// handleLogout revokes the caller's session, if any.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.sessions == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(sessionCookieName); err == nil {
			token = c.Value
		}
	}
	if token != "" {
		s.sessions.Revoke(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
