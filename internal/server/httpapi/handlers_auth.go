package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "invalid login request", err)
		return
	}
	if strings.TrimSpace(body.Username) == "" || body.Password == "" {
		s.writeError(w, r, "username and password are required", &requestError{msg: "username and password are required"})
		return
	}

	token, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		s.writeError(w, r, "invalid credentials", err)
		return
	}
	writeOK(w, http.StatusOK, "Login successful", loginResult{Token: token, TokenType: "Bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := AdminIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, "missing access token", common.ErrorUnauthorized)
		return
	}
	admin, err := s.auth.Me(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "admin not found", err)
		return
	}
	writeOK(w, http.StatusOK, "Admin retrieved successfully", map[string]any{"admin": admin})
}

// handleLogout only acknowledges; tokens are stateless and dropped by the
// client.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "Logout successful", nil)
}
