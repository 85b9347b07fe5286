// Package admin implements the shared-secret gate for the booking back
// office: a login endpoint that exchanges the secret for a short-lived
// token, and middleware protecting the admin routes.
package admin

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// Handler issues admin tokens.
type Handler struct {
	secret   string
	tokenTTL time.Duration
	logger   *logging.Logger
}

// NewHandler constructs a Handler. An empty secret disables admin access;
// login then reports a server misconfiguration rather than a bad password.
func NewHandler(secret string, tokenTTL time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Handler{secret: secret, tokenTTL: tokenTTL, logger: logger}
}

// Login handles POST /admin/login. On success the response carries a signed
// token; clients may present either the token or the raw secret as bearer.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("admin login attempted without configured secret")
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Admin not configured"})
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.secret)) != 1 {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid password"})
		return
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
	if err != nil {
		h.logger.Error("admin token signing failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to issue token"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
