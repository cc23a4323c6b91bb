package http

import (
	"net/http"
	"strings"

	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type validateKeyRequest struct {
	Key       string `json:"key"`
	VotingKey string `json:"votingKey"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValidateKey godoc
// @Summary      Redeems a voting key
// @Description  Checks a 32 character voting key and returns a voting token valid for one hour. The key is only consumed when a vote is cast.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400
// @Failure      404
// @Router       /auth/validate-key [post]
func (h *AuthHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	var req validateKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	key := req.Key
	if strings.TrimSpace(key) == "" {
		key = req.VotingKey
	}

	token, err := h.authService.RedeemKey(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{
		"token":   token,
		"message": "Key validated successfully",
	})
}

// AdminLogin godoc
// @Summary      Logs the administrator in
// @Description  Returns an admin token valid for 24 hours. The username defaults to the configured admin when omitted.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400
// @Failure      401
// @Router       /admin/login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.authService.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{
		"token":   token,
		"message": "Login successful",
	})
}
