package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type AdminHandler struct {
	keyService       ports.KeyService
	candidateService ports.CandidateService
	sessionService   ports.SessionService
	adminService     ports.AdminService
}

func NewAdminHandler(
	keyService ports.KeyService,
	candidateService ports.CandidateService,
	sessionService ports.SessionService,
	adminService ports.AdminService,
) *AdminHandler {
	return &AdminHandler{
		keyService:       keyService,
		candidateService: candidateService,
		sessionService:   sessionService,
		adminService:     adminService,
	}
}

type configureCandidatesRequest struct {
	Candidates []domain.CandidateDescriptor `json:"candidates"`
}

type votingSessionRequest struct {
	Action domain.SessionAction `json:"action"`
}

// GenerateKeys godoc
// @Summary      Issues a new batch of voting keys
// @Description  Replaces every existing key with 36 fresh keys. Keys handed out before stop working.
// @Tags         admin
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /admin/generate-keys [post]
func (h *AdminHandler) GenerateKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keyService.GenerateKeys(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, "generate-keys")
	writeOK(w, envelope{
		"message": "36 voting keys generated successfully",
		"keys":    keys,
	})
}

// ListKeys godoc
// @Summary      Lists voting keys with their usage
// @Tags         admin
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /admin/keys [get]
func (h *AdminHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keyService.ListKeys(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{"keys": keys})
}

// ConfigureCandidates godoc
// @Summary      Replaces the candidate list
// @Description  Accepts between one and three candidates. Tallies restart at zero.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400
// @Failure      401
// @Router       /admin/candidates [post]
func (h *AdminHandler) ConfigureCandidates(w http.ResponseWriter, r *http.Request) {
	var req configureCandidatesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	candidates, err := h.candidateService.Configure(r.Context(), req.Candidates)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, "configure-candidates")
	writeOK(w, envelope{
		"message":    "Candidates updated successfully",
		"candidates": candidates,
	})
}

// VotingSession godoc
// @Summary      Starts or stops the voting session
// @Tags         admin
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400
// @Failure      401
// @Router       /admin/voting-session [post]
func (h *AdminHandler) VotingSession(w http.ResponseWriter, r *http.Request) {
	var req votingSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		session *domain.VotingSession
		message string
		err     error
	)
	switch req.Action {
	case domain.SessionStart:
		session, err = h.sessionService.Start(r.Context())
		message = "Voting session started successfully"
	case domain.SessionStop:
		session, err = h.sessionService.Stop(r.Context())
		message = "Voting session stopped successfully"
	default:
		err = domain.ErrInvalidSessionStep
	}
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			writeFailure(w, http.StatusBadRequest, "No active voting session found")
			return
		}
		writeError(w, r, err)
		return
	}

	h.audit(r, "voting-session-"+string(req.Action))
	writeOK(w, envelope{
		"message": message,
		"session": session,
	})
}

// Stats godoc
// @Summary      Reports key usage, votes and the current session
// @Tags         admin
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{"stats": stats})
}

// Reset godoc
// @Summary      Deletes all keys, candidates, sessions and votes
// @Tags         admin
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /admin/reset [post]
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, "reset")
	writeOK(w, envelope{"message": "All data reset successfully"})
}

func (h *AdminHandler) audit(r *http.Request, action string) {
	username := ""
	if claims := adminFromContext(r.Context()); claims != nil {
		username = claims.Username
	}
	slog.Info("admin action", "action", action, "username", username)
}
