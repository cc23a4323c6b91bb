package http

import (
	"net/http"

	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type VoteHandler struct {
	service        ports.VoteService
	sessionService ports.SessionService
}

func NewVoteHandler(service ports.VoteService, sessionService ports.SessionService) *VoteHandler {
	return &VoteHandler{
		service:        service,
		sessionService: sessionService,
	}
}

type castVoteRequest struct {
	CandidateID string `json:"candidateId"`
}

// CastVote godoc
// @Summary      Casts a vote
// @Description  Records one vote for a candidate using the voting token from /auth/validate-key, sent in x-auth-token.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400
// @Failure      401
// @Failure      404
// @Failure      409
// @Router       /votes/cast [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		writeFailure(w, http.StatusUnauthorized, "No voting token provided")
		return
	}

	var req castVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CandidateID == "" {
		writeError(w, r, domain.Validationf("candidateId is required"))
		return
	}

	input := ports.CastVoteInput{
		Token:       token,
		CandidateID: req.CandidateID,
	}
	if err := h.service.CastVote(r.Context(), input); err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{"message": "Vote cast successfully"})
}

// Results godoc
// @Summary      Shows the current results
// @Tags         votes
// @Produce      json
// @Success      200
// @Router       /votes/results [get]
func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{
		"candidates": results.Candidates,
		"session":    results.Session,
	})
}

// SessionStatus godoc
// @Summary      Reports whether voting is open
// @Tags         votes
// @Produce      json
// @Success      200
// @Router       /votes/session-status [get]
func (h *VoteHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.sessionService.Status(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{
		"isActive": status.IsActive,
		"session":  status.Session,
	})
}
