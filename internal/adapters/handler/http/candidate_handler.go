package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type CandidateHandler struct {
	service ports.CandidateService
}

func NewCandidateHandler(service ports.CandidateService) *CandidateHandler {
	return &CandidateHandler{
		service: service,
	}
}

// ListCandidates godoc
// @Summary      Lists candidates in ballot order
// @Tags         candidates
// @Produce      json
// @Success      200
// @Router       /candidates [get]
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.ListCandidates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{"candidates": candidates})
}

// GetCandidate godoc
// @Summary      Retrieves a candidate
// @Tags         candidates
// @Produce      json
// @Param        id   path      string  true  "Candidate ID"
// @Success      200
// @Failure      404
// @Router       /candidates/{id} [get]
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	candidate, err := h.service.GetCandidate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, envelope{"candidate": candidate})
}
