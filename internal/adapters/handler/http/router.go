package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type Handlers struct {
	Auth           *AuthHandler
	Vote           *VoteHandler
	Candidate      *CandidateHandler
	Admin          *AdminHandler
	Verifier       ports.TokenVerifier
	AllowedOrigins []string
}

func NewHandler(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", tokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeOK(w, envelope{"status": "ok"})
		})
		r.Get("/session-status", h.Vote.SessionStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/validate-key", h.Auth.ValidateKey)
			r.Post("/admin/login", h.Auth.AdminLogin)
		})

		r.Route("/votes", func(r chi.Router) {
			r.Post("/cast", h.Vote.CastVote)
			r.Get("/results", h.Vote.Results)
			r.Get("/session-status", h.Vote.SessionStatus)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Get("/", h.Candidate.ListCandidates)
			r.Get("/{id}", h.Candidate.GetCandidate)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Auth.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin(h.Verifier))
				r.Post("/generate-keys", h.Admin.GenerateKeys)
				r.Get("/keys", h.Admin.ListKeys)
				r.Post("/candidates", h.Admin.ConfigureCandidates)
				r.Post("/voting-session", h.Admin.VotingSession)
				r.Get("/stats", h.Admin.Stats)
				r.Post("/reset", h.Admin.Reset)
			})
		})
	})

	return r
}
