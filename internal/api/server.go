// Package api provides the HTTP API for the nation simulation backend.
// GET endpoints are public (read-only observation). Player actions
// require a bearer token; administrative endpoints require a static
// admin key.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/store"
	"github.com/talgya/nationsim/internal/world"
)

// Server serves the game state over HTTP.
type Server struct {
	Store     *store.Store
	Scheduler *engine.Scheduler
	Votes     *engine.Votes
	Travel    *engine.Travel
	Candidacy *engine.Candidacy

	Port      int
	JWTSecret string
	AdminKey  string // Bearer token for admin endpoints. Empty = admin disabled.
}

// Handler builds the route table. Exposed separately from Start so
// tests can drive the mux through httptest.
func (s *Server) Handler() http.Handler {
	// Path queries rebuild the whole region graph; keep them bounded.
	travelLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public read-only endpoints.
	mux.HandleFunc("GET /api/v1/regions", s.handleRegions)
	mux.HandleFunc("GET /api/v1/region/{id}", s.handleRegion)
	mux.HandleFunc("GET /api/v1/countries", s.handleCountries)
	mux.HandleFunc("GET /api/v1/country/{id}", s.handleCountry)
	mux.HandleFunc("GET /api/v1/country/{id}/elections", s.handleCountryElections)
	mux.HandleFunc("GET /api/v1/party/{id}/elections", s.handlePartyElections)
	mux.HandleFunc("GET /api/v1/round/{id}", s.handleRound)

	// Travel pricing is public; the graph walk is rate limited.
	mux.HandleFunc("POST /api/v1/travel/cost", RateLimitMiddleware(travelLimiter, s.handleTravelCost))

	// Player actions.
	mux.HandleFunc("POST /api/v1/vote", s.authRequired(s.handleVote))
	mux.HandleFunc("POST /api/v1/travel", s.authRequired(s.handleTravel))
	mux.HandleFunc("POST /api/v1/candidacy", s.authRequired(s.handleCandidacyFile))
	mux.HandleFunc("POST /api/v1/candidacy/withdraw", s.authRequired(s.handleCandidacyWithdraw))
	mux.HandleFunc("POST /api/v1/candidacy/confirm", s.authRequired(s.handleCandidacyConfirm))
	mux.HandleFunc("POST /api/v1/candidacy/endorse", s.authRequired(s.handleCandidacyEndorse))
	mux.HandleFunc("GET /api/v1/alerts", s.authRequired(s.handleAlerts))

	// Admin control plane.
	mux.HandleFunc("POST /api/v1/region/{id}/neighbors", s.adminOnly(s.handleSetNeighbors))
	mux.HandleFunc("POST /api/v1/elections/{scope}/{step}", s.adminOnly(s.handleElectionStep))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func parseBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeDomainError maps domain errors onto the HTTP taxonomy: missing
// entities are 404, request-shaped failures are 400, everything else is
// an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not Found!")
	case errors.Is(err, engine.ErrNoActiveRound):
		writeError(w, http.StatusNotFound, "No Active Election!")
	case errors.Is(err, engine.ErrNoFilingRound):
		writeError(w, http.StatusNotFound, "No Election Accepting Candidates!")
	case errors.Is(err, world.ErrUnknownRegion):
		writeError(w, http.StatusNotFound, "Region Not Found!")
	case errors.Is(err, world.ErrNoRoute):
		// A missing route is a domain result, not a server fault.
		writeError(w, http.StatusNotFound, "No Route Between Regions!")
	case errors.Is(err, engine.ErrUnsupportedScope):
		writeError(w, http.StatusBadRequest, "Unsupported Voting Scope!")
	case errors.Is(err, engine.ErrVoteCooldown):
		writeError(w, http.StatusBadRequest, "Already Voted Today!")
	case errors.Is(err, engine.ErrAlreadyVoted):
		writeError(w, http.StatusBadRequest, "Already Voted in this Election!")
	case errors.Is(err, engine.ErrNotPartyMember):
		writeError(w, http.StatusBadRequest, "You are not a Party Member!")
	case errors.Is(err, engine.ErrNotPartyPresident):
		writeError(w, http.StatusBadRequest, "You are not a Party President!")
	case errors.Is(err, engine.ErrSameRegion):
		writeError(w, http.StatusBadRequest, "Already Located In Region!")
	case errors.Is(err, engine.ErrInsufficientGold):
		writeError(w, http.StatusBadRequest, "Insufficient Funds!")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "Already Submitted!")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Something Went Wrong!")
	}
}
