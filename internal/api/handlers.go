package api

import (
	"net/http"
	"strconv"

	"github.com/talgya/nationsim/internal/election"
	"github.com/talgya/nationsim/internal/nation"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.Store.Regions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, regions)
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Region ID!")
		return
	}
	region, err := s.Store.Region(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, region)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.Store.Countries(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, countries)
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Country ID!")
		return
	}
	country, err := s.Store.Country(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	owned, err := s.Store.OwnedRegionCount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"country":       country,
		"congressSeats": nation.CongressSeats(owned),
	})
}

func (s *Server) handleCountryElections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Country ID!")
		return
	}
	scope := election.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = election.ScopePresident
	}
	if scope != election.ScopePresident && scope != election.ScopeCongress {
		writeError(w, http.StatusBadRequest, "Unsupported Voting Scope!")
		return
	}
	rounds, err := s.Store.Rounds(r.Context(), scope, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, rounds)
}

func (s *Server) handlePartyElections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Party ID!")
		return
	}
	rounds, err := s.Store.Rounds(r.Context(), election.ScopeParty, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, rounds)
}

// handleRound returns one round with its candidate field and, for
// electoral-college rounds, the per-region audit results.
func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("id")

	cands, err := s.Store.Candidates(r.Context(), roundID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	results, err := s.Store.RegionResults(r.Context(), roundID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	winners, err := s.Store.RoundWinners(r.Context(), roundID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"candidates": cands,
		"results":    results,
		"winners":    winners,
	})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope     election.Scope `json:"scope"`
		Candidate int64          `json:"candidate"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}

	if err := s.Votes.Cast(r.Context(), callerID(r), req.Scope, req.Candidate); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleTravelCost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Src  int64 `json:"src"`
		Dest int64 `json:"dest"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}

	route, err := s.Travel.Quote(r.Context(), req.Src, req.Dest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, route)
}

func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dest int64 `json:"dest"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}

	route, err := s.Travel.Go(r.Context(), callerID(r), req.Dest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "cost": route.Cost, "distance": route.Distance})
}

func (s *Server) handleCandidacyFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope election.Scope `json:"scope"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}
	if err := s.Candidacy.File(r.Context(), callerID(r), req.Scope); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleCandidacyWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope election.Scope `json:"scope"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}
	if err := s.Candidacy.Withdraw(r.Context(), callerID(r), req.Scope); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleCandidacyConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Candidate int64 `json:"candidate"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}
	if err := s.Candidacy.Confirm(r.Context(), callerID(r), req.Candidate); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleCandidacyEndorse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Candidate int64 `json:"candidate"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}
	if err := s.Candidacy.Endorse(r.Context(), callerID(r), req.Candidate); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.Store.Alerts(r.Context(), callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, alerts)
}

// handleSetNeighbors replaces a region's directed neighbor list.
// Administrative seeding only; no reverse edges are implied.
func (s *Server) handleSetNeighbors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid Region ID!")
		return
	}
	var req struct {
		Neighbors []int64 `json:"neighbors"`
	}
	if err := parseBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON!")
		return
	}
	if err := s.Store.SetNeighbors(r.Context(), id, req.Neighbors); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"updated": true})
}

// handleElectionStep runs one scheduler trigger on demand, the manual
// escape hatch for operators and the hook the scheduler tests use.
func (s *Server) handleElectionStep(w http.ResponseWriter, r *http.Request) {
	scope := election.Scope(r.PathValue("scope"))
	step := r.PathValue("step")

	var ok bool
	switch {
	case scope == election.ScopePresident && step == "create":
		ok = s.Scheduler.CreateCountryElections(r.Context())
	case scope == election.ScopePresident && step == "activate":
		ok = s.Scheduler.ActivateCountryElections(r.Context())
	case scope == election.ScopePresident && step == "close":
		ok = s.Scheduler.CloseCountryElections(r.Context())
	case scope == election.ScopeCongress && step == "create":
		ok = s.Scheduler.CreateCongressElections(r.Context())
	case scope == election.ScopeCongress && step == "activate":
		ok = s.Scheduler.ActivateCongressElections(r.Context())
	case scope == election.ScopeCongress && step == "close":
		ok = s.Scheduler.CloseCongressElections(r.Context())
	case scope == election.ScopeParty && step == "create":
		ok = s.Scheduler.CreatePartyElections(r.Context())
	case scope == election.ScopeParty && step == "activate":
		ok = s.Scheduler.ActivatePartyElections(r.Context())
	case scope == election.ScopeParty && step == "close":
		ok = s.Scheduler.ClosePartyElections(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "Unsupported Election Step!")
		return
	}
	writeJSON(w, map[string]bool{"allUpdated": ok})
}
