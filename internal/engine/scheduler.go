package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/nationsim/internal/election"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/store"
)

// Monthly election calendar, day-of-month in UTC. Each scope gets two
// triggers: activation, then close plus creation of the next cycle's
// round on the following day.
const (
	DayActivateCountry  = 5
	DayCloseCountry     = 6
	DayActivateCongress = 15
	DayCloseCongress    = 16
	DayActivateParty    = 25
	DayCloseParty       = 26
)

// PresidentGoldBonus is credited to a winning country president.
const PresidentGoldBonus = 5.0

// Scheduler runs the time-triggered election state machine across every
// country and party. Triggers fire on a single timeline; entities within
// a trigger are processed concurrently and independently, so one
// country's failure never blocks the rest of the batch.
type Scheduler struct {
	store *store.Store

	// Now is the clock, swappable in tests.
	Now func() time.Time

	lastRun string // Last UTC day the calendar was evaluated
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(st *store.Store) *Scheduler {
	return &Scheduler{store: st, Now: time.Now}
}

// Run blocks, evaluating the calendar once per UTC day until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("election scheduler started")
	s.RunDue(ctx, s.Now())

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("election scheduler stopped")
			return
		case <-ticker.C:
			s.RunDue(ctx, s.Now())
		}
	}
}

// RunDue fires whichever calendar triggers land on now's UTC day. At
// most one evaluation happens per day.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if day == s.lastRun {
		return
	}
	s.lastRun = day

	switch now.UTC().Day() {
	case DayActivateCountry:
		s.ActivateCountryElections(ctx)
	case DayCloseCountry:
		s.CloseCountryElections(ctx)
		s.CreateCountryElections(ctx)
	case DayActivateCongress:
		s.ActivateCongressElections(ctx)
	case DayCloseCongress:
		s.CloseCongressElections(ctx)
		s.CreateCongressElections(ctx)
	case DayActivateParty:
		s.ActivatePartyElections(ctx)
	case DayCloseParty:
		s.ClosePartyElections(ctx)
		s.CreatePartyElections(ctx)
	}
}

// batch runs fn once per entity on its own goroutine, joins the whole
// set, and reports whether every entity updated cleanly. Individual
// failures are logged and the rest of the batch proceeds.
func (s *Scheduler) batch(ctx context.Context, label string, ids []int64, fn func(ctx context.Context, id int64) error) bool {
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := fn(ctx, id); err != nil {
				failed.Add(1)
				slog.Error("election batch entity failed", "step", label, "entity", id, "error", err)
			}
		}(id)
	}
	wg.Wait()

	allUpdated := failed.Load() == 0
	if allUpdated {
		slog.Info(label, "entities", len(ids))
	} else {
		slog.Warn(label+" (partial)", "entities", len(ids), "failed", failed.Load())
	}
	return allUpdated
}

func (s *Scheduler) countryIDs(ctx context.Context) ([]int64, error) {
	countries, err := s.store.Countries(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(countries))
	for _, c := range countries {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *Scheduler) partyIDs(ctx context.Context) ([]int64, error) {
	parties, err := s.store.Parties(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// createRound opens the next cycle's filing round for one entity unless
// one is already open, which keeps the trigger idempotent.
func (s *Scheduler) createRound(ctx context.Context, scope election.Scope, entityID int64) error {
	if _, err := s.store.RoundByStatus(ctx, scope, entityID, election.StatusFiling); err == nil {
		return nil
	}
	return s.store.CreateRound(ctx, &election.Round{
		ID:         uuid.NewString(),
		Scope:      scope,
		EntityID:   entityID,
		Status:     election.StatusFiling,
		TargetDate: election.TargetDate(s.Now()),
		CreatedAt:  s.Now().UTC(),
	})
}

// CreateCountryElections opens a presidential filing round in every country.
func (s *Scheduler) CreateCountryElections(ctx context.Context) bool {
	ids, err := s.countryIDs(ctx)
	if err != nil {
		slog.Error("list countries", "error", err)
		return false
	}
	return s.batch(ctx, "country president elections created", ids, func(ctx context.Context, id int64) error {
		return s.createRound(ctx, election.ScopePresident, id)
	})
}

// CreateCongressElections opens a congress filing round in every country.
func (s *Scheduler) CreateCongressElections(ctx context.Context) bool {
	ids, err := s.countryIDs(ctx)
	if err != nil {
		slog.Error("list countries", "error", err)
		return false
	}
	return s.batch(ctx, "congress elections created", ids, func(ctx context.Context, id int64) error {
		return s.createRound(ctx, election.ScopeCongress, id)
	})
}

// CreatePartyElections opens a president filing round in every party.
func (s *Scheduler) CreatePartyElections(ctx context.Context) bool {
	ids, err := s.partyIDs(ctx)
	if err != nil {
		slog.Error("list parties", "error", err)
		return false
	}
	return s.batch(ctx, "party president elections created", ids, func(ctx context.Context, id int64) error {
		return s.createRound(ctx, election.ScopeParty, id)
	})
}

// ActivateCountryElections opens voting on every country's filing
// presidential round. The country's voting system is snapshotted into
// the round so a mid-cycle change cannot alter the race in progress.
func (s *Scheduler) ActivateCountryElections(ctx context.Context) bool {
	countries, err := s.store.Countries(ctx)
	if err != nil {
		slog.Error("list countries", "error", err)
		return false
	}
	systems := make(map[int64]string, len(countries))
	ids := make([]int64, 0, len(countries))
	for _, c := range countries {
		systems[c.ID] = c.VotingSystem
		ids = append(ids, c.ID)
	}
	return s.batch(ctx, "country president elections activated", ids, func(ctx context.Context, id int64) error {
		return s.activateRound(ctx, election.ScopePresident, id, systems[id])
	})
}

// ActivateCongressElections opens voting on every country's filing
// congress round, dropping unconfirmed candidates from the ballot.
func (s *Scheduler) ActivateCongressElections(ctx context.Context) bool {
	ids, err := s.countryIDs(ctx)
	if err != nil {
		slog.Error("list countries", "error", err)
		return false
	}
	return s.batch(ctx, "congress elections activated", ids, func(ctx context.Context, id int64) error {
		return s.activateRound(ctx, election.ScopeCongress, id, "")
	})
}

// ActivatePartyElections opens voting on every party's filing round.
func (s *Scheduler) ActivatePartyElections(ctx context.Context) bool {
	ids, err := s.partyIDs(ctx)
	if err != nil {
		slog.Error("list parties", "error", err)
		return false
	}
	return s.batch(ctx, "party president elections activated", ids, func(ctx context.Context, id int64) error {
		return s.activateRound(ctx, election.ScopeParty, id, "")
	})
}

func (s *Scheduler) activateRound(ctx context.Context, scope election.Scope, entityID int64, system string) error {
	r, err := s.store.RoundByStatus(ctx, scope, entityID, election.StatusFiling)
	if err != nil {
		if err == store.ErrNotFound {
			return nil // Nothing filed this cycle
		}
		return err
	}
	return s.store.ActivateRound(ctx, r, system)
}

// CloseCountryElections tallies and finishes every country's active
// presidential round, installing the winner.
func (s *Scheduler) CloseCountryElections(ctx context.Context) bool {
	countries, err := s.store.Countries(ctx)
	if err != nil {
		slog.Error("list countries", "error", err)
		return false
	}
	byID := make(map[int64]*nation.Country, len(countries))
	ids := make([]int64, 0, len(countries))
	for _, c := range countries {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	return s.batch(ctx, "country president elections concluded", ids, func(ctx context.Context, id int64) error {
		return s.closeCountryElection(ctx, byID[id])
	})
}

func (s *Scheduler) closeCountryElection(ctx context.Context, country *nation.Country) error {
	r, err := s.store.RoundByStatus(ctx, election.ScopePresident, country.ID, election.StatusActive)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}

	cands, err := s.store.EligibleCandidates(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("candidates for round %s: %w", r.ID, err)
	}
	tallies, err := s.store.PresidentTallies(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("tallies for round %s: %w", r.ID, err)
	}

	var winnerID int64
	if r.System == nation.SystemElectoralCollege {
		regionPop, err := s.store.RegionPopulations(ctx, country.ID)
		if err != nil {
			return err
		}
		countryPop, err := s.store.Population(ctx, country.ID)
		if err != nil {
			return err
		}
		owned, err := s.store.OwnedRegionCount(ctx, country.ID)
		if err != nil {
			return err
		}

		w, electors, results := election.ElectoralCollegeResult(
			cands, tallies, regionPop, countryPop, nation.CongressSeats(owned))
		winnerID = w

		if err := s.store.SetCandidateElectors(ctx, r.ID, electors); err != nil {
			return err
		}
		if err := s.store.SaveRegionResults(ctx, r.ID, results); err != nil {
			return err
		}
	} else {
		winnerID, _ = election.PopularVoteResult(cands, tallies)
	}

	var winner *int64
	if winnerID != 0 {
		winner = &winnerID
	}

	if err := s.store.CloseRound(ctx, r.ID, winner); err != nil {
		return err
	}
	if err := s.store.SetPresident(ctx, country.ID, winner); err != nil {
		return err
	}
	if winner == nil {
		return nil
	}

	if err := s.store.CreditGold(ctx, *winner, PresidentGoldBonus); err != nil {
		return err
	}
	msg := fmt.Sprintf("You have been elected President of %s! %s gold has been credited to your account.",
		country.Name, humanize.Commaf(PresidentGoldBonus))
	return s.store.AddAlert(ctx, *winner, msg)
}

// CloseCongressElections apportions and finishes every country's active
// congress round, seating the new congress.
func (s *Scheduler) CloseCongressElections(ctx context.Context) bool {
	ids, err := s.countryIDs(ctx)
	if err != nil {
		slog.Error("list countries", "error", err)
		return false
	}
	return s.batch(ctx, "congress elections concluded", ids, func(ctx context.Context, id int64) error {
		return s.closeCongressElection(ctx, id)
	})
}

func (s *Scheduler) closeCongressElection(ctx context.Context, countryID int64) error {
	r, err := s.store.RoundByStatus(ctx, election.ScopeCongress, countryID, election.StatusActive)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}

	cands, err := s.store.EligibleCandidates(ctx, r.ID)
	if err != nil {
		return err
	}
	owned, err := s.store.OwnedRegionCount(ctx, countryID)
	if err != nil {
		return err
	}

	winners := election.ApportionCongress(cands, nation.CongressSeats(owned))
	if err := s.store.SetRoundWinners(ctx, r.ID, winners); err != nil {
		return err
	}
	if err := s.store.SetCongress(ctx, countryID, winners); err != nil {
		return err
	}
	return s.store.CloseRound(ctx, r.ID, nil)
}

// ClosePartyElections tallies and finishes every party's active round.
func (s *Scheduler) ClosePartyElections(ctx context.Context) bool {
	ids, err := s.partyIDs(ctx)
	if err != nil {
		slog.Error("list parties", "error", err)
		return false
	}
	return s.batch(ctx, "party president elections concluded", ids, func(ctx context.Context, id int64) error {
		return s.closePartyElection(ctx, id)
	})
}

func (s *Scheduler) closePartyElection(ctx context.Context, partyID int64) error {
	r, err := s.store.RoundByStatus(ctx, election.ScopeParty, partyID, election.StatusActive)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}

	cands, err := s.store.EligibleCandidates(ctx, r.ID)
	if err != nil {
		return err
	}

	winnerID := election.PluralityWinner(cands)
	var winner *int64
	if winnerID != 0 {
		winner = &winnerID
	}

	if err := s.store.CloseRound(ctx, r.ID, winner); err != nil {
		return err
	}
	return s.store.SetPartyPresident(ctx, partyID, winner)
}
