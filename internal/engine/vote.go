package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/nationsim/internal/election"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/store"
)

// Votes is the vote-intake service: one cast per user per scope per
// 24-hour window, dispatched to the scope's tally writer.
type Votes struct {
	store *store.Store

	// Now is the clock, swappable in tests.
	Now func() time.Time
}

// NewVotes creates the vote-intake service.
func NewVotes(st *store.Store) *Votes {
	return &Votes{store: st, Now: time.Now}
}

// Cast records one ballot for the calling user. The cooldown is
// consumed before the scope-specific write and is not restored if that
// write fails; a user who hits a downstream error has spent their daily
// vote. This mirrors the long-standing game behavior.
func (v *Votes) Cast(ctx context.Context, userID int64, scope election.Scope, candidateID int64) error {
	if !scope.Valid() {
		return ErrUnsupportedScope
	}

	user, err := v.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("voter %d: %w", userID, err)
	}

	now := v.Now()
	if !user.MayVote(now) {
		return ErrVoteCooldown
	}
	if err := v.store.SetCanVote(ctx, userID, election.NextMidnightUTC(now)); err != nil {
		return fmt.Errorf("consume cooldown: %w", err)
	}

	switch scope {
	case election.ScopePresident:
		return v.castPresident(ctx, user, candidateID)
	case election.ScopeCongress:
		return v.castCongress(ctx, user, candidateID)
	case election.ScopeParty:
		return v.castParty(ctx, user, candidateID)
	}
	return ErrUnsupportedScope
}

// castPresident appends the ballot to the candidate's tally bucket for
// the voter's residence region. The round's voter set blocks a second
// ballot from the same user even if the cooldown were bypassed.
func (v *Votes) castPresident(ctx context.Context, user *nation.User, candidateID int64) error {
	round, err := v.activeRound(ctx, election.ScopePresident, user.CountryID)
	if err != nil {
		return err
	}
	if err := v.ballotCandidate(ctx, round.ID, candidateID); err != nil {
		return err
	}
	err = v.store.RecordPresidentVote(ctx, round.ID, candidateID, user.RegionID, user.ID)
	if errors.Is(err, store.ErrDuplicate) {
		return ErrAlreadyVoted
	}
	return err
}

// castCongress increments the candidate's counter after checking the
// candidate is contesting the voter's own region in the current round.
func (v *Votes) castCongress(ctx context.Context, user *nation.User, candidateID int64) error {
	round, err := v.activeRound(ctx, election.ScopeCongress, user.CountryID)
	if err != nil {
		return err
	}
	cand, err := v.store.Candidate(ctx, round.ID, candidateID)
	if err != nil {
		return fmt.Errorf("candidate %d: %w", candidateID, err)
	}
	if !cand.Eligible || cand.RegionID == nil || *cand.RegionID != user.RegionID {
		return fmt.Errorf("candidate %d: %w", candidateID, store.ErrNotFound)
	}
	return v.store.IncrementVote(ctx, round.ID, candidateID)
}

// castParty increments the candidate's counter in the voter's own
// party's round; non-members are rejected before any write.
func (v *Votes) castParty(ctx context.Context, user *nation.User, candidateID int64) error {
	if user.PartyID == nil {
		return ErrNotPartyMember
	}
	member, err := v.store.IsPartyMember(ctx, *user.PartyID, user.ID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotPartyMember
	}

	round, err := v.activeRound(ctx, election.ScopeParty, *user.PartyID)
	if err != nil {
		return err
	}
	if err := v.ballotCandidate(ctx, round.ID, candidateID); err != nil {
		return err
	}
	return v.store.IncrementVote(ctx, round.ID, candidateID)
}

func (v *Votes) activeRound(ctx context.Context, scope election.Scope, entityID int64) (*election.Round, error) {
	round, err := v.store.RoundByStatus(ctx, scope, entityID, election.StatusActive)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveRound
	}
	return round, err
}

// ballotCandidate verifies the candidate is on the round's ballot.
func (v *Votes) ballotCandidate(ctx context.Context, roundID string, candidateID int64) error {
	cand, err := v.store.Candidate(ctx, roundID, candidateID)
	if err != nil {
		return fmt.Errorf("candidate %d: %w", candidateID, err)
	}
	if !cand.Eligible {
		return fmt.Errorf("candidate %d: %w", candidateID, store.ErrNotFound)
	}
	return nil
}
