package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/nationsim/internal/election"
	"github.com/talgya/nationsim/internal/store"
)

// Candidacy manages entries into filing rounds: filing, withdrawal,
// congress confirmation, and party endorsement of president candidates.
type Candidacy struct {
	store *store.Store

	Now func() time.Time
}

// NewCandidacy creates the candidacy service.
func NewCandidacy(st *store.Store) *Candidacy {
	return &Candidacy{store: st, Now: time.Now}
}

// File enters the user into the current filing round for the scope.
// Congress candidacies contest the user's residence region and start
// unconfirmed; president candidacies start without endorsements. Both
// stay off the ballot unless they qualify by activation time.
func (c *Candidacy) File(ctx context.Context, userID int64, scope election.Scope) error {
	if !scope.Valid() {
		return ErrUnsupportedScope
	}
	user, err := c.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	cand := &election.Candidate{UserID: userID, PartyID: user.PartyID}
	var entityID int64
	switch scope {
	case election.ScopePresident:
		entityID = user.CountryID
	case election.ScopeCongress:
		entityID = user.CountryID
		region := user.RegionID
		cand.RegionID = &region
	case election.ScopeParty:
		if user.PartyID == nil {
			return ErrNotPartyMember
		}
		entityID = *user.PartyID
	}

	round, err := c.filingRound(ctx, scope, entityID)
	if err != nil {
		return err
	}
	cand.RoundID = round.ID
	return c.store.AddCandidate(ctx, cand)
}

// Withdraw removes the user's candidacy from the current filing round.
func (c *Candidacy) Withdraw(ctx context.Context, userID int64, scope election.Scope) error {
	if !scope.Valid() {
		return ErrUnsupportedScope
	}
	user, err := c.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}

	entityID := user.CountryID
	if scope == election.ScopeParty {
		if user.PartyID == nil {
			return ErrNotPartyMember
		}
		entityID = *user.PartyID
	}

	round, err := c.filingRound(ctx, scope, entityID)
	if err != nil {
		return err
	}
	return c.store.RemoveCandidate(ctx, round.ID, userID)
}

// Confirm marks a congress candidacy ballot-ready. Only the president
// of the candidate's sponsoring party may confirm; unaffiliated
// candidates confirm themselves.
func (c *Candidacy) Confirm(ctx context.Context, actorID, candidateID int64) error {
	user, err := c.store.User(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("candidate %d: %w", candidateID, err)
	}

	round, err := c.filingRound(ctx, election.ScopeCongress, user.CountryID)
	if err != nil {
		return err
	}
	cand, err := c.store.Candidate(ctx, round.ID, candidateID)
	if err != nil {
		return fmt.Errorf("candidate %d: %w", candidateID, err)
	}

	if cand.PartyID == nil {
		if actorID != candidateID {
			return ErrNotPartyPresident
		}
	} else {
		party, err := c.store.Party(ctx, *cand.PartyID)
		if err != nil {
			return err
		}
		if party.President == nil || *party.President != actorID {
			return ErrNotPartyPresident
		}
	}
	return c.store.ConfirmCandidate(ctx, round.ID, candidateID)
}

// Endorse records the actor's party behind a president candidate in the
// actor's country's filing round. The actor must be a party president;
// at least one endorsement is what promotes a filed candidate onto the
// ballot at activation.
func (c *Candidacy) Endorse(ctx context.Context, actorID, candidateID int64) error {
	actor, err := c.store.User(ctx, actorID)
	if err != nil {
		return fmt.Errorf("user %d: %w", actorID, err)
	}
	if actor.PartyID == nil {
		return ErrNotPartyPresident
	}
	party, err := c.store.Party(ctx, *actor.PartyID)
	if err != nil {
		return err
	}
	if party.President == nil || *party.President != actorID {
		return ErrNotPartyPresident
	}

	round, err := c.filingRound(ctx, election.ScopePresident, actor.CountryID)
	if err != nil {
		return err
	}
	if _, err := c.store.Candidate(ctx, round.ID, candidateID); err != nil {
		return fmt.Errorf("candidate %d: %w", candidateID, err)
	}
	return c.store.Endorse(ctx, round.ID, candidateID, party.ID)
}

func (c *Candidacy) filingRound(ctx context.Context, scope election.Scope, entityID int64) (*election.Round, error) {
	round, err := c.store.RoundByStatus(ctx, scope, entityID, election.StatusFiling)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoFilingRound
	}
	return round, err
}
