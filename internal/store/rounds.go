package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/nationsim/internal/election"
)

// ErrDuplicate is returned when a uniqueness rule rejects a write, such
// as a second presidential ballot from the same voter in one round.
var ErrDuplicate = errors.New("duplicate entry")

const roundCols = "id, scope, entity_id, status, target_date, system, winner, created_at"

// CreateRound inserts a new round in filing state.
func (st *Store) CreateRound(ctx context.Context, r *election.Round) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT INTO rounds ("+roundCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Scope, r.EntityID, r.Status, r.TargetDate, r.System, r.Winner, r.CreatedAt)
	return err
}

// RoundByStatus returns the entity's round in the given status, or
// ErrNotFound. The cycle keeps at most one round per scope per entity in
// any non-closed status.
func (st *Store) RoundByStatus(ctx context.Context, scope election.Scope, entityID int64, status election.Status) (*election.Round, error) {
	var r election.Round
	err := st.conn.GetContext(ctx, &r,
		"SELECT "+roundCols+" FROM rounds WHERE scope = ? AND entity_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1",
		scope, entityID, status)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// Rounds returns an entity's full election history, oldest first.
func (st *Store) Rounds(ctx context.Context, scope election.Scope, entityID int64) ([]*election.Round, error) {
	var rounds []*election.Round
	err := st.conn.SelectContext(ctx, &rounds,
		"SELECT "+roundCols+" FROM rounds WHERE scope = ? AND entity_id = ? ORDER BY created_at",
		scope, entityID)
	return rounds, err
}

// ActivateRound opens a filing round for voting, snapshotting the
// voting system (president scope) and applying the scope's eligibility
// filter: president candidates need at least one endorsement, congress
// candidates need confirmation. Ineligible candidates stay in history
// but are off the ballot.
func (st *Store) ActivateRound(ctx context.Context, r *election.Round, system string) error {
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE rounds SET status = ?, system = ? WHERE id = ? AND status = ?",
			election.StatusActive, system, r.ID, election.StatusFiling)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("round %s: %w", r.ID, ErrNotFound)
		}

		switch r.Scope {
		case election.ScopePresident:
			_, err = tx.ExecContext(ctx,
				`UPDATE candidates SET eligible = EXISTS(
				   SELECT 1 FROM endorsements e
				   WHERE e.round_id = candidates.round_id AND e.user_id = candidates.user_id)
				 WHERE round_id = ?`, r.ID)
		case election.ScopeCongress:
			_, err = tx.ExecContext(ctx,
				"UPDATE candidates SET eligible = confirmed WHERE round_id = ?", r.ID)
		case election.ScopeParty:
			_, err = tx.ExecContext(ctx,
				"UPDATE candidates SET eligible = 1 WHERE round_id = ?", r.ID)
		}
		return err
	})
}

// CloseRound finishes a round and records its winner (nil when the race
// produced none).
func (st *Store) CloseRound(ctx context.Context, roundID string, winner *int64) error {
	res, err := st.conn.ExecContext(ctx,
		"UPDATE rounds SET status = ?, winner = ? WHERE id = ? AND status = ?",
		election.StatusClosed, winner, roundID, election.StatusActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	return nil
}

// SetRoundWinners records a multi-seat outcome (congress).
func (st *Store) SetRoundWinners(ctx context.Context, roundID string, winners []int64) error {
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM round_winners WHERE round_id = ?", roundID); err != nil {
			return err
		}
		for _, uid := range winners {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO round_winners (round_id, user_id) VALUES (?, ?)", roundID, uid); err != nil {
				return err
			}
		}
		return nil
	})
}

// RoundWinners returns a multi-seat round's winner set.
func (st *Store) RoundWinners(ctx context.Context, roundID string) ([]int64, error) {
	var winners []int64
	err := st.conn.SelectContext(ctx, &winners,
		"SELECT user_id FROM round_winners WHERE round_id = ? ORDER BY user_id", roundID)
	return winners, err
}

// AddCandidate files a candidacy into a round.
func (st *Store) AddCandidate(ctx context.Context, c *election.Candidate) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT INTO candidates (round_id, user_id, party_id, region_id, confirmed) VALUES (?, ?, ?, ?, ?)",
		c.RoundID, c.UserID, c.PartyID, c.RegionID, c.Confirmed)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

// RemoveCandidate withdraws a candidacy.
func (st *Store) RemoveCandidate(ctx context.Context, roundID string, userID int64) error {
	res, err := st.conn.ExecContext(ctx,
		"DELETE FROM candidates WHERE round_id = ? AND user_id = ?", roundID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmCandidate marks a congress candidacy ballot-ready.
func (st *Store) ConfirmCandidate(ctx context.Context, roundID string, userID int64) error {
	res, err := st.conn.ExecContext(ctx,
		"UPDATE candidates SET confirmed = 1 WHERE round_id = ? AND user_id = ?", roundID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Endorse records a party's endorsement of a president candidate.
func (st *Store) Endorse(ctx context.Context, roundID string, userID, partyID int64) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO endorsements (round_id, user_id, party_id) VALUES (?, ?, ?)",
		roundID, userID, partyID)
	return err
}

const candidateCols = `c.round_id, c.user_id, c.party_id, c.region_id,
	c.confirmed, c.eligible, c.votes, c.electors, COALESCE(u.xp, 0) AS xp`

// Candidates returns every candidate in a round, experience attached.
func (st *Store) Candidates(ctx context.Context, roundID string) ([]election.Candidate, error) {
	var cands []election.Candidate
	err := st.conn.SelectContext(ctx, &cands,
		"SELECT "+candidateCols+` FROM candidates c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.round_id = ? ORDER BY c.rowid`, roundID)
	return cands, err
}

// EligibleCandidates returns only the candidates on the ballot.
func (st *Store) EligibleCandidates(ctx context.Context, roundID string) ([]election.Candidate, error) {
	var cands []election.Candidate
	err := st.conn.SelectContext(ctx, &cands,
		"SELECT "+candidateCols+` FROM candidates c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.round_id = ? AND c.eligible = 1 ORDER BY c.rowid`, roundID)
	return cands, err
}

// Candidate returns one candidate or ErrNotFound.
func (st *Store) Candidate(ctx context.Context, roundID string, userID int64) (*election.Candidate, error) {
	var c election.Candidate
	err := st.conn.GetContext(ctx, &c,
		"SELECT "+candidateCols+` FROM candidates c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.round_id = ? AND c.user_id = ?`, roundID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// IncrementVote bumps a candidate's vote counter atomically.
func (st *Store) IncrementVote(ctx context.Context, roundID string, userID int64) error {
	res, err := st.conn.ExecContext(ctx,
		"UPDATE candidates SET votes = votes + 1 WHERE round_id = ? AND user_id = ? AND eligible = 1",
		roundID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPresidentVote registers one presidential ballot: the voter joins
// the round's per-region voter set and the candidate's tally bucket for
// that region is incremented. A repeat voter in the same round is
// rejected with ErrDuplicate before any tally changes.
func (st *Store) RecordPresidentVote(ctx context.Context, roundID string, candidateID, regionID, voterID int64) error {
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO president_voters (round_id, region_id, voter_id) VALUES (?, ?, ?)",
			roundID, regionID, voterID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDuplicate
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO president_tallies (round_id, user_id, region_id, tally) VALUES (?, ?, ?, 0)",
			roundID, candidateID, regionID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE president_tallies SET tally = tally + 1 WHERE round_id = ? AND user_id = ? AND region_id = ?",
			roundID, candidateID, regionID)
		return err
	})
}

// PresidentTallies returns a round's per-candidate per-region vote
// records. Totals are never stored; the tally engine sums at close time.
func (st *Store) PresidentTallies(ctx context.Context, roundID string) ([]election.RegionTally, error) {
	var tallies []election.RegionTally
	err := st.conn.SelectContext(ctx, &tallies,
		"SELECT round_id, user_id, region_id, tally FROM president_tallies WHERE round_id = ? ORDER BY region_id, user_id",
		roundID)
	return tallies, err
}

// SetCandidateElectors persists per-candidate elector totals from an
// electoral-college close.
func (st *Store) SetCandidateElectors(ctx context.Context, roundID string, electors map[int64]int64) error {
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		for userID, n := range electors {
			if _, err := tx.ExecContext(ctx,
				"UPDATE candidates SET electors = ? WHERE round_id = ? AND user_id = ?",
				n, roundID, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveRegionResults persists the raw per-region outcomes of an
// electoral-college round for audit and display.
func (st *Store) SaveRegionResults(ctx context.Context, roundID string, results []election.RegionResult) error {
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, r := range results {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO region_results (round_id, region_id, winner_id, electors, votes) VALUES (?, ?, ?, ?, ?)",
				roundID, r.RegionID, r.WinnerID, r.Electors, r.Votes); err != nil {
				return err
			}
		}
		return nil
	})
}

// RegionResults returns a round's saved per-region outcomes.
func (st *Store) RegionResults(ctx context.Context, roundID string) ([]election.RegionResult, error) {
	var results []election.RegionResult
	err := st.conn.SelectContext(ctx, &results,
		"SELECT round_id, region_id, winner_id, electors, votes FROM region_results WHERE round_id = ? ORDER BY region_id",
		roundID)
	return results, err
}
