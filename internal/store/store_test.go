package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/nationsim/internal/election"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/world"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNeighborsAreDirected(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	require.NoError(t, st.InsertRegion(ctx, &world.Region{ID: 1, Name: "A"}))
	require.NoError(t, st.InsertRegion(ctx, &world.Region{ID: 2, Name: "B"}))

	require.NoError(t, st.SetNeighbors(ctx, 1, []int64{2}))

	a, err := st.Region(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, a.Neighbors)

	// No implied reverse edge.
	b, err := st.Region(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, b.Neighbors)
}

func TestSetNeighborsPreservesOrderAndReplaces(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	require.NoError(t, st.InsertRegion(ctx, &world.Region{ID: 1, Name: "A"}))

	require.NoError(t, st.SetNeighbors(ctx, 1, []int64{5, 3, 9}))
	r, err := st.Region(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 3, 9}, r.Neighbors, "adjacency keeps authored order")

	require.NoError(t, st.SetNeighbors(ctx, 1, []int64{7}))
	r, err = st.Region(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, r.Neighbors)

	assert.ErrorIs(t, st.SetNeighbors(ctx, 99, []int64{1}), ErrNotFound)
}

func TestRegionGeometryRoundTrip(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	geom := []world.GeoPoint{{Lat: 1.5, Lng: -2.25}, {Lat: 3, Lng: 4}}
	require.NoError(t, st.InsertRegion(ctx, &world.Region{ID: 1, Name: "A", Geometry: geom}))

	r, err := st.Region(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, geom, r.Geometry)
}

func TestRecordPresidentVoteOncePerRound(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	round := &election.Round{ID: "r1", Scope: election.ScopePresident, EntityID: 1, Status: election.StatusActive}
	require.NoError(t, st.CreateRound(ctx, round))

	require.NoError(t, st.RecordPresidentVote(ctx, "r1", 10, 100, 1))

	// The same voter is rejected even from a different region: moving
	// mid-round does not grant a second ballot.
	assert.ErrorIs(t, st.RecordPresidentVote(ctx, "r1", 11, 200, 1), ErrDuplicate)

	tallies, err := st.PresidentTallies(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, int64(1), tallies[0].Tally)
}

func TestRecordPresidentVoteBucketsPerRegion(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	round := &election.Round{ID: "r1", Scope: election.ScopePresident, EntityID: 1, Status: election.StatusActive}
	require.NoError(t, st.CreateRound(ctx, round))

	require.NoError(t, st.RecordPresidentVote(ctx, "r1", 10, 100, 1))
	require.NoError(t, st.RecordPresidentVote(ctx, "r1", 10, 100, 2))
	require.NoError(t, st.RecordPresidentVote(ctx, "r1", 10, 200, 3))

	tallies, err := st.PresidentTallies(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tallies, 2, "one tally row per candidate per region")
	assert.Equal(t, int64(100), tallies[0].RegionID)
	assert.Equal(t, int64(2), tallies[0].Tally)
	assert.Equal(t, int64(200), tallies[1].RegionID)
	assert.Equal(t, int64(1), tallies[1].Tally)
}

func TestIncrementVoteRequiresEligibility(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	round := &election.Round{ID: "r1", Scope: election.ScopeParty, EntityID: 1, Status: election.StatusFiling}
	require.NoError(t, st.CreateRound(ctx, round))
	require.NoError(t, st.AddCandidate(ctx, &election.Candidate{RoundID: "r1", UserID: 1}))

	// Still filing: the candidate is not yet on the ballot.
	assert.ErrorIs(t, st.IncrementVote(ctx, "r1", 1), ErrNotFound)

	require.NoError(t, st.ActivateRound(ctx, round, ""))
	require.NoError(t, st.IncrementVote(ctx, "r1", 1))
	require.NoError(t, st.IncrementVote(ctx, "r1", 1))

	cand, err := st.Candidate(ctx, "r1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cand.Votes)
}

func TestSetPresidentClearsCabinet(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	require.NoError(t, st.InsertCountry(ctx, &nation.Country{ID: 1, Name: "Testland"}))

	old := int64(5)
	require.NoError(t, st.SetPresident(ctx, 1, &old))
	_, err := st.conn.ExecContext(ctx,
		"UPDATE countries SET vp = 6, cabinet_mofa = 7, cabinet_mod = 8, cabinet_mot = 9 WHERE id = 1")
	require.NoError(t, err)

	next := int64(10)
	require.NoError(t, st.SetPresident(ctx, 1, &next))

	c, err := st.Country(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, c.Government.President)
	assert.Equal(t, int64(10), *c.Government.President)
	assert.Nil(t, c.Government.VP, "cabinet is swept on every presidential transition")
	assert.Nil(t, c.Government.ForeignMinister)
	assert.Nil(t, c.Government.DefenseMinister)
	assert.Nil(t, c.Government.TreasuryMinister)
}

func TestRoundByStatus(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	round := &election.Round{ID: "r1", Scope: election.ScopePresident, EntityID: 1, Status: election.StatusFiling}
	require.NoError(t, st.CreateRound(ctx, round))

	got, err := st.RoundByStatus(ctx, election.ScopePresident, 1, election.StatusFiling)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	_, err = st.RoundByStatus(ctx, election.ScopePresident, 1, election.StatusActive)
	assert.ErrorIs(t, err, ErrNotFound)

	// Other scopes and entities never leak in.
	_, err = st.RoundByStatus(ctx, election.ScopeCongress, 1, election.StatusFiling)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.RoundByStatus(ctx, election.ScopePresident, 2, election.StatusFiling)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveUserDebitsGold(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	require.NoError(t, st.InsertUser(ctx, &nation.User{ID: 1, Name: "alice", Gold: 2.5, RegionID: 1}))

	require.NoError(t, st.MoveUser(ctx, 1, 4, 0.3))

	u, err := st.User(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), u.RegionID)
	assert.InDelta(t, 2.2, u.Gold, 0.0001)

	assert.ErrorIs(t, st.MoveUser(ctx, 99, 4, 0), ErrNotFound)
}

func TestAlerts(t *testing.T) {
	ctx := t.Context()
	st := newStore(t)
	require.NoError(t, st.InsertUser(ctx, &nation.User{ID: 1, Name: "alice"}))

	require.NoError(t, st.AddAlert(ctx, 1, "first"))
	require.NoError(t, st.AddAlert(ctx, 1, "second"))

	alerts, err := st.Alerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "second", alerts[0].Message, "newest alert first")
	assert.Equal(t, "first", alerts[1].Message)
}
