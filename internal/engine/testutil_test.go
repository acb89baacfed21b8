package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/store"
	"github.com/talgya/nationsim/internal/world"
)

// testClock is a frozen scheduler/vote clock for deterministic cooldown
// and calendar behavior.
var testClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedCountry(t *testing.T, st *store.Store, id int64, system string) {
	t.Helper()
	err := st.InsertCountry(context.Background(), &nation.Country{
		ID:           id,
		Name:         "Testland",
		VotingSystem: system,
	})
	require.NoError(t, err)
}

func seedRegion(t *testing.T, st *store.Store, id, countryID int64, neighbors ...int64) {
	t.Helper()
	err := st.InsertRegion(context.Background(), &world.Region{
		ID:        id,
		Name:      "Test Region",
		Owner:     countryID,
		Core:      countryID,
		Neighbors: neighbors,
	})
	require.NoError(t, err)
}

func seedUser(t *testing.T, st *store.Store, u nation.User) {
	t.Helper()
	require.NoError(t, st.InsertUser(context.Background(), &u))
}

func seedParty(t *testing.T, st *store.Store, id, countryID int64, members ...int64) {
	t.Helper()
	ctx := context.Background()
	err := st.InsertParty(ctx, &nation.Party{ID: id, Name: "Test Party", CountryID: countryID})
	require.NoError(t, err)
	for _, m := range members {
		require.NoError(t, st.AddPartyMember(ctx, id, m))
	}
}
