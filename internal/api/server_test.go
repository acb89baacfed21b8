package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/nationsim/internal/engine"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/store"
	"github.com/talgya/nationsim/internal/world"
)

const (
	testSecret   = "test-secret"
	testAdminKey = "test-admin-key"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := &Server{
		Store:     st,
		Scheduler: engine.NewScheduler(st),
		Votes:     engine.NewVotes(st),
		Travel:    engine.NewTravel(st),
		Candidacy: engine.NewCandidacy(st),
		JWTSecret: testSecret,
		AdminKey:  testAdminKey,
	}
	return srv, st
}

func seedWorld(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, st.InsertCountry(ctx, &nation.Country{
		ID: 1, Name: "Testland", VotingSystem: nation.SystemPopularVote,
	}))
	require.NoError(t, st.InsertRegion(ctx, &world.Region{
		ID: 1, Name: "Alpha", Owner: 1, Core: 1, Neighbors: []int64{2},
	}))
	require.NoError(t, st.InsertRegion(ctx, &world.Region{
		ID: 2, Name: "Beta", Owner: 1, Core: 1, Neighbors: []int64{1, 3},
	}))
	require.NoError(t, st.InsertRegion(ctx, &world.Region{
		ID: 3, Name: "Gamma", Owner: 1, Core: 1, Neighbors: []int64{2},
	}))
	require.NoError(t, st.InsertUser(ctx, &nation.User{
		ID: 1, Name: "alice", Gold: 10, CountryID: 1, RegionID: 1,
	}))
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestGetRegions(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/regions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var regions []world.Region
	decodeBody(t, rec, &regions)
	require.Len(t, regions, 3)
	assert.Equal(t, []int64{2}, regions[0].Neighbors)
}

func TestGetRegionNotFound(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/region/99", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCountryIncludesSeatCount(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/country/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Country       nation.Country `json:"country"`
		CongressSeats int            `json:"congressSeats"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Testland", resp.Country.Name)
	assert.Equal(t, 6, resp.CongressSeats, "three owned regions seat six members")
}

func TestTravelCostPublic(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/travel/cost",
		map[string]int64{"src": 1, "dest": 3}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var route world.Route
	decodeBody(t, rec, &route)
	assert.Equal(t, 2, route.Distance)
	assert.InDelta(t, 0.30, route.Cost, 0.001)
}

func TestTravelCostSameRegion(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/travel/cost",
		map[string]int64{"src": 2, "dest": 2}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already Located In Region!")
}

func TestTravelCostNoRoute(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	require.NoError(t, st.InsertRegion(t.Context(), &world.Region{
		ID: 9, Name: "Island", Owner: 1, Core: 1,
	}))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/travel/cost",
		map[string]int64{"src": 1, "dest": 9}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Route Between Regions!")
}

func TestTravelRequiresAuth(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/travel", map[string]int64{"dest": 2}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/travel", map[string]int64{"dest": 2}, "garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTravelMovesCaller(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	token, err := MintToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/travel", map[string]int64{"dest": 2}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool    `json:"success"`
		Cost     float64 `json:"cost"`
		Distance int     `json:"distance"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Distance)

	user, err := st.User(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.RegionID)
}

func TestVoteRejectsUnsupportedScope(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)

	token, err := MintToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/vote",
		map[string]any{"scope": "mayor", "candidate": 1}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported Voting Scope!")
}

func TestVoteWithoutActiveRound(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)

	token, err := MintToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/vote",
		map[string]any{"scope": "president", "candidate": 1}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Active Election!")
}

func TestAdminElectionStep(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	// Without the admin key the control plane is closed.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/elections/president/create", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/elections/president/create", nil, testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AllUpdated bool `json:"allUpdated"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.AllUpdated)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/elections/president/explode", nil, testAdminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSetNeighbors(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/region/3/neighbors",
		map[string][]int64{"neighbors": {1, 2}}, testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)

	region, err := st.Region(t.Context(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, region.Neighbors)
}

func TestCandidacyFileEndToEnd(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)
	h := srv.Handler()

	token, err := MintToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	// No filing round yet.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/candidacy",
		map[string]string{"scope": "president"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Open one through the admin control plane, then file.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/elections/president/create", nil, testAdminKey)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/candidacy",
		map[string]string{"scope": "president"}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	// Filing twice is rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/candidacy",
		map[string]string{"scope": "president"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already Submitted!")
}

func TestVoteInvalidJSON(t *testing.T) {
	srv, st := newTestServer(t)
	seedWorld(t, st)

	token, err := MintToken(testSecret, 1, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vote", bytes.NewBufferString("{nope"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
