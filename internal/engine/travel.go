package engine

import (
	"context"
	"fmt"

	"github.com/talgya/nationsim/internal/store"
	"github.com/talgya/nationsim/internal/world"
)

// Travel prices trips over the region graph and relocates citizens.
type Travel struct {
	store *store.Store
}

// NewTravel creates the travel service.
func NewTravel(st *store.Store) *Travel {
	return &Travel{store: st}
}

// Quote prices a trip between two regions without moving anyone. The
// graph snapshot is rebuilt per call since adjacency can change between
// queries. src == dest is a caller error, not a zero-cost trip.
func (t *Travel) Quote(ctx context.Context, src, dest int64) (*world.Route, error) {
	if src == dest {
		return nil, ErrSameRegion
	}
	graph, err := t.store.Graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("load region graph: %w", err)
	}
	return graph.ShortestPath(src, dest)
}

// Go moves a user to dest, charging the quoted travel cost in gold.
func (t *Travel) Go(ctx context.Context, userID, dest int64) (*world.Route, error) {
	user, err := t.store.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("traveler %d: %w", userID, err)
	}

	route, err := t.Quote(ctx, user.RegionID, dest)
	if err != nil {
		return nil, err
	}
	if user.Gold < route.Cost {
		return nil, ErrInsufficientGold
	}

	if err := t.store.MoveUser(ctx, userID, dest, route.Cost); err != nil {
		return nil, fmt.Errorf("relocate user %d: %w", userID, err)
	}
	return route, nil
}
