package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/nationsim/internal/world"
)

// Region loads one region with its neighbor list.
func (st *Store) Region(ctx context.Context, id int64) (*world.Region, error) {
	var row regionRow
	if err := st.conn.GetContext(ctx, &row,
		"SELECT id, name, owner_id, core_id, hidden, geometry_json FROM regions WHERE id = ?", id); err != nil {
		return nil, notFound(err)
	}

	r, err := row.toRegion()
	if err != nil {
		return nil, err
	}
	if err := st.conn.SelectContext(ctx, &r.Neighbors,
		"SELECT neighbor_id FROM region_neighbors WHERE region_id = ? ORDER BY ord", id); err != nil {
		return nil, err
	}
	return r, nil
}

// Regions loads every region, neighbors included.
func (st *Store) Regions(ctx context.Context) ([]*world.Region, error) {
	var rows []regionRow
	if err := st.conn.SelectContext(ctx, &rows,
		"SELECT id, name, owner_id, core_id, hidden, geometry_json FROM regions ORDER BY id"); err != nil {
		return nil, err
	}

	byID := make(map[int64]*world.Region, len(rows))
	regions := make([]*world.Region, 0, len(rows))
	for _, row := range rows {
		r, err := row.toRegion()
		if err != nil {
			return nil, err
		}
		byID[r.ID] = r
		regions = append(regions, r)
	}

	var edges []struct {
		RegionID   int64 `db:"region_id"`
		NeighborID int64 `db:"neighbor_id"`
	}
	if err := st.conn.SelectContext(ctx, &edges,
		"SELECT region_id, neighbor_id FROM region_neighbors ORDER BY region_id, ord"); err != nil {
		return nil, err
	}
	for _, e := range edges {
		if r, ok := byID[e.RegionID]; ok {
			r.Neighbors = append(r.Neighbors, e.NeighborID)
		}
	}
	return regions, nil
}

// Graph builds a fresh path-engine snapshot. Never cached: adjacency
// and ownership can change between queries.
func (st *Store) Graph(ctx context.Context) (*world.Graph, error) {
	regions, err := st.Regions(ctx)
	if err != nil {
		return nil, err
	}
	return world.NewGraph(regions), nil
}

// InsertRegion adds a region during administrative seeding.
func (st *Store) InsertRegion(ctx context.Context, r *world.Region) error {
	geom, err := json.Marshal(r.Geometry)
	if err != nil {
		return fmt.Errorf("encode geometry: %w", err)
	}
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO regions (id, name, owner_id, core_id, hidden, geometry_json) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.Name, r.Owner, r.Core, r.Hidden, string(geom)); err != nil {
			return fmt.Errorf("insert region %d: %w", r.ID, err)
		}
		return insertNeighbors(ctx, tx, r.ID, r.Neighbors)
	})
}

// SetNeighbors replaces a region's neighbor list with the IDs as given.
// Edges are directed; no reverse edge is created.
func (st *Store) SetNeighbors(ctx context.Context, regionID int64, neighbors []int64) error {
	var exists bool
	if err := st.conn.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM regions WHERE id = ?)", regionID); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM region_neighbors WHERE region_id = ?", regionID); err != nil {
			return err
		}
		return insertNeighbors(ctx, tx, regionID, neighbors)
	})
}

func insertNeighbors(ctx context.Context, tx *sqlx.Tx, regionID int64, neighbors []int64) error {
	for i, nid := range neighbors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO region_neighbors (region_id, neighbor_id, ord) VALUES (?, ?, ?)",
			regionID, nid, i); err != nil {
			return fmt.Errorf("insert edge %d->%d: %w", regionID, nid, err)
		}
	}
	return nil
}

// OwnedRegionCount returns how many regions a country currently holds,
// the input to its congress seat count.
func (st *Store) OwnedRegionCount(ctx context.Context, countryID int64) (int, error) {
	var n int
	err := st.conn.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM regions WHERE owner_id = ?", countryID)
	return n, err
}

type regionRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	OwnerID      int64  `db:"owner_id"`
	CoreID       int64  `db:"core_id"`
	Hidden       bool   `db:"hidden"`
	GeometryJSON string `db:"geometry_json"`
}

func (row regionRow) toRegion() (*world.Region, error) {
	r := &world.Region{
		ID:     row.ID,
		Name:   row.Name,
		Owner:  row.OwnerID,
		Core:   row.CoreID,
		Hidden: row.Hidden,
	}
	if err := json.Unmarshal([]byte(row.GeometryJSON), &r.Geometry); err != nil {
		return nil, fmt.Errorf("decode geometry for region %d: %w", row.ID, err)
	}
	return r, nil
}
