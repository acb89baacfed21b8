// Package world provides the region map and the travel path engine.
// Regions form a directed graph: adjacency lists are authored by an
// administrative endpoint and are not guaranteed symmetric.
package world

// Region is a single territory on the political map.
type Region struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Owner  int64  `json:"owner" db:"owner_id"` // Country currently holding the region
	Core   int64  `json:"core" db:"core_id"`   // Country the region historically belongs to
	Hidden bool   `json:"-" db:"hidden"`       // Excluded from maps until seeded fully

	// Neighbors is the ordered list of directly reachable region IDs.
	// Edges are directed as stored; the reverse edge may not exist.
	Neighbors []int64 `json:"neighbors" db:"-"`

	// Geometry is the border polygon, kept for map rendering only.
	// The path engine never reads it.
	Geometry []GeoPoint `json:"borders,omitempty" db:"-"`
}

// GeoPoint is a single border vertex.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Graph is a point-in-time snapshot of all regions and their directed
// adjacency. It is rebuilt from the store for every path query and must
// never be cached: region ownership and adjacency can change between calls.
type Graph struct {
	regions map[int64]*Region
}

// NewGraph builds a snapshot from a region list.
func NewGraph(regions []*Region) *Graph {
	g := &Graph{regions: make(map[int64]*Region, len(regions))}
	for _, r := range regions {
		g.regions[r.ID] = r
	}
	return g
}

// Region returns the region with the given ID, or nil.
func (g *Graph) Region(id int64) *Region {
	return g.regions[id]
}

// Len returns the number of regions in the snapshot.
func (g *Graph) Len() int {
	return len(g.regions)
}
