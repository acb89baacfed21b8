package world

import (
	"errors"
	"math"
)

// Path engine errors. ErrNoRoute is a domain result, not a system failure.
var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrNoRoute       = errors.New("no route between regions")
)

// Route is the result of a shortest-path query.
type Route struct {
	From     *Region   `json:"from"`
	To       *Region   `json:"to"`
	Path     []*Region `json:"path"`
	Distance int       `json:"distance"`
	Cost     float64   `json:"cost"`
}

// unreached marks a node the search has not found a path to yet.
const unreached = math.MaxInt

// pathNode decorates a region with traversal state. Nodes live only for
// the duration of one query and are never persisted.
type pathNode struct {
	region   *Region
	distance int
	visited  bool
	previous *pathNode
}

// ShortestPath runs a unit-weight Dijkstra search from src to dest over
// the directed adjacency as stored. Callers must reject src == dest
// before invoking; a zero-hop route has no defined travel cost.
func (g *Graph) ShortestPath(src, dest int64) (*Route, error) {
	srcRegion := g.regions[src]
	destRegion := g.regions[dest]
	if srcRegion == nil || destRegion == nil {
		return nil, ErrUnknownRegion
	}

	nodes := make(map[int64]*pathNode, len(g.regions))
	for id, r := range g.regions {
		nodes[id] = &pathNode{region: r, distance: unreached}
	}
	nodes[src].distance = 0
	destNode := nodes[dest]

	for {
		closest := extractClosest(nodes, destNode)
		if closest == nil || closest.distance == unreached {
			// Frontier exhausted or only unreachable nodes remain.
			break
		}
		if destNode.visited && closest.distance > destNode.distance {
			// Destination is finalized and can no longer improve.
			break
		}

		closest.visited = true
		if closest == destNode {
			break
		}

		// Relax directed edges with weight 1. A visited neighbor whose
		// distance still improves re-enters the frontier.
		for _, nid := range closest.region.Neighbors {
			neighbor, ok := nodes[nid]
			if !ok {
				continue // Dangling edge in authored data
			}
			if neighbor.distance > closest.distance+1 {
				neighbor.distance = closest.distance + 1
				neighbor.previous = closest
				neighbor.visited = false
			}
		}
	}

	if destNode.distance == unreached {
		return nil, ErrNoRoute
	}

	var path []*Region
	for n := destNode; n != nil; n = n.previous {
		path = append([]*Region{n.region}, path...)
	}
	distance := len(path) - 1

	return &Route{
		From:     srcRegion,
		To:       destRegion,
		Path:     path,
		Distance: distance,
		Cost:     TravelCost(distance),
	}, nil
}

// extractClosest returns the unvisited node with the minimum tentative
// distance, breaking ties by lower region ID so equal-length routes
// resolve the same way on every query. The destination is preferred
// whenever its distance ties the minimum, which lets the search stop
// without settling the whole graph.
func extractClosest(nodes map[int64]*pathNode, dest *pathNode) *pathNode {
	var min *pathNode
	for _, n := range nodes {
		if n.visited {
			continue
		}
		if min == nil || n.distance < min.distance ||
			(n.distance == min.distance && n.region.ID < min.region.ID) {
			min = n
		}
	}
	if min != nil && !dest.visited && dest.distance == min.distance {
		return dest
	}
	return min
}

// TravelCost derives the gold cost of a trip from its hop count:
// log10(distance) rounded to two decimals. A one-hop trip is free.
// distance must be >= 1.
func TravelCost(distance int) float64 {
	return math.Round(math.Log10(float64(distance))*100) / 100
}
