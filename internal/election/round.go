// Package election models recurring election rounds and computes their
// outcomes. Rounds are pure value data owned by a country or party; all
// state lives in the store, keyed by round ID rather than list position.
package election

import "time"

// Scope is the election category a round belongs to.
type Scope string

const (
	ScopePresident Scope = "president" // Country president
	ScopeCongress  Scope = "congress"  // Country congress, one seat race per region
	ScopeParty     Scope = "party"     // Party president
)

// Valid reports whether s names a supported voting scope.
func (s Scope) Valid() bool {
	return s == ScopePresident || s == ScopeCongress || s == ScopeParty
}

// Status is a round's position in the monthly cycle.
type Status string

const (
	StatusFiling Status = "filing" // Created, accepting candidates, not yet on the ballot
	StatusActive Status = "active" // Voting open
	StatusClosed Status = "closed" // Tallied, winner recorded
)

// Round is one instance of a recurring election for a scope and entity.
type Round struct {
	ID         string    `json:"id" db:"id"`
	Scope      Scope     `json:"scope" db:"scope"`
	EntityID   int64     `json:"entity" db:"entity_id"` // Country or party ID
	Status     Status    `json:"status" db:"status"`
	TargetDate string    `json:"date" db:"target_date"`
	System     string    `json:"system,omitempty" db:"system"` // Voting system snapshot, president scope only
	Winner     *int64    `json:"winner" db:"winner"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Candidate is one entrant in a round. The shape varies by scope:
// president candidates carry a sponsor and endorsements, congress
// candidates contest a region seat and need confirmation, party
// candidates are a bare vote counter.
type Candidate struct {
	RoundID   string `json:"-" db:"round_id"`
	UserID    int64  `json:"id" db:"user_id"`
	PartyID   *int64 `json:"party,omitempty" db:"party_id"`   // Sponsoring party
	RegionID  *int64 `json:"region,omitempty" db:"region_id"` // Congress seat contested
	Confirmed bool   `json:"confirmed" db:"confirmed"`
	Eligible  bool   `json:"eligible" db:"eligible"`
	Votes     int64  `json:"votes" db:"votes"`
	Electors  int64  `json:"electors" db:"electors"`
	XP        int64  `json:"-" db:"xp"` // Candidate's experience, for tie-breaks
}

// RegionTally is a president-scope vote record: one row per candidate
// per region, never an aggregated per-candidate total. Totals are summed
// at close time.
type RegionTally struct {
	RoundID  string `json:"-" db:"round_id"`
	UserID   int64  `json:"candidate" db:"user_id"`
	RegionID int64  `json:"region" db:"region_id"`
	Tally    int64  `json:"tally" db:"tally"`
}

// RegionResult records one region's outcome in an electoral-college
// round, kept for audit and display.
type RegionResult struct {
	RoundID  string `json:"-" db:"round_id"`
	RegionID int64  `json:"region" db:"region_id"`
	WinnerID int64  `json:"winner" db:"winner_id"`
	Electors int64  `json:"electors" db:"electors"`
	Votes    int64  `json:"votes" db:"votes"`
}

// TargetDate labels the cycle a newly created round runs in: one
// calendar month ahead of now.
func TargetDate(now time.Time) string {
	return now.AddDate(0, 1, 0).Format("Jan 2006")
}

// NextMidnightUTC returns the upcoming UTC midnight after now. A user's
// vote cooldown is advanced to this instant on every successful cast.
func NextMidnightUTC(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
