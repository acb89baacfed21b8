// Package nation holds the political entities of the game world:
// countries and their governments, parties, and citizens.
package nation

import "time"

// Voting systems a country can run its presidential elections under.
// The active round snapshots this value at activation time, so a
// mid-cycle change never alters an election already in progress.
const (
	SystemPopularVote      = "Popular Vote"
	SystemElectoralCollege = "Electoral College"
)

// Country is a playable nation.
type Country struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	FlagCode     string `json:"flag_code" db:"flag_code"`
	Currency     string `json:"currency" db:"currency"`
	VotingSystem string `json:"voting_system" db:"voting_system"`

	Government Government `json:"government"`
}

// Government is a country's elected leadership. The cabinet seats are
// appointed by the president and cleared on every presidential transition.
type Government struct {
	President        *int64  `json:"president" db:"president"`
	VP               *int64  `json:"vp" db:"vp"`
	ForeignMinister  *int64  `json:"mofa" db:"cabinet_mofa"`
	DefenseMinister  *int64  `json:"mod" db:"cabinet_mod"`
	TreasuryMinister *int64  `json:"mot" db:"cabinet_mot"`
	Congress         []int64 `json:"congress" db:"-"`
}

// CongressSeats derives a country's congress size from the number of
// regions it owns: two seats per region up to 25 regions, then one seat
// per additional region on top of the 50.
func CongressSeats(ownedRegions int) int {
	if ownedRegions <= 25 {
		return ownedRegions * 2
	}
	return 50 + (ownedRegions - 25)
}

// Party is a political party scoped to one country.
type Party struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	CountryID int64  `json:"country" db:"country_id"`
	President *int64 `json:"president" db:"president"`
	VP        *int64 `json:"vp" db:"vp"`
}

// User carries the citizen fields the election and travel systems need.
// Account management lives outside this service.
type User struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	XP        int64   `json:"xp" db:"xp"`
	Gold      float64 `json:"gold" db:"gold"`
	CountryID int64   `json:"country" db:"country_id"`
	RegionID  int64   `json:"location" db:"region_id"`
	PartyID   *int64  `json:"party" db:"party_id"`

	// CanVote is the earliest time the user may cast their next vote.
	// Nil means the user has never voted.
	CanVote *time.Time `json:"can_vote" db:"can_vote"`
}

// MayVote reports whether the user's vote cooldown has elapsed at now.
func (u *User) MayVote(now time.Time) bool {
	return u.CanVote == nil || !u.CanVote.After(now)
}
