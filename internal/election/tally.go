package election

import (
	"math"
	"sort"
)

// PluralityWinner resolves a simple highest-vote-count race, used for
// party president rounds. Among tied candidates the highest experience
// wins; ties in experience go to the first candidate encountered.
// Returns 0 when the round has no candidates.
func PluralityWinner(cands []Candidate) int64 {
	var maxVotes int64
	var tied []Candidate
	for _, c := range cands {
		if c.Votes > maxVotes {
			maxVotes = c.Votes
			tied = tied[:0]
			tied = append(tied, c)
		} else if c.Votes == maxVotes {
			tied = append(tied, c)
		}
	}
	return breakTie(tied)
}

// breakTie picks the highest-experience candidate, first encountered on
// equal experience.
func breakTie(tied []Candidate) int64 {
	var winner int64
	maxXP := int64(-1)
	for _, c := range tied {
		if c.XP > maxXP {
			maxXP = c.XP
			winner = c.UserID
		}
	}
	return winner
}

// ApportionCongress awards a country's congress seats across the
// region-grouped candidate field. Within each region candidates rank by
// votes descending, experience descending. Seats are drawn round-robin,
// one region at a time, until the seat budget is exhausted or every
// region is out of candidates. Region draw order is ascending region ID
// so repeated closes of the same round agree.
func ApportionCongress(cands []Candidate, seats int) []int64 {
	byRegion := make(map[int64][]Candidate)
	for _, c := range cands {
		if c.RegionID == nil {
			continue
		}
		byRegion[*c.RegionID] = append(byRegion[*c.RegionID], c)
	}

	regionIDs := make([]int64, 0, len(byRegion))
	for id, group := range byRegion {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Votes != group[j].Votes {
				return group[i].Votes > group[j].Votes
			}
			return group[i].XP > group[j].XP
		})
		byRegion[id] = group
		regionIDs = append(regionIDs, id)
	}
	sort.Slice(regionIDs, func(i, j int) bool { return regionIDs[i] < regionIDs[j] })

	var winners []int64
	for seats > len(winners) {
		drawn := false
		for _, id := range regionIDs {
			if seats == len(winners) {
				break
			}
			group := byRegion[id]
			if len(group) == 0 {
				continue
			}
			winners = append(winners, group[0].UserID)
			byRegion[id] = group[1:]
			drawn = true
		}
		if !drawn {
			break
		}
	}
	return winners
}

// PopularVoteResult sums each candidate's per-region tallies and picks
// the highest total, with the usual experience tie-break. The totals map
// is zero-initialized for every candidate so a zero-vote field still
// closes cleanly.
func PopularVoteResult(cands []Candidate, tallies []RegionTally) (winner int64, totals map[int64]int64) {
	totals = make(map[int64]int64, len(cands))
	for _, c := range cands {
		totals[c.UserID] = 0
	}
	for _, t := range tallies {
		if _, ok := totals[t.UserID]; ok {
			totals[t.UserID] += t.Tally
		}
	}

	var maxVotes int64
	var tied []Candidate
	for _, c := range cands {
		switch v := totals[c.UserID]; {
		case v > maxVotes:
			maxVotes = v
			tied = tied[:0]
			tied = append(tied, c)
		case v == maxVotes:
			tied = append(tied, c)
		}
	}
	return breakTie(tied), totals
}

// ElectoralCollegeResult runs the two-stage presidential tally:
// each region that received votes is won by its top candidate, the
// region contributes round(totalElectors × regionPop / countryPop)
// electors to its winner, and the highest national elector total takes
// the country. Experience breaks ties at both stages. The per-region
// results are returned for audit alongside per-candidate elector totals.
func ElectoralCollegeResult(cands []Candidate, tallies []RegionTally,
	regionPop map[int64]int64, countryPop int64, totalElectors int) (winner int64, electors map[int64]int64, results []RegionResult) {

	xp := make(map[int64]int64, len(cands))
	for _, c := range cands {
		xp[c.UserID] = c.XP
	}

	// Stage one: per-region winners among candidates with recorded votes.
	type regionRace struct {
		votes map[int64]int64
		total int64
	}
	races := make(map[int64]*regionRace)
	for _, t := range tallies {
		if _, ok := xp[t.UserID]; !ok {
			continue // Vote for a candidate filtered off the ballot
		}
		race := races[t.RegionID]
		if race == nil {
			race = &regionRace{votes: make(map[int64]int64)}
			races[t.RegionID] = race
		}
		race.votes[t.UserID] += t.Tally
		race.total += t.Tally
	}

	regionIDs := make([]int64, 0, len(races))
	for id := range races {
		regionIDs = append(regionIDs, id)
	}
	sort.Slice(regionIDs, func(i, j int) bool { return regionIDs[i] < regionIDs[j] })

	electors = make(map[int64]int64, len(cands))
	for _, c := range cands {
		electors[c.UserID] = 0
	}

	for _, regionID := range regionIDs {
		race := races[regionID]

		var regionWinner int64
		var maxVotes int64
		maxXP := int64(-1)
		candidateIDs := make([]int64, 0, len(race.votes))
		for id := range race.votes {
			candidateIDs = append(candidateIDs, id)
		}
		sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })
		for _, id := range candidateIDs {
			v := race.votes[id]
			if v > maxVotes || (v == maxVotes && xp[id] > maxXP) {
				maxVotes = v
				maxXP = xp[id]
				regionWinner = id
			}
		}

		// Stage two weight: the region's share of the elector pool.
		var weight int64
		if countryPop > 0 {
			weight = int64(math.Round(float64(totalElectors) * float64(regionPop[regionID]) / float64(countryPop)))
		}
		electors[regionWinner] += weight

		results = append(results, RegionResult{
			RegionID: regionID,
			WinnerID: regionWinner,
			Electors: weight,
			Votes:    race.total,
		})
	}

	// National winner by elector total, experience tie-break.
	var maxElectors int64
	var tied []Candidate
	for _, c := range cands {
		switch e := electors[c.UserID]; {
		case e > maxElectors:
			maxElectors = e
			tied = tied[:0]
			tied = append(tied, c)
		case e == maxElectors:
			tied = append(tied, c)
		}
	}
	return breakTie(tied), electors, results
}
