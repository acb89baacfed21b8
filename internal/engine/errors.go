// Package engine drives the recurring election cycle and the
// player-facing game actions built on it: vote casting, candidacy
// filing, and region travel.
package engine

import "errors"

// Domain errors surfaced to the API layer. NotFound conditions reuse
// the store sentinel; these cover the request-shaped failures.
var (
	ErrUnsupportedScope  = errors.New("unsupported voting scope")
	ErrVoteCooldown      = errors.New("already voted today")
	ErrAlreadyVoted      = errors.New("already voted in this round")
	ErrNoActiveRound     = errors.New("no active election round")
	ErrNoFilingRound     = errors.New("no election round accepting candidates")
	ErrNotPartyMember    = errors.New("not a party member")
	ErrNotPartyPresident = errors.New("not a party president")
	ErrSameRegion        = errors.New("already located in region")
	ErrInsufficientGold  = errors.New("insufficient funds")
)
