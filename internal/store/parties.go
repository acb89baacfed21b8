package store

import (
	"context"

	"github.com/talgya/nationsim/internal/nation"
)

// Party loads one party.
func (st *Store) Party(ctx context.Context, id int64) (*nation.Party, error) {
	var p nation.Party
	if err := st.conn.GetContext(ctx, &p,
		"SELECT id, name, country_id, president, vp FROM parties WHERE id = ?", id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Parties loads every party.
func (st *Store) Parties(ctx context.Context) ([]*nation.Party, error) {
	var parties []*nation.Party
	err := st.conn.SelectContext(ctx, &parties,
		"SELECT id, name, country_id, president, vp FROM parties ORDER BY id")
	return parties, err
}

// InsertParty adds a party during administrative seeding.
func (st *Store) InsertParty(ctx context.Context, p *nation.Party) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT INTO parties (id, name, country_id) VALUES (?, ?, ?)",
		p.ID, p.Name, p.CountryID)
	return err
}

// SetPartyPresident installs a party president; nil vacates the office.
func (st *Store) SetPartyPresident(ctx context.Context, partyID int64, president *int64) error {
	_, err := st.conn.ExecContext(ctx,
		"UPDATE parties SET president = ? WHERE id = ?", president, partyID)
	return err
}

// IsPartyMember reports whether the user belongs to the party.
func (st *Store) IsPartyMember(ctx context.Context, partyID, userID int64) (bool, error) {
	var member bool
	err := st.conn.GetContext(ctx, &member,
		"SELECT EXISTS(SELECT 1 FROM party_members WHERE party_id = ? AND user_id = ?)",
		partyID, userID)
	return member, err
}

// AddPartyMember records party membership and points the user's
// affiliation at the party.
func (st *Store) AddPartyMember(ctx context.Context, partyID, userID int64) error {
	if _, err := st.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO party_members (party_id, user_id) VALUES (?, ?)",
		partyID, userID); err != nil {
		return err
	}
	_, err := st.conn.ExecContext(ctx,
		"UPDATE users SET party_id = ? WHERE id = ?", partyID, userID)
	return err
}
