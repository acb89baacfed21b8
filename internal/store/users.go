package store

import (
	"context"
	"time"

	"github.com/talgya/nationsim/internal/nation"
)

// User loads one user.
func (st *Store) User(ctx context.Context, id int64) (*nation.User, error) {
	var u nation.User
	if err := st.conn.GetContext(ctx, &u,
		"SELECT id, name, xp, gold, country_id, region_id, party_id, can_vote FROM users WHERE id = ?", id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// InsertUser adds a user during administrative seeding.
func (st *Store) InsertUser(ctx context.Context, u *nation.User) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT INTO users (id, name, xp, gold, country_id, region_id, party_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Name, u.XP, u.Gold, u.CountryID, u.RegionID, u.PartyID)
	return err
}

// SetCanVote advances a user's vote cooldown.
func (st *Store) SetCanVote(ctx context.Context, userID int64, until time.Time) error {
	res, err := st.conn.ExecContext(ctx,
		"UPDATE users SET can_vote = ? WHERE id = ?", until, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreditGold adds gold to a user's balance atomically.
func (st *Store) CreditGold(ctx context.Context, userID int64, amount float64) error {
	_, err := st.conn.ExecContext(ctx,
		"UPDATE users SET gold = gold + ? WHERE id = ?", amount, userID)
	return err
}

// MoveUser relocates a user and debits the travel cost in one update.
func (st *Store) MoveUser(ctx context.Context, userID, regionID int64, cost float64) error {
	res, err := st.conn.ExecContext(ctx,
		"UPDATE users SET region_id = ?, gold = gold - ? WHERE id = ?",
		regionID, cost, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// XPByUser returns experience points for a set of users, for tie-breaks.
func (st *Store) XPByUser(ctx context.Context, ids []int64) (map[int64]int64, error) {
	xp := make(map[int64]int64, len(ids))
	for _, id := range ids {
		var v int64
		if err := st.conn.GetContext(ctx, &v,
			"SELECT xp FROM users WHERE id = ?", id); err != nil {
			return nil, notFound(err)
		}
		xp[id] = v
	}
	return xp, nil
}

// AddAlert queues a notification for a user.
func (st *Store) AddAlert(ctx context.Context, userID int64, message string) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT INTO alerts (user_id, message, created_at) VALUES (?, ?, ?)",
		userID, message, time.Now().UTC())
	return err
}

// Alert is a queued user notification.
type Alert struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"-" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Alerts returns a user's notifications, newest first.
func (st *Store) Alerts(ctx context.Context, userID int64) ([]Alert, error) {
	var alerts []Alert
	err := st.conn.SelectContext(ctx, &alerts,
		"SELECT id, user_id, message, read, created_at FROM alerts WHERE user_id = ? ORDER BY id DESC",
		userID)
	return alerts, err
}
