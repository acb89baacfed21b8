package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/nationsim/internal/nation"
)

type countryRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	FlagCode     string `db:"flag_code"`
	Currency     string `db:"currency"`
	VotingSystem string `db:"voting_system"`
	President    *int64 `db:"president"`
	VP           *int64 `db:"vp"`
	MOFA         *int64 `db:"cabinet_mofa"`
	MOD          *int64 `db:"cabinet_mod"`
	MOT          *int64 `db:"cabinet_mot"`
}

func (row countryRow) toCountry() *nation.Country {
	return &nation.Country{
		ID:           row.ID,
		Name:         row.Name,
		FlagCode:     row.FlagCode,
		Currency:     row.Currency,
		VotingSystem: row.VotingSystem,
		Government: nation.Government{
			President:        row.President,
			VP:               row.VP,
			ForeignMinister:  row.MOFA,
			DefenseMinister:  row.MOD,
			TreasuryMinister: row.MOT,
		},
	}
}

const countryCols = "id, name, flag_code, currency, voting_system, president, vp, cabinet_mofa, cabinet_mod, cabinet_mot"

// Country loads one country with its congress membership.
func (st *Store) Country(ctx context.Context, id int64) (*nation.Country, error) {
	var row countryRow
	if err := st.conn.GetContext(ctx, &row,
		"SELECT "+countryCols+" FROM countries WHERE id = ?", id); err != nil {
		return nil, notFound(err)
	}
	c := row.toCountry()
	if err := st.conn.SelectContext(ctx, &c.Government.Congress,
		"SELECT user_id FROM congress_members WHERE country_id = ? ORDER BY user_id", id); err != nil {
		return nil, err
	}
	return c, nil
}

// Countries loads every country, without congress lists.
func (st *Store) Countries(ctx context.Context) ([]*nation.Country, error) {
	var rows []countryRow
	if err := st.conn.SelectContext(ctx, &rows,
		"SELECT "+countryCols+" FROM countries ORDER BY id"); err != nil {
		return nil, err
	}
	countries := make([]*nation.Country, 0, len(rows))
	for _, row := range rows {
		countries = append(countries, row.toCountry())
	}
	return countries, nil
}

// InsertCountry adds a country during administrative seeding.
func (st *Store) InsertCountry(ctx context.Context, c *nation.Country) error {
	_, err := st.conn.ExecContext(ctx,
		"INSERT INTO countries (id, name, flag_code, currency, voting_system) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Name, c.FlagCode, c.Currency, c.VotingSystem)
	return err
}

// SetPresident installs a new country president. The vice president and
// every cabinet seat are cleared on the transition; a nil winner leaves
// the office vacant.
func (st *Store) SetPresident(ctx context.Context, countryID int64, president *int64) error {
	_, err := st.conn.ExecContext(ctx,
		`UPDATE countries SET president = ?, vp = NULL,
		 cabinet_mofa = NULL, cabinet_mod = NULL, cabinet_mot = NULL WHERE id = ?`,
		president, countryID)
	return err
}

// SetCongress replaces a country's congress membership.
func (st *Store) SetCongress(ctx context.Context, countryID int64, members []int64) error {
	return st.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM congress_members WHERE country_id = ?", countryID); err != nil {
			return err
		}
		for _, uid := range members {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO congress_members (country_id, user_id) VALUES (?, ?)",
				countryID, uid); err != nil {
				return err
			}
		}
		return nil
	})
}

// Population returns a country's citizen count.
func (st *Store) Population(ctx context.Context, countryID int64) (int64, error) {
	var n int64
	err := st.conn.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE country_id = ?", countryID)
	return n, err
}

// RegionPopulations returns citizen counts per residence region for one
// country, the population weights of the electoral college.
func (st *Store) RegionPopulations(ctx context.Context, countryID int64) (map[int64]int64, error) {
	var rows []struct {
		RegionID int64 `db:"region_id"`
		N        int64 `db:"n"`
	}
	if err := st.conn.SelectContext(ctx, &rows,
		"SELECT region_id, COUNT(*) AS n FROM users WHERE country_id = ? GROUP BY region_id", countryID); err != nil {
		return nil, err
	}
	pops := make(map[int64]int64, len(rows))
	for _, row := range rows {
		pops[row.RegionID] = row.N
	}
	return pops, nil
}
