// Command worldseed generates a demo world into the store: countries,
// regions with noise-derived border geometry and adjacency, citizens,
// and parties. Deterministic from the seed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/nationsim/internal/api"
	"github.com/talgya/nationsim/internal/config"
	"github.com/talgya/nationsim/internal/nation"
	"github.com/talgya/nationsim/internal/store"
	"github.com/talgya/nationsim/internal/world"
)

var countryNames = []string{
	"Arcadia", "Borland", "Cascadia", "Drakmar", "Elyria", "Felstead",
}

var currencies = []string{
	"ARC", "BOR", "CSD", "DRK", "ELY", "FEL",
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	seed := flag.Int64("seed", 42, "world generation seed")
	countries := flag.Int("countries", 4, "number of countries (max 6)")
	regionsPer := flag.Int("regions", 8, "regions per country")
	citizensPer := flag.Int("citizens", 30, "citizens per country")
	flag.Parse()

	if *countries > len(countryNames) {
		*countries = len(countryNames)
	}

	cfg := config.Load()
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(*seed))
	borderNoise := opensimplex.NewNormalized(*seed)

	totalRegions := *countries * *regionsPer
	totalGold := 0.0

	// ── Countries ─────────────────────────────────────────────────────
	for c := 0; c < *countries; c++ {
		system := nation.SystemPopularVote
		if c%2 == 1 {
			system = nation.SystemElectoralCollege
		}
		country := &nation.Country{
			ID:           int64(c + 1),
			Name:         countryNames[c],
			FlagCode:     countryNames[c][:3],
			Currency:     currencies[c],
			VotingSystem: system,
		}
		if err := st.InsertCountry(ctx, country); err != nil {
			slog.Error("insert country", "name", country.Name, "error", err)
			os.Exit(1)
		}

		party := &nation.Party{
			ID:        int64(c + 1),
			Name:      countryNames[c] + " National Party",
			CountryID: country.ID,
		}
		if err := st.InsertParty(ctx, party); err != nil {
			slog.Error("insert party", "name", party.Name, "error", err)
			os.Exit(1)
		}
	}

	// ── Regions ───────────────────────────────────────────────────────
	// Regions are laid out on a ring per country; adjacency links each
	// region to its ring neighbors plus one cross-country bridge, so
	// every pair of regions has some route.
	for id := int64(1); id <= int64(totalRegions); id++ {
		countryID := (id-1)/int64(*regionsPer) + 1
		r := &world.Region{
			ID:       id,
			Name:     fmt.Sprintf("%s Province %d", countryNames[countryID-1], (id-1)%int64(*regionsPer)+1),
			Owner:    countryID,
			Core:     countryID,
			Geometry: regionBorders(borderNoise, id),
		}

		// Ring neighbors within the country.
		base := (countryID - 1) * int64(*regionsPer)
		local := id - base // 1-based within country
		next := base + local%int64(*regionsPer) + 1
		prev := base + (local+int64(*regionsPer)-2)%int64(*regionsPer) + 1
		r.Neighbors = []int64{prev, next}

		// First region of each country bridges to the previous country's
		// first region.
		if local == 1 && countryID > 1 {
			r.Neighbors = append(r.Neighbors, (countryID-2)*int64(*regionsPer)+1)
		}
		if local == 1 && countryID < int64(*countries) {
			r.Neighbors = append(r.Neighbors, countryID*int64(*regionsPer)+1)
		}

		if err := st.InsertRegion(ctx, r); err != nil {
			slog.Error("insert region", "id", id, "error", err)
			os.Exit(1)
		}
	}

	// ── Citizens ──────────────────────────────────────────────────────
	userID := int64(0)
	for c := int64(1); c <= int64(*countries); c++ {
		base := (c - 1) * int64(*regionsPer)
		for i := 0; i < *citizensPer; i++ {
			userID++
			gold := math.Round(rng.Float64()*5000) / 100
			totalGold += gold
			u := &nation.User{
				ID:        userID,
				Name:      fmt.Sprintf("citizen-%d", userID),
				XP:        int64(rng.Intn(500)),
				Gold:      gold,
				CountryID: c,
				RegionID:  base + int64(rng.Intn(*regionsPer)) + 1,
			}
			if err := st.InsertUser(ctx, u); err != nil {
				slog.Error("insert user", "id", userID, "error", err)
				os.Exit(1)
			}
			// Roughly half of each country joins the national party.
			if rng.Float64() < 0.5 {
				if err := st.AddPartyMember(ctx, c, userID); err != nil {
					slog.Error("add party member", "id", userID, "error", err)
					os.Exit(1)
				}
			}
		}
	}

	slog.Info("world seeded",
		"countries", *countries,
		"regions", totalRegions,
		"citizens", userID,
		"total_gold", humanize.Commaf(math.Round(totalGold)),
	)

	if cfg.JWTSecret != "" {
		token, err := api.MintToken(cfg.JWTSecret, 1, 7*24*time.Hour)
		if err == nil {
			fmt.Printf("demo token for citizen-1: %s\n", token)
		}
	}
}

// regionBorders samples the noise field into a small border polygon
// around the region's slot on the world ring. Map rendering only; the
// path engine never reads geometry.
func regionBorders(noise opensimplex.Noise, id int64) []world.GeoPoint {
	const points = 8
	centerLat := 20.0 + 5.0*math.Sin(float64(id))
	centerLng := float64(id) * 7.5

	borders := make([]world.GeoPoint, 0, points)
	for p := 0; p < points; p++ {
		angle := 2 * math.Pi * float64(p) / points
		wobble := 0.5 + noise.Eval2(float64(id)*0.3, float64(p)*0.7)
		borders = append(borders, world.GeoPoint{
			Lat: centerLat + wobble*math.Sin(angle),
			Lng: centerLng + wobble*math.Cos(angle),
		})
	}
	return borders
}
