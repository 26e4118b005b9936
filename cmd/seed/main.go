package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tripmate/tripmate-api/pkg/config"
	"github.com/tripmate/tripmate-api/pkg/database"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

// Development seed: pre-verified accounts and a starter tour catalog.
// Safe to run repeatedly; existing rows are left alone.

type seedUser struct {
	email    string
	name     string
	password string
	role     string
}

type seedTour struct {
	title       string
	description string
	location    string
	price       float64
	startIn     time.Duration
	days        int
	capacity    int
	category    string
}

var seedUsers = []seedUser{
	{"admin@tripmate.dev", "TripMate Admin", "admin123", "ADMIN"},
	{"guide@tripmate.dev", "Amina the Guide", "guide123", "GUIDE"},
	{"demo@tripmate.dev", "Demo Traveler", "demo123", "USER"},
}

var seedTours = []seedTour{
	{"Sahara Camel Trek", "Three days across the dunes with Berber guides, camping under the stars.", "Merzouga, Morocco", 349, 30 * 24 * time.Hour, 3, 12, "Adventure"},
	{"Fjord Kayaking Expedition", "Paddle the Naeroyfjord with a certified sea-kayak guide.", "Gudvangen, Norway", 499, 45 * 24 * time.Hour, 2, 8, "Adventure"},
	{"Kyoto Temple Walk", "A slow-paced walking tour of Arashiyama and the northern temples.", "Kyoto, Japan", 129, 21 * 24 * time.Hour, 1, 16, "Cultural"},
	{"Tuscany Food and Wine", "Markets, vineyards and a hands-on pasta workshop in the Chianti hills.", "Siena, Italy", 279, 60 * 24 * time.Hour, 2, 10, "Food"},
	{"Great Barrier Reef Dive", "Two-dive day trip to the outer reef, gear and lunch included.", "Cairns, Australia", 389, 90 * 24 * time.Hour, 1, 20, "Beach"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := run(ctx, pool); err != nil {
		logger.Error("Seed failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("seed completed")
}

func run(ctx context.Context, pool *pgxpool.Pool) error {
	guideID, err := seedAccounts(ctx, pool)
	if err != nil {
		return err
	}
	return seedCatalog(ctx, pool, guideID)
}

// seedAccounts upserts the fixed accounts and returns the guide's id for
// tour ownership.
func seedAccounts(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	var guideID string

	for _, u := range seedUsers {
		hash, err := argon2id.CreateHash(u.password, argon2id.DefaultParams)
		if err != nil {
			return "", fmt.Errorf("hash password for %s: %w", u.email, err)
		}

		var id string
		err = pool.QueryRow(ctx, `
			INSERT INTO users (id, email, name, password_hash, role, is_verified)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role
			RETURNING id`,
			uuid.NewString(), u.email, u.name, hash, u.role,
		).Scan(&id)
		if err != nil {
			return "", fmt.Errorf("seed user %s: %w", u.email, err)
		}

		if u.role == "GUIDE" {
			guideID = id
		}
		logger.Info("Seeded user", "email", u.email, "role", u.role)
	}

	return guideID, nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, guideID string) error {
	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM tours`).Scan(&existing); err != nil {
		return fmt.Errorf("count tours: %w", err)
	}
	if existing > 0 {
		logger.Info("Tour catalog already populated, skipping", "count", existing)
		return nil
	}

	for _, tr := range seedTours {
		start := time.Now().Add(tr.startIn)
		end := start.Add(time.Duration(tr.days) * 24 * time.Hour)

		_, err := pool.Exec(ctx, `
			INSERT INTO tours (id, title, description, location, price,
				start_date, end_date, capacity, category, guide_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(), tr.title, tr.description, tr.location, tr.price,
			start, end, tr.capacity, tr.category, guideID,
		)
		if err != nil {
			return fmt.Errorf("seed tour %s: %w", tr.title, err)
		}
		logger.Info("Seeded tour", "title", tr.title)
	}

	return nil
}
