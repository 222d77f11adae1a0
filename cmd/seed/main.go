package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pagemill/cms-backend/internal/auth"
)

// CLI flags
var (
	filePath = flag.String("file", "users.yaml", "Path to the YAML users file")
	dsn      = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun   = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
)

// YAML contract:
//
//	users:
//	  - email: admin@example.com
//	    name: Admin
//	    password: "ChangeMe!now"
//	    admin: true
//
// Existing accounts keep their password; only the admin flag is updated.
// This CLI is the out-of-band path for granting or revoking admin: no HTTP
// endpoint ever touches the flag.

type seedUser struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

type seedDoc struct {
	Users []seedUser `yaml:"users"`
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	doc, err := loadSeed(*filePath)
	if err != nil {
		fatalf("seed file error: %v", err)
	}
	fmt.Printf("Loaded %d users from %s\n", len(doc.Users), *filePath)

	if *dryRun {
		fmt.Println("Dry run: no database writes performed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("open database: %v", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.PingContext(ctx); err != nil {
		fatalf("ping database: %v", err)
	}

	// Library-default costs; each hash records its own parameters, so the
	// server verifies these regardless of its HASH_* settings.
	hasher := auth.NewHasher(0, 0, 0)
	for _, u := range doc.Users {
		if err := upsertUser(ctx, sqlDB, hasher, u); err != nil {
			fatalf("seed %s: %v", u.Email, err)
		}
		fmt.Printf("Seeded %s (admin=%v)\n", u.Email, u.Admin)
	}
}

func loadSeed(path string) (*seedDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc seedDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for _, u := range doc.Users {
		if strings.TrimSpace(u.Email) == "" || u.Password == "" {
			return nil, fmt.Errorf("every user needs an email and a password")
		}
	}
	return &doc, nil
}

func upsertUser(ctx context.Context, sqlDB *sql.DB, hasher *auth.Hasher, u seedUser) error {
	hash, salt, err := hasher.Hash(u.Password)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO app_auth.users (user_id, email, name, password_hash, password_salt, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (email) DO UPDATE SET is_admin = EXCLUDED.is_admin
	`
	_, err = sqlDB.ExecContext(ctx, q,
		uuid.New().String(),
		auth.NormalizeEmail(u.Email),
		strings.TrimSpace(u.Name),
		hash,
		salt,
		u.Admin,
	)
	return err
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
