// Command seed loads a JSON fixture into the Conduit database.
//
//	go run ./cmd/seed -file testdata/fixture.json
//	go run ./cmd/seed -clear                       # empty every table
//	go run ./cmd/seed -clear -file fixture.json    # reset, then load
//
// It reads DB_PATH and BCRYPT_COST the same way the server does.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/config"
	"github.com/sakif/conduit/internal/logger"
	sqliteRepo "github.com/sakif/conduit/internal/repository/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "path to a JSON fixture")
	reset := flag.Bool("clear", false, "delete all rows before seeding")
	flag.Parse()

	if *file == "" && !*reset {
		flag.Usage()
		return errors.New("nothing to do: pass -file and/or -clear")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	if *reset {
		if err := db.Clear(ctx); err != nil {
			return err
		}
		log.Info("database cleared", slog.String("database", cfg.DBPath))
	}

	if *file == "" {
		return nil
	}

	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return err
	}

	r, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer r.Close()

	existing := noExistingIDs
	if !*reset {
		existing = lookupIDs(ctx, db)
	}

	fixture, err := loadFixture(r, passwords, existing)
	if err != nil {
		return fmt.Errorf("%s: %w", *file, err)
	}
	if err := db.Seed(ctx, fixture); err != nil {
		return err
	}

	log.Info("database seeded",
		slog.String("database", cfg.DBPath),
		slog.Int("users", len(fixture.Users)),
		slog.Int("articles", len(fixture.Articles)),
		slog.Int("comments", len(fixture.Comments)),
	)
	return nil
}

// lookupIDs resolves usernames and slugs against rows already stored in db.
func lookupIDs(ctx context.Context, db *sqliteRepo.DB) existingIDs {
	return existingIDs{
		user: func(username string) (string, error) {
			u, err := db.Users().GetByUsername(ctx, username)
			if errors.Is(err, apperror.ErrNotFound) {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			return u.ID, nil
		},
		article: func(slug string) (string, error) {
			a, err := db.Articles().GetBySlug(ctx, slug)
			if errors.Is(err, apperror.ErrNotFound) {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			return a.ID, nil
		},
	}
}
