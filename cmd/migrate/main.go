package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/database"
)

func main() {
	// Configure zerolog for pretty console output
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		command     string
		steps       int
		databaseURL string
	)

	flag.StringVar(&command, "command", "up", "Migration command: up, down, force, version")
	flag.IntVar(&steps, "steps", 1, "Number of migrations to roll back, or the version for force")
	flag.StringVar(&databaseURL, "database", "", "Database URL (overrides DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL environment variable or -database flag is required")
	}

	log.Info().Str("command", command).Int("steps", steps).Msg("Starting migration")

	var err error
	switch command {
	case "up":
		err = database.RunMigrations(databaseURL)
	case "down":
		err = database.RollbackMigration(databaseURL, steps)
	case "force":
		err = withMigrator(databaseURL, func(m *migrate.Migrate) error { return m.Force(steps) })
	case "version":
		err = withMigrator(databaseURL, func(m *migrate.Migrate) error {
			version, dirty, verr := m.Version()
			if errors.Is(verr, migrate.ErrNilVersion) {
				log.Info().Msg("No migrations have been applied yet")
				return nil
			}
			if verr != nil {
				return verr
			}
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")
			return nil
		})
	default:
		log.Fatal().Str("command", command).Msg("Unknown command")
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Msg("Migration completed successfully")
}

func withMigrator(databaseURL string, fn func(m *migrate.Migrate) error) error {
	m, err := database.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
