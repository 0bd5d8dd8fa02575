package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/app"
	"github.com/jwalitptl/salon-api/internal/config"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/migrations"
	"github.com/jwalitptl/salon-api/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a config file")
		command    = flag.String("command", "up", "migration command (up, down, steps, force, version, seed)")
		steps      = flag.Int("steps", 1, "number of steps for the steps command, negative to roll back")
		version    = flag.Int("version", 0, "version for the force command")
		username   = flag.String("admin-username", "admin", "username of the super admin created by seed")
		email      = flag.String("admin-email", "admin@localhost", "email of the super admin created by seed")
		firstName  = flag.String("admin-first-name", "Platform", "first name of the super admin created by seed")
		lastName   = flag.String("admin-last-name", "Admin", "last name of the super admin created by seed")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: "console"})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if *command == "seed" {
		password := os.Getenv("SALON_ADMIN_PASSWORD")
		if password == "" {
			log.Fatal().Msg("SALON_ADMIN_PASSWORD must be set for seed")
		}
		_, err := app.SeedSuperAdmin(context.Background(), db, &model.CreateUserRequest{
			Username:  *username,
			Email:     *email,
			Password:  password,
			FirstName: *firstName,
			LastName:  *lastName,
		}, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed super admin")
		}
		return
	}

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migration driver")
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open embedded migrations")
	}
	m, err := migrate.NewWithInstance("iofs", source, cfg.Database.Name, driver)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrator")
	}

	switch *command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(*steps)
	case "force":
		err = m.Force(*version)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatal().Err(verr).Msg("failed to read migration version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("current migration version")
		return
	default:
		log.Fatal().Str("command", *command).Msg("unknown migration command")
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("command", *command).Msg("migration failed")
	}
	log.Info().Str("command", *command).Msg("migrations applied")
}
