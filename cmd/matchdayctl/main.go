package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"matchday/internal/auth"
	"matchday/internal/config"
	"matchday/internal/database"
	"matchday/internal/jobs"
	"matchday/internal/logging"
	"matchday/internal/metrics"
	"matchday/internal/repository"
	"matchday/internal/seed"
	"matchday/internal/services"
	"matchday/internal/storage"
	"matchday/internal/validation"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "matchdayctl",
		Usage: "maintenance commands for the matchday database",
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.App.Env, cfg.App.LogLevel)
			c.Context = logger.WithContext(c.Context)
			c.App.Metadata = map[string]interface{}{"config": cfg}
			return nil
		},
		Commands: []*cli.Command{
			migrateCommand(),
			sqlCommand(),
			seedCommand(),
			scoreCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func loadConfig(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}

func connect(c *cli.Context) (*gorm.DB, error) {
	cfg := loadConfig(c)
	return database.Connect(database.Options{Driver: cfg.Database.Driver, DSN: cfg.GetDSN()})
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the schema",
		Action: func(c *cli.Context) error {
			db, err := connect(c)
			if err != nil {
				return err
			}
			return database.AutoMigrate(db)
		},
	}
}

// sqlCommand applies hand-written migration files against postgres.
func sqlCommand() *cli.Command {
	return &cli.Command{
		Name:      "sql",
		Usage:     "execute SQL files against the postgres database",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			cfg := loadConfig(c)
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("sql requires DB_DRIVER=postgres, got %q", cfg.Database.Driver)
			}
			if c.NArg() == 0 {
				return cli.Exit("at least one SQL file is required", 2)
			}

			db, err := sql.Open("postgres", cfg.GetDSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.PingContext(c.Context); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			for _, path := range c.Args().Slice() {
				script, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				if strings.TrimSpace(string(script)) == "" {
					log.Warn().Str("file", path).Msg("skipping empty file")
					continue
				}
				if _, err := db.ExecContext(c.Context, string(script)); err != nil {
					return fmt.Errorf("execute %s: %w", path, err)
				}
				log.Info().Str("file", path).Msg("sql file applied")
			}
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "fill the database with demo users, teams, matches and predictions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 5},
			&cli.IntFlag{Name: "teams", Value: 8},
			&cli.IntFlag{Name: "matches", Value: 20},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed, 0 for a random one"},
		},
		Action: func(c *cli.Context) error {
			cfg := loadConfig(c)
			db, err := connect(c)
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			store, err := storage.Open(c.Context, cfg.Storage)
			if err != nil {
				return err
			}
			auth.InitJWT(cfg.App.JWTSecret, time.Duration(cfg.App.JWTExpiryHours)*time.Hour)

			repo := repository.NewRepository(db)
			m := metrics.New()
			rules := validation.Rules{ProbabilityTolerance: cfg.Prediction.ProbabilityTolerance}
			res, err := seed.Run(c.Context, seed.Services{
				Auth:        services.NewAuthService(repo),
				Teams:       services.NewTeamService(repo, store, m, cfg.Storage.MaxLogoBytes),
				Matches:     services.NewMatchService(repo, m),
				Predictions: services.NewPredictionService(repo, rules, m),
			}, seed.Options{
				Users:   c.Int("users"),
				Teams:   c.Int("teams"),
				Matches: c.Int("matches"),
				Seed:    c.Uint64("seed"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d users, %d teams, %d matches, %d predictions\n", res.Users, res.Teams, res.Matches, res.Predictions)
			return nil
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "award points for every finished match once and exit",
		Action: func(c *cli.Context) error {
			db, err := connect(c)
			if err != nil {
				return err
			}
			scorer := services.NewScoringService(repository.NewRepository(db), metrics.New())
			n, err := jobs.NewScoringJob(scorer, time.Minute, log.Logger).RunOnce(c.Context)
			fmt.Printf("scored %d predictions\n", n)
			if err != nil {
				return fmt.Errorf("scoring failed after %d predictions: %w", n, err)
			}
			return nil
		},
	}
}
