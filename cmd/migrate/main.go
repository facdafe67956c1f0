package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/liamcoop/modelbench/internal/config"
	"github.com/liamcoop/modelbench/internal/logger"
)

const usage = "Migration command: up, down, steps <n>, version, force <version>"

func main() {
	var databaseURL string
	var migrationsPath string
	var command string

	flag.StringVar(&databaseURL, "database", "", "Database URL (defaults to DATABASE_URL)")
	flag.StringVar(&migrationsPath, "path", "migrations", "Path to the results schema migrations")
	flag.StringVar(&command, "command", "up", usage)
	flag.Parse()

	if databaseURL == "" {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("failed to load configuration", "error", err)
		}
		databaseURL = cfg.DatabaseURL
	}
	if databaseURL == "" {
		logger.Fatal("database URL is required, use -database or DATABASE_URL")
	}

	logger.Info("connecting to database", "migrations", migrationsPath)

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		logger.Fatal("failed to create migration instance", "error", err)
	}
	defer m.Close()

	if err := run(m, command, flag.Args()); err != nil {
		logger.Fatal("migration failed", "command", command, "error", err)
	}
}

func run(m *migrate.Migrate, command string, args []string) error {
	switch command {
	case "up":
		return noChangeOK(m.Up(), "results schema is up to date")

	case "down":
		return noChangeOK(m.Down(), "nothing to roll back")

	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return noChangeOK(m.Steps(n), "no steps applied")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Info("current version", "version", version, "dirty", dirty)
		return nil

	case "force":
		version, err := intArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
		logger.Info("forced version", "version", version)
		return nil

	default:
		return fmt.Errorf("unknown command %q (%s)", command, usage)
	}
}

func noChangeOK(err error, message string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(message)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("command requires a numeric argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: migrate [-database url] [-path dir] -command <cmd> [arg]\n")
		flag.PrintDefaults()
	}
}
