package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"backend-fittrack/internal/config"
	"backend-fittrack/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
}

var newMigrator = func(sourceURL, databaseURL string) (migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

func main() {
	cfg := config.Load()
	log := logging.New(os.Stderr, cfg.LogLevel).With("component", "migrate")

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := run(cfg, cmd, log); err != nil {
		log.Error("migration failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, cmd string, log *slog.Logger) error {
	dir, err := findMigrationsDir()
	if err != nil {
		return err
	}
	m, err := newMigrator("file://"+dir, cfg.PostgresURL)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		err = m.Steps(1)
	case "rollback":
		err = m.Steps(-1)
	case "version":
	default:
		return fmt.Errorf("unknown command %q (want up, down, step, rollback or version)", cmd)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	log.Info("migration complete", "command", cmd, "version", version, "dirty", dirty)
	return nil
}

// findMigrationsDir looks for migrations/ in the working directory, its
// parents, and next to the executable.
func findMigrationsDir() (string, error) {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		current := cwd
		for i := 0; i < 6; i++ {
			candidates = append(candidates, filepath.Join(current, "migrations"))
			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
		)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", errors.New("migrations directory not found")
}
