package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"b2b-commerce/config"
	"b2b-commerce/internal/store/migrations"
	"b2b-commerce/internal/util"

	"go.uber.org/zap"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env, *logLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	if cfg.Database.Driver != config.DriverPostgres {
		logger.Fatal("Migrations only apply to the postgres driver", zap.String("driver", cfg.Database.Driver))
	}

	m, err := migrations.New(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, args[0], args[1:], logger); err != nil {
		logger.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(m *migrations.Migrator, command string, args []string, logger *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing numeric argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [-log-level level] <command> [args]

Commands:
  up            apply all pending migrations
  down          roll back all migrations
  steps <n>     apply n migrations (negative rolls back)
  version       print the current version
  force <v>     set the version without running migrations`)
}
