package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/integrations/cbr"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/Dan9191/finance-tracker/internal/repository/memory"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/Dan9191/finance-tracker/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "financetracker",
	Short:         "Personal finance tracker API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the JSON logger
func setup() (*config.Config, *logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return cfg, logger, nil
}

// openStore connects the configured backend. Postgres is migrated on open.
func openStore(cfg *config.Config, logger *logrus.Logger) (repository.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store, data is lost on exit")
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.RunMigrations(cfg.DBConn, false); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewRepository(db, cfg.LockTimeout), func() { db.Close() }, nil
}

// newService wires the store, mail and exchange rates into the service layer
func newService(cfg *config.Config, logger *logrus.Logger, store repository.Store) *service.Service {
	opts := []service.Option{service.WithRateSource(cbr.NewCBRClient(cfg, logger))}
	if cfg.MailEnabled() {
		opts = append(opts, service.WithNotifier(email.NewSender(cfg, logger)))
	}
	return service.NewService(store, logger, cfg, opts...)
}
