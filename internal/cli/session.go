package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/undolog/internal/config"
	"github.com/roach88/undolog/internal/store"
)

// StorageOptions holds the flags shared by commands that open the
// database.
type StorageOptions struct {
	*RootOptions
	Database string
	Document string
}

// addStorageFlags registers --db and, when withDoc is set, --doc.
func addStorageFlags(cmd *cobra.Command, opts *StorageOptions, withDoc bool) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config, then "+config.DefaultDatabase+")")
	if withDoc {
		cmd.Flags().StringVar(&opts.Document, "doc", "", "document key")
	}
}

// session is an open database plus the effective configuration.
type session struct {
	cfg    config.Config
	store  *store.Store
	logger *slog.Logger
	ctx    context.Context
}

// openSession loads configuration (file, then environment, then flags) and
// opens the database.
func openSession(opts *StorageOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	logger.Debug("opening database", "path", cfg.Database)

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{cfg: cfg, store: st, logger: logger, ctx: ctx}, nil
}

func loadConfig(opts *StorageOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// storageKey returns the storage key for document doc.
func (s *session) storageKey(doc string) string {
	return s.cfg.KeyPrefix + doc
}
