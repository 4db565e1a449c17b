// Package cli implements freetsctl, the operator tool for the comments
// database.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/fritter/internal/platform/config"
	"github.com/example/fritter/internal/platform/db"
	"github.com/example/fritter/internal/platform/logging"
	"github.com/example/fritter/services/freets/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format      string // "json" | "yaml"
	DatabaseURL string
	Verbose     bool

	open func(ctx context.Context, dsn string) (*Backend, error)
	log  *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "yaml"}

// Backend is the storage a command runs against.
type Backend struct {
	Comments store.CommentStore
	Posts    store.PostStore
	// Pool is nil for the in-memory backend.
	Pool  *pgxpool.Pool
	Close func()
}

// NewRootCommand creates the root command for freetsctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openBackend)
}

func newRootCommand(open func(ctx context.Context, dsn string) (*Backend, error)) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "freetsctl",
		Short: "Operate the freets comments store",
		Long:  "freetsctl applies the schema, loads fixtures and prints comment trees as a given viewer sees them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			log, err := logging.NewConsole(level)
			if err != nil {
				return err
			}
			opts.log = log
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", config.EnvString("DATABASE_URL", ""),
		"Postgres connection string (default $DATABASE_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))

	return cmd
}

func (o *RootOptions) logger() *zap.Logger {
	if o.log == nil {
		return zap.NewNop()
	}
	return o.log
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openBackend connects to Postgres, or returns an in-memory backend when dsn
// is empty.
func openBackend(ctx context.Context, dsn string) (*Backend, error) {
	if dsn == "" {
		return MemoryBackend(), nil
	}
	pool, err := db.OpenDSN(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Comments: store.NewPostgresCommentStore(pool),
		Posts:    store.NewPostgresPostStore(pool),
		Pool:     pool,
		Close:    pool.Close,
	}, nil
}

func MemoryBackend() *Backend {
	return &Backend{
		Comments: store.NewInMemoryCommentStore(),
		Posts:    store.NewInMemoryPostStore(),
		Close:    func() {},
	}
}
