package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/gpl/internal/config"
	"github.com/roach88/gpl/internal/credential"
	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// Key is the authority's secret key in hex. Set from --key on the
	// commands that sign, falling back to GPL_KEY.
	Key string

	// Logger is configured in PersistentPreRunE.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gpl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "gpl",
		Short:   "gpl - namespaced profile records",
		Version: ir.Version,
		Long: `Create and delete namespaced profiles whose addresses are derived, never chosen.

Each user may hold at most one profile per namespace. Only the user's
authority, proven by a schnorr signature, can create or delete it, and
every change is recorded in an append-only event log.

Defaults are read from GPL_DB, GPL_FORMAT, GPL_LOG_LEVEL, GPL_LOG_FORMAT
and GPL_KEY; flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			flags := cmd.Flags()
			if !flags.Changed("format") {
				opts.Format = cfg.Format
			}
			if !flags.Changed("db") {
				opts.Database = cfg.DBPath
			}
			if opts.Key == "" {
				opts.Key = cfg.Key
			}

			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			opts.Logger = cfg.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "gpl.db", "path to SQLite database")

	// Add subcommands
	cmd.AddCommand(NewKeygenCommand(opts))
	cmd.AddCommand(NewDeriveCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the configured database. The caller closes it.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	o.logger().Debug("database ready", "path", o.Database)
	return st, nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// keypair decodes the signing key from --key or GPL_KEY.
func (o *RootOptions) keypair() (*credential.Keypair, error) {
	if o.Key == "" {
		return nil, NewExitError(ExitCommandError, "a signing key is required (--key or GPL_KEY)")
	}
	kp, err := credential.ParseHex(o.Key)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid signing key", err)
	}
	return kp, nil
}

// parseAddressArg parses a hex address given on the command line.
func parseAddressArg(name, value string) (ir.Address, error) {
	addr, err := ir.ParseAddress(value)
	if err != nil {
		return ir.Address{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s", name), err)
	}
	return addr, nil
}

// closeStore closes st and logs any error.
func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger().Error("error closing database", "error", err)
	}
}
