// Package cli provides the sqlchain command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlchain/internal/config"
	"github.com/leapstack-labs/sqlchain/pkg/sqlchain"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqlchain",
		Short: "sqlchain - SQL transform chains for your warehouse",
		Long: `sqlchain builds SQL transformations from reusable templates and chains
them into a single statement rendered against your warehouse dialect.

Chains are described in YAML: an entry table plus a list of transform
steps. Render them to inspect the SQL, or preview them to run the chain
and look at the rows.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: cfg.Level(),
			}))

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./sqlchain.yaml)")
	flags.String("type", "", "Target warehouse type (duckdb|postgres|sqlite)")
	flags.String("path", "", "Database file path for file-based engines")
	flags.String("host", "", "Database host")
	flags.Int("port", 0, "Database port")
	flags.String("user", "", "Database user")
	flags.String("password", "", "Database password")
	flags.String("database", "", "Database name")
	flags.String("schema", "", "Default schema")
	flags.String("templates-dir", "", "Transform template directory (default: embedded catalog)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"duckdb", "postgres", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newTemplatesCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newPreviewCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg := &config.Config{}
	cfg.Target.ApplyDefaults()
	return cfg
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// openSession connects a session for the configured target.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlchain.Session, error) {
	opts := []sqlchain.Option{sqlchain.WithLogger(logger)}
	if cfg.TemplatesDir != "" {
		opts = append(opts, sqlchain.WithTemplates(os.DirFS(cfg.TemplatesDir)))
	}
	return sqlchain.Connect(ctx, cfg.Target.Warehouse(), opts...)
}
