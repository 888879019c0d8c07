// Package main is the entry point for the ctxwin CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flemzord/ctxwin/internal/config"
	"github.com/flemzord/ctxwin/internal/security"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ctxwin",
		Short:         "Token-budgeted context window assembly for conversational agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(versionCmd(), assembleCmd(), measureCmd(), serveCmd(), mcpCmd(), configCmd(), cacheCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ctxwin %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration OK")
			fmt.Fprintf(out, "  estimator: %s\n", cfg.Estimator.Kind)
			fmt.Fprintf(out, "  default window: %d tokens\n", cfg.Context.DefaultWindowTokens)
			if cfg.Cache.Enabled {
				fmt.Fprintf(out, "  cache: %s (prune %q)\n", cfg.Cache.Path, cfg.Cache.PruneSchedule)
			}
			return nil
		},
	})
	return cmd
}

// configPath returns the --config file, or the first file found in the
// standard locations, or "" when there is none.
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return resolveConfigPath()
}

// loadConfig loads the file named by configPath, or the defaults when there
// is none.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath(cmd)
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/ctxwin/ctxwin.yaml → ./ctxwin.yaml
func resolveConfigPath() string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "ctxwin", "ctxwin.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "ctxwin", "ctxwin.yaml"))
	}
	candidates = append(candidates, "ctxwin.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// newLogger writes text logs to stderr with the configured secrets and known
// credential formats redacted.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level = slog.LevelInfo
	}
	inner := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	redactor := security.NewRedactor(cfg.Server.Auth.Secrets()...)
	return slog.New(security.NewRedactingHandler(inner, redactor))
}
