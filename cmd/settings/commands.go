package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/headless-comments-api/internal/service"
	"github.com/spf13/cobra"
)

type migrator interface {
	RunMigrations(migrationsPath string) error
	MigrateDown(migrationsPath string) error
	MigrateToVersion(migrationsPath string, version uint) error
}

// backend is what the commands operate on
type backend struct {
	settings       service.SettingsService
	migrator       migrator
	migrationsPath string
}

// connectFunc opens the backend on first use so help and argument errors need no database
type connectFunc func() (*backend, func(), error)

type runFunc func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error

// newRootCmd returns the root command of the settings CLI
func newRootCmd(connect connectFunc) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "settings",
		Short:         "Inspect and change the comments API settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "database operation timeout")

	// withBackend connects, bounds the command by --timeout and runs fn
	withBackend := func(fn runFunc) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return fn(ctx, cmd, b, args)
		}
	}

	root.AddCommand(newShowCmd(withBackend))
	root.AddCommand(newSetAPIKeyCmd(withBackend))
	root.AddCommand(newRotateAPIKeyCmd(withBackend))
	root.AddCommand(newSetOriginsCmd(withBackend))
	root.AddCommand(newSetSpamCheckCmd(withBackend))
	root.AddCommand(newMigrateCmd(withBackend))
	root.AddCommand(newMigrateDownCmd(withBackend))
	root.AddCommand(newMigrateToCmd(withBackend))

	return root
}

type backendWrapper func(fn runFunc) func(cmd *cobra.Command, args []string) error

func newShowCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{Use: "show", Short: "Print the current settings", Args: cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			snap, err := b.settings.Snapshot(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api_key:         %s\n", snap.APIKey)
			fmt.Fprintf(out, "spam_check:      %t\n", snap.SpamCheck)
			fmt.Fprintf(out, "allowed_origins: %s\n", strings.Join(snap.AllowedOrigins, ", "))
			return nil
		})}
}

func newSetAPIKeyCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{Use: "set-api-key <key>", Short: "Store a new API key", Args: cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			if err := b.settings.SetAPIKey(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key updated")
			return nil
		})}
}

func newRotateAPIKeyCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{Use: "rotate-api-key", Short: "Generate and store a random API key", Args: cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			key, err := b.settings.RotateAPIKey(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		})}
}

func newSetOriginsCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "set-origins <origins|->",
		Short: "Store allowed origins, one per line",
		Long:  "Store allowed origins, one per line. Pass - to read the list from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			raw := args[0]
			if raw == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read origins: %w", err)
				}
				raw = string(data)
			}
			origins, err := b.settings.SetAllowedOrigins(ctx, raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d allowed origin(s) stored\n", len(origins))
			return nil
		}),
	}
}

func newSetSpamCheckCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{
		Use:       "set-spam-check <on|off>",
		Short:     "Enable or disable spam checks",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			enabled, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			if err := b.settings.SetSpamCheck(ctx, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spam check enabled: %t\n", enabled)
			return nil
		}),
	}
}

func newMigrateCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{Use: "migrate", Short: "Apply all pending migrations", Args: cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			return b.migrator.RunMigrations(b.migrationsPath)
		})}
}

func newMigrateDownCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{Use: "migrate-down", Short: "Roll back the last migration", Args: cobra.NoArgs,
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			return b.migrator.MigrateDown(b.migrationsPath)
		})}
}

func newMigrateToCmd(with backendWrapper) *cobra.Command {
	return &cobra.Command{Use: "migrate-to <version>", Short: "Migrate to a specific version", Args: cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, cmd *cobra.Command, b *backend, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return b.migrator.MigrateToVersion(b.migrationsPath, uint(version))
		})}
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}
