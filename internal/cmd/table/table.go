// Package table parses table command flags and composes transport entrypoints.
package table

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/mesa.live/internal/platform/cmd"
	server "github.com/louisbranch/mesa.live/internal/services/table/app"
)

// Config holds table command configuration.
type Config struct {
	HTTPAddr    string `env:"MESA_LIVE_TABLE_HTTP_ADDR"    envDefault:":8087"`
	SnapshotDir string `env:"MESA_LIVE_TABLE_SNAPSHOT_DIR" envDefault:"data"`
	Locale      string `env:"MESA_LIVE_TABLE_LOCALE"       envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "table HTTP listen address")
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "directory for room snapshot files")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "default locale for server notifications")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the table app and starts realtime transport behavior.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTable, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:    cfg.HTTPAddr,
			SnapshotDir: cfg.SnapshotDir,
			Locale:      cfg.Locale,
		}); err != nil {
			return fmt.Errorf("serve table: %w", err)
		}
		return nil
	})
}
