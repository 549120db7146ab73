package table

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8087" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.SnapshotDir != "data" {
		t.Fatalf("expected default snapshot dir, got %q", cfg.SnapshotDir)
	}
	if cfg.Locale != "en-US" {
		t.Fatalf("expected default locale, got %q", cfg.Locale)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("MESA_LIVE_TABLE_HTTP_ADDR", "env-table")
	t.Setenv("MESA_LIVE_TABLE_SNAPSHOT_DIR", "env-snapshots")
	t.Setenv("MESA_LIVE_TABLE_LOCALE", "pt-BR")

	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	args := []string{
		"-http-addr", "flag-table",
		"-snapshot-dir", "flag-snapshots",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-table" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.SnapshotDir != "flag-snapshots" {
		t.Fatalf("expected flag snapshot dir, got %q", cfg.SnapshotDir)
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("expected env locale, got %q", cfg.Locale)
	}
}
