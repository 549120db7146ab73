// Package snapshotcheck inspects and repairs room snapshot files.
//
// Snapshots written by older builds can miss newer fields or carry fog grids
// for a different map resolution. The service repairs those silently at load
// time; this tool makes the same repairs visible and, with -repair, durable.
package snapshotcheck

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	entrypoint "github.com/louisbranch/mesa.live/internal/platform/cmd"
	"github.com/louisbranch/mesa.live/internal/table/snapshot"
	"github.com/louisbranch/mesa.live/internal/table/state"
)

// Config holds snapshot-check command configuration.
type Config struct {
	SnapshotDir string `env:"MESA_LIVE_TABLE_SNAPSHOT_DIR" envDefault:"data"`
	Repair      bool
	JSONOutput  bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "directory holding room snapshot files")
	fs.BoolVar(&cfg.Repair, "repair", false, "rewrite snapshots that needed repairs")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Report describes the outcome for one snapshot file.
type Report struct {
	Room     string   `json:"room"`
	Entities int      `json:"entities"`
	ChatLen  int      `json:"chatLen"`
	Issues   []string `json:"issues,omitempty"`
	Repaired bool     `json:"repaired,omitempty"`
	Err      string   `json:"error,omitempty"`
}

// Run checks every snapshot in the configured directory and writes a report.
func Run(ctx context.Context, cfg Config, stdout, stderr io.Writer) error {
	entries, err := os.ReadDir(cfg.SnapshotDir)
	if err != nil {
		return fmt.Errorf("read snapshot directory: %w", err)
	}

	var reports []Report
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		reports = append(reports, checkSnapshot(cfg, filepath.Join(cfg.SnapshotDir, entry.Name())))
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Room < reports[j].Room })

	if cfg.JSONOutput {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}

	broken := 0
	for _, report := range reports {
		if report.Err != "" {
			broken++
			fmt.Fprintf(stderr, "%s: %s\n", report.Room, report.Err)
			continue
		}
		status := "ok"
		if len(report.Issues) > 0 {
			status = strings.Join(report.Issues, ", ")
			if report.Repaired {
				status += " (repaired)"
			}
		}
		fmt.Fprintf(stdout, "%s: %s (%d entities, %d chat messages)\n",
			report.Room, status, report.Entities, report.ChatLen)
	}
	if broken > 0 {
		return fmt.Errorf("%d unreadable snapshot(s)", broken)
	}
	return nil
}

func checkSnapshot(cfg Config, path string) Report {
	room := strings.TrimSuffix(filepath.Base(path), ".json")
	report := Report{Room: room}

	raw, err := os.ReadFile(path)
	if err != nil {
		report.Err = err.Error()
		return report
	}
	var doc state.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		report.Err = fmt.Sprintf("parse: %v", err)
		return report
	}

	before := doc.Clone()
	fogReset := doc.Normalize()
	if fogReset {
		report.Issues = append(report.Issues, "fog grid regenerated")
	}
	if before.Entities == nil || before.ChatHistory == nil || before.InitiativeList == nil || before.CustomMonsters == nil {
		report.Issues = append(report.Issues, "missing collections back-filled")
	}
	if len(before.ChatHistory) > state.ChatLimit {
		report.Issues = append(report.Issues, fmt.Sprintf("chat history trimmed to %d", state.ChatLimit))
	}

	report.Entities = len(doc.Entities)
	report.ChatLen = len(doc.ChatHistory)

	if cfg.Repair && len(report.Issues) > 0 {
		if err := snapshot.Save(path, doc); err != nil {
			report.Err = fmt.Sprintf("repair: %v", err)
			return report
		}
		report.Repaired = true
	}
	return report
}
