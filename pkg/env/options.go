package env

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/winenv/envkit/internal/backup"
	"github.com/winenv/envkit/internal/undo"
)

// Config carries the engine's construction-time settings. There is no
// process-wide mutable configuration; everything the controller needs is
// passed in here.
type Config struct {
	// BackupDir is where snapshots live.
	// Default: <xdg data home>/envkit/backups.
	BackupDir string

	// Retention bounds snapshot pruning. Zero-valued fields fall back to
	// backup.DefaultRetention.
	Retention backup.RetentionPolicy

	// UndoLimit bounds the in-session undo history (default 100). Evicted
	// commands lose their undo entry only; their snapshots remain.
	UndoLimit int

	// SkipAutoBackup disables the pre-mutation snapshot. Off by default;
	// set it only for scripted runs that manage their own snapshots.
	SkipAutoBackup bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BackupDir: filepath.Join(xdg.DataHome, "envkit", "backups"),
		Retention: backup.DefaultRetention(),
		UndoLimit: undo.DefaultLimit,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BackupDir == "" {
		c.BackupDir = def.BackupDir
	}
	if c.Retention == (backup.RetentionPolicy{}) {
		c.Retention = def.Retention
	}
	if c.UndoLimit <= 0 {
		c.UndoLimit = def.UndoLimit
	}
	return c
}
