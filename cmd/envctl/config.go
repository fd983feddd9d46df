package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/winenv/envkit/internal/backup"
	"github.com/winenv/envkit/pkg/env"
)

// fileConfig is the optional on-disk configuration,
// at <config home>/envkit/config.yaml.
type fileConfig struct {
	BackupDir string `yaml:"backup_dir"`
	Retention struct {
		MaxCount   int    `yaml:"max_count"`
		MaxAge     string `yaml:"max_age"`
		KeepLatest int    `yaml:"keep_latest"`
	} `yaml:"retention"`
	UndoLimit int `yaml:"undo_limit"`
}

func configPath() string {
	return filepath.Join(xdg.ConfigHome, "envkit", "config.yaml")
}

// loadConfig reads the config file over the engine defaults. A missing file
// is not an error; a malformed one is.
func loadConfig() (env.Config, error) {
	cfg := env.DefaultConfig()
	data, err := os.ReadFile(configPath())
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", configPath(), err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", configPath(), err)
	}
	if fc.BackupDir != "" {
		cfg.BackupDir = fc.BackupDir
	}
	if fc.UndoLimit > 0 {
		cfg.UndoLimit = fc.UndoLimit
	}
	ret := backup.RetentionPolicy{
		MaxCount:   fc.Retention.MaxCount,
		KeepLatest: fc.Retention.KeepLatest,
	}
	if fc.Retention.MaxAge != "" {
		age, err := time.ParseDuration(fc.Retention.MaxAge)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: retention.max_age: %w", configPath(), err)
		}
		ret.MaxAge = age
	}
	if ret != (backup.RetentionPolicy{}) {
		cfg.Retention = ret
	}
	return cfg, nil
}
