package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the ovfkit configuration file
// ($XDG_CONFIG_HOME/ovfkit/config.yaml). Pointer fields distinguish "not set"
// from zero values. Flags given on the command line always win.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Prefix  string `yaml:"prefix"`

	Workers        *int64   `yaml:"workers"`
	MemoryBudget   string   `yaml:"memory_budget"`
	MemoryFraction *float64 `yaml:"memory_fraction"`
	Mmap           *bool    `yaml:"mmap"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ovfkit", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig applies config defaults to the root flags.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.Mmap != nil && !c.IsSet("mmap") {
		useMmap = *cfg.Mmap
	}
}

// applyGroupConfig applies config defaults to the group flags.
func applyGroupConfig(c *cli.Command, cfg Config) {
	if cfg.Prefix != "" && !c.IsSet("prefix") {
		groupPrefix = cfg.Prefix
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.MemoryBudget != "" && !c.IsSet("memory-budget") {
		memoryBudget = cfg.MemoryBudget
	}
	if cfg.MemoryFraction != nil && !c.IsSet("memory-fraction") {
		memoryFraction = *cfg.MemoryFraction
	}
}

// applyServeConfig applies config defaults to the serve flags.
func applyServeConfig(c *cli.Command, cfg Config, dataDir, addr *string) {
	applyGroupConfig(c, cfg)
	if cfg.DataDir != "" && !c.IsSet("data-dir") {
		*dataDir = cfg.DataDir
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
