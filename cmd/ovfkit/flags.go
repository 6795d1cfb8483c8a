package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

var (
	logLevel   string
	logFormat  string
	debug      bool
	configFile string
	useMmap    bool

	groupPrefix    string
	workers        int64
	memoryBudget   string
	memoryFraction float64

	// loaded is the config file read by the root Before hook.
	loaded Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       configPath(),
			Destination: &configFile,
		},
		&cli.BoolFlag{
			Name:        "mmap",
			Usage:       "memory-map uncompressed input files",
			Value:       true,
			Destination: &useMmap,
		},
	}
}

func scalarFlag(dst *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "scalar",
		Usage:       "decode one value per cell instead of three",
		Destination: dst,
	}
}

func groupFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prefix",
			Usage:       "filename prefix of step files (default: taken from a member file argument, else \"" + series.DefaultPrefix + "\")",
			Destination: &groupPrefix,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "maximum concurrent decodes (0 = GOMAXPROCS)",
			Destination: &workers,
		},
		&cli.StringFlag{
			Name:        "memory-budget",
			Usage:       "bytes of decoded data held at once, e.g. 2GiB (default: a fraction of available memory)",
			Destination: &memoryBudget,
		},
		&cli.FloatFlag{
			Name:        "memory-fraction",
			Usage:       "share of available memory used when no budget is set",
			Value:       series.DefaultMemoryFraction,
			Destination: &memoryFraction,
		},
	}
}

// seriesOptions turns the group flags into sequencer options.
func seriesOptions(mode ovf.Mode) ([]series.Option, error) {
	budget, err := parseMemoryBudget(memoryBudget)
	if err != nil {
		return nil, err
	}
	return []series.Option{
		series.WithPrefix(groupPrefix),
		series.WithMode(mode),
		series.WithWorkers(int(workers)),
		series.WithMemoryBudget(budget),
		series.WithMemoryFraction(memoryFraction),
		series.WithMmap(useMmap),
	}, nil
}

func parseMemoryBudget(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("memory budget: %w", err)
	}
	return int64(n), nil
}

func modeFor(scalar bool) ovf.Mode {
	if scalar {
		return ovf.ModeScalar
	}
	return ovf.ModeVector
}
