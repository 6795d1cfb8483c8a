package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ovfkit/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "ovfkit",
		Usage: "Decode OVF vector-field snapshots and step series",
		Flags: append(loggingFlags(), configFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				return ctx, err
			}
			loaded = cfg
			applyLoggingConfig(cmd, cfg)

			level := logLevel
			if debug {
				level = "debug"
			}
			log, err := logger.Open(os.Stderr, logFormat, level)
			if err != nil {
				return ctx, err
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			decodeCmd(),
			groupCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
