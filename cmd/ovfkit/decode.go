package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ovfkit/internal/export"
	"github.com/samcharles93/ovfkit/internal/logger"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

func decodeCmd() *cli.Command {
	var (
		out    string
		format string
		scalar bool
	)

	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode an OVF file to .npy or JSON",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path, - for stdout (default: <name>.npy in the working directory)",
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (npy, json)",
				Value:       "npy",
				Destination: &format,
			},
			scalarFlag(&scalar),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("decode: expected exactly one file argument")
			}
			path := cmd.Args().First()
			if format != "npy" && format != "json" {
				return fmt.Errorf("decode: unknown format %q (want npy or json)", format)
			}
			if out == "" {
				out = defaultOutPath(path, "."+format)
			}

			h, f, err := ovf.DecodeFile(path, modeFor(scalar), ovf.WithMmap(useMmap))
			if err != nil {
				return err
			}

			w, closeOut, err := createOutput(out)
			if err != nil {
				return err
			}
			if format == "json" {
				err = export.WriteJSON(w, h, f)
			} else {
				err = export.WriteNPY(w, f)
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			log.Info("decoded",
				"file", path,
				"out", out,
				"shape", fmt.Sprint(f.Shape()),
				logger.Bytes("size", int64(len(f.Bytes()))),
			)
			return nil
		},
	}
}
