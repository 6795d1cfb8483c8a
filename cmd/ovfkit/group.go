package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ovfkit/internal/export"
	"github.com/samcharles93/ovfkit/internal/logger"
	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/internal/stats"
)

func groupCmd() *cli.Command {
	var (
		out       string
		scalar    bool
		withStats bool
		asJSON    bool
	)

	return &cli.Command{
		Name:      "group",
		Usage:     "Load a directory of step files as one time series",
		ArgsUsage: "<dir|file>",
		Flags: append(groupFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "write the stacked series as .npy (auto: <dir>_<prefix>.npy, -: stdout)",
				Destination: &out,
			},
			&cli.BoolFlag{Name: "stats", Usage: "print per-frame statistics", Destination: &withStats},
			&cli.BoolFlag{Name: "json", Usage: "print the frame list as JSON", Destination: &asJSON},
			scalarFlag(&scalar),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("group: expected exactly one directory or file argument")
			}
			applyGroupConfig(cmd, loaded)

			opts, err := seriesOptions(modeFor(scalar))
			if err != nil {
				return err
			}
			opts = append(opts, series.WithLogger(log))

			s, err := series.New(opts...).Load(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			frames, err := stats.SummarizeSeries(s)
			if err != nil {
				return err
			}

			if out != "" {
				if out == "auto" {
					out = seriesOutPath(s)
				}
				if err := writeSeries(out, s); err != nil {
					return err
				}
				log.Info("wrote series", "out", out, "shape", fmt.Sprint(s.Shape()))
			}
			if out == "-" {
				return nil
			}

			w := stdout(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(frames)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			if withStats {
				fmt.Fprintln(tw, "#\tfile\tsim time\t<x>\t<y>\t<z>\t|v|")
			} else {
				fmt.Fprintln(tw, "#\tfile\tsim time\tchecksum")
			}
			for i, fr := range frames {
				name := filepath.Base(fr.Path)
				if !withStats {
					fmt.Fprintf(tw, "%d\t%s\t%g\t%s\n", i, name, fr.SimTime, export.Checksum(s.Frames[i].Field))
					continue
				}
				avg := append(fr.Average, 0, 0)[:3]
				mag := 0.0
				if fr.Magnitude != nil {
					mag = fr.Magnitude.Mean
				}
				fmt.Fprintf(tw, "%d\t%s\t%g\t%.6g\t%.6g\t%.6g\t%.6g\n", i, name, fr.SimTime, avg[0], avg[1], avg[2], mag)
			}
			return tw.Flush()
		},
	}
}

func writeSeries(path string, s *series.Series) error {
	w, closeOut, err := createOutput(path)
	if err != nil {
		return err
	}
	err = export.WriteSeriesNPY(w, s)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
