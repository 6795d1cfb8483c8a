package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ovfkit/internal/export"
	"github.com/samcharles93/ovfkit/internal/stats"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

type inspectReport struct {
	Path  string               `json:"path"`
	Field export.FieldDocument `json:"field"`
	Stats *stats.Summary       `json:"stats,omitempty"`
}

func inspectCmd() *cli.Command {
	var (
		asJSON    bool
		withStats bool
		scalar    bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the header, shape and checksum of an OVF file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print a JSON document", Destination: &asJSON},
			&cli.BoolFlag{Name: "stats", Usage: "include per-component statistics", Destination: &withStats},
			scalarFlag(&scalar),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("inspect: expected exactly one file argument")
			}
			path := cmd.Args().First()

			h, f, err := ovf.DecodeFile(path, modeFor(scalar), ovf.WithMmap(useMmap))
			if err != nil {
				return err
			}
			report := inspectReport{Path: path, Field: export.NewFieldDocument(h, f, false)}
			if withStats {
				sum, err := stats.Summarize(f)
				if err != nil {
					return err
				}
				report.Stats = &sum
			}

			w := stdout(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(w, report, f)
		},
	}
}

func printReport(w io.Writer, r inspectReport, f *ovf.Field) error {
	h := r.Field.Header
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "file:\t%s\n", r.Path)
	fmt.Fprintf(tw, "data:\t%s\n", strings.Join(h.DataType[2:], " "))
	fmt.Fprintf(tw, "mode:\t%s\n", r.Field.Mode)
	fmt.Fprintf(tw, "shape:\t%v\n", r.Field.Shape)
	fmt.Fprintf(tw, "cells:\t%s\n", humanize.Comma(int64(f.Cells())))
	fmt.Fprintf(tw, "size:\t%s\n", humanize.IBytes(uint64(len(f.Bytes()))))
	fmt.Fprintf(tw, "checksum:\t%s\n", r.Field.Checksum)
	fmt.Fprintf(tw, "base:\t(%g, %g, %g)\n", h.XBase, h.YBase, h.ZBase)
	fmt.Fprintf(tw, "step:\t(%g, %g, %g)\n", h.XStepSize, h.YStepSize, h.ZStepSize)
	if h.HasValueMultiplier {
		fmt.Fprintf(tw, "multiplier:\t%g\n", h.ValueMultiplier)
	}
	if h.SimTime >= 0 {
		fmt.Fprintf(tw, "sim time:\t%g s\n", h.SimTime)
	}
	if h.Iteration >= 0 {
		fmt.Fprintf(tw, "iteration:\t%g\n", h.Iteration)
	}
	if h.Stage >= 0 {
		fmt.Fprintf(tw, "stage:\t%g\n", h.Stage)
	}
	if h.MIFSource != "" {
		fmt.Fprintf(tw, "mif source:\t%s\n", h.MIFSource)
	}

	if r.Stats != nil {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "component\tmean\tstd\tmin\tmax")
		for i, c := range r.Stats.Components {
			fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%.6g\t%.6g\n", componentName(i, len(r.Stats.Components)), c.Mean, c.StdDev, c.Min, c.Max)
		}
		if m := r.Stats.Magnitude; m != nil {
			fmt.Fprintf(tw, "|v|\t%.6g\t\tp50 %.6g\tmax %.6g\n", m.Mean, m.P50, m.Max)
		}
	}
	return tw.Flush()
}

func componentName(i, n int) string {
	if n == 1 {
		return "v"
	}
	return string(rune('x' + i))
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
