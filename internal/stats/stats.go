// Package stats reduces decoded fields to summary statistics.
package stats

import (
	"fmt"
	"math"

	"github.com/caio/go-tdigest/v4"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// Component summarises one component over every cell.
type Component struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Magnitude summarises per-cell vector norms. Quantiles are t-digest
// estimates.
type Magnitude struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P99  float64 `json:"p99"`
}

// Summary is the reduction of one field.
type Summary struct {
	Cells      int         `json:"cells"`
	Components []Component `json:"components"`

	// Average is the mean vector, e.g. the average magnetisation
	// (<mx>, <my>, <mz>). It has one entry per component.
	Average []float64 `json:"average"`

	// Magnitude is nil for scalar fields.
	Magnitude *Magnitude `json:"magnitude,omitempty"`
}

// Summarize computes per-component moments and, for vector fields, the
// distribution of cell magnitudes.
func Summarize(f *ovf.Field) (Summary, error) {
	nc := f.Components()
	s := Summary{
		Cells:      f.Cells(),
		Components: make([]Component, nc),
		Average:    make([]float64, nc),
	}
	if s.Cells == 0 {
		return s, fmt.Errorf("summarize: field has no cells")
	}

	for c := range nc {
		vals := f.Component(c)
		mean, std := stat.MeanStdDev(vals, nil)
		if s.Cells == 1 {
			std = 0
		}
		s.Components[c] = Component{
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(vals),
			Max:    floats.Max(vals),
		}
		s.Average[c] = mean
	}

	if nc > 1 {
		m, err := magnitudes(f)
		if err != nil {
			return s, err
		}
		s.Magnitude = m
	}
	return s, nil
}

func magnitudes(f *ovf.Field) (*Magnitude, error) {
	td, err := tdigest.New(tdigest.Compression(200))
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	nc := f.Components()
	norms := make([]float64, f.Cells())
	for i := range norms {
		var sq float64
		for c := range nc {
			v := f.Value(i*nc + c)
			sq += v * v
		}
		norms[i] = math.Sqrt(sq)
		if err := td.Add(norms[i]); err != nil {
			return nil, fmt.Errorf("summarize: %w", err)
		}
	}
	return &Magnitude{
		Mean: stat.Mean(norms, nil),
		Max:  floats.Max(norms),
		P50:  td.Quantile(0.5),
		P90:  td.Quantile(0.9),
		P99:  td.Quantile(0.99),
	}, nil
}

// FrameSummary ties a Summary to its place in a series.
type FrameSummary struct {
	Index   int     `json:"index"`
	Path    string  `json:"path"`
	SimTime float64 `json:"sim_time"`
	Summary
}

// SummarizeSeries summarises every frame in order.
func SummarizeSeries(s *series.Series) ([]FrameSummary, error) {
	out := make([]FrameSummary, 0, s.Len())
	for i, fr := range s.Frames {
		sum, err := Summarize(fr.Field)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fr.Path, err)
		}
		out = append(out, FrameSummary{Index: i, Path: fr.Path, SimTime: fr.SimTime(), Summary: sum})
	}
	return out, nil
}

// AverageTrace returns component c of the mean vector of every frame, the
// usual <m_c>(t) curve.
func AverageTrace(frames []FrameSummary, c int) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.Average[c]
	}
	return out
}
