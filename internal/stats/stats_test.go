package stats

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// textField decodes a text OVF holding one row per cell.
func textField(t *testing.T, mode ovf.Mode, rows ...string) *ovf.Field {
	t.Helper()
	var b bytes.Buffer
	fmt.Fprintf(&b, "# xnodes: %d\n# ynodes: 1\n# znodes: 1\n# Begin: Data Text\n", len(rows))
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n# End: Data Text\n")
	_, f, err := ovf.DecodeReader(&b, mode)
	require.NoError(t, err)
	return f
}

func TestSummarizeVector(t *testing.T) {
	t.Parallel()

	f := textField(t, ovf.ModeVector,
		"1 0 0",
		"0 1 0",
		"0 0 1",
		"0 0 -1",
	)
	s, err := Summarize(f)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Cells)
	require.Len(t, s.Components, 3)
	assert.Equal(t, []float64{0.25, 0.25, 0}, s.Average)
	assert.Equal(t, Component{Mean: 0.25, StdDev: 0.5, Min: 0, Max: 1}, s.Components[0])
	assert.Equal(t, -1.0, s.Components[2].Min)

	require.NotNil(t, s.Magnitude)
	assert.Equal(t, 1.0, s.Magnitude.Mean)
	assert.Equal(t, 1.0, s.Magnitude.Max)
	assert.InDelta(t, 1.0, s.Magnitude.P50, 1e-9)
	assert.InDelta(t, 1.0, s.Magnitude.P99, 1e-9)
}

func TestSummarizeMagnitudeQuantiles(t *testing.T) {
	t.Parallel()

	rows := make([]string, 1000)
	for i := range rows {
		rows[i] = fmt.Sprintf("0 %d 0", i+1)
	}
	s, err := Summarize(textField(t, ovf.ModeVector, rows...))
	require.NoError(t, err)

	assert.Equal(t, 500.5, s.Magnitude.Mean)
	assert.Equal(t, 1000.0, s.Magnitude.Max)
	assert.InDelta(t, 500, s.Magnitude.P50, 5)
	assert.InDelta(t, 900, s.Magnitude.P90, 5)
	assert.InDelta(t, 990, s.Magnitude.P99, 5)
}

func TestSummarizeScalar(t *testing.T) {
	t.Parallel()

	s, err := Summarize(textField(t, ovf.ModeScalar, "2", "4", "9"))
	require.NoError(t, err)
	assert.Nil(t, s.Magnitude)
	assert.Equal(t, []float64{5}, s.Average)
	assert.Equal(t, 2.0, s.Components[0].Min)
	assert.Equal(t, 9.0, s.Components[0].Max)
}

func TestSummarizeSingleCell(t *testing.T) {
	t.Parallel()

	s, err := Summarize(textField(t, ovf.ModeVector, "3 4 0"))
	require.NoError(t, err)
	assert.Zero(t, s.Components[0].StdDev)
	assert.Equal(t, 5.0, s.Magnitude.Mean)
}

func TestSummarizeSeries(t *testing.T) {
	t.Parallel()

	h0 := &ovf.Header{SimTime: 0}
	h1 := &ovf.Header{SimTime: 1e-12}
	s := &series.Series{Frames: []series.Frame{
		{Path: "m000000.ovf", Header: h0, Field: textField(t, ovf.ModeVector, "1 0 0", "1 0 0")},
		{Path: "m000001.ovf", Header: h1, Field: textField(t, ovf.ModeVector, "0 1 0", "1 0 0")},
	}}

	frames, err := SummarizeSeries(s)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[1].Index)
	assert.Equal(t, 1e-12, frames[1].SimTime)
	assert.Equal(t, "m000001.ovf", frames[1].Path)
	assert.Equal(t, []float64{1, 0.5}, AverageTrace(frames, 0))
	assert.Equal(t, []float64{0, 0.5}, AverageTrace(frames, 1))
}
