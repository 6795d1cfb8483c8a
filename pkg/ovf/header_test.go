package ovf

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readHeaderString(t *testing.T, text string) (*Header, *bufio.Reader, error) {
	t.Helper()
	r := bufio.NewReader(strings.NewReader(text))
	h, err := ReadHeader(r)
	return h, r, err
}

func TestReadHeaderGeometry(t *testing.T) {
	t.Parallel()

	s := synth{nx: 4, ny: 3, nz: 2, width: 4}
	h, _, err := readHeaderString(t, s.header().String()+"# Begin: Data Binary 4\n")
	require.NoError(t, err)

	assert.Equal(t, 4, h.XNodes)
	assert.Equal(t, 3, h.YNodes)
	assert.Equal(t, 2, h.ZNodes)
	assert.Equal(t, 2.5e-09, h.XBase)
	assert.Equal(t, 2.5e-09, h.YBase)
	assert.Equal(t, 5e-10, h.ZBase)
	assert.Equal(t, 5e-09, h.XStepSize)
	assert.Equal(t, 5e-09, h.YStepSize)
	assert.Equal(t, 1e-09, h.ZStepSize)
	assert.Equal(t, []string{"#", "Begin:", "Data", "Binary", "4"}, h.DataType)
	assert.Equal(t, EncodingBinary, h.Encoding())
	assert.Equal(t, 4, h.Width())
	assert.Equal(t, 24, h.Cells())
	assert.Equal(t, int64(24*3*4), h.PayloadBytes(ModeVector))
	assert.Equal(t, int64(24*4), h.PayloadBytes(ModeScalar))
	assert.Equal(t, "rectangular", h.Raw["meshtype"])
}

func TestReadHeaderDefaults(t *testing.T) {
	t.Parallel()

	s := synth{nx: 1, ny: 1, nz: 1}
	h, _, err := readHeaderString(t, s.header().String()+"# Begin: Data Text\n")
	require.NoError(t, err)

	assert.Equal(t, -1.0, h.SimTime)
	assert.Equal(t, -1.0, h.Iteration)
	assert.Equal(t, -1.0, h.Stage)
	assert.Equal(t, "", h.MIFSource)
	assert.False(t, h.HasValueMultiplier)
	assert.Equal(t, 1.0, h.Multiplier())
	assert.Equal(t, 0, h.Width())
}

func TestReadHeaderProvenance(t *testing.T) {
	t.Parallel()

	s := synth{nx: 1, ny: 1, nz: 1, multiplier: "0.5", extra: []string{
		"# Desc: Total simulation time:  1.5e-09  s",
		"# Desc:  Iteration: 2760, State id: 5589",
		"# Desc:  Stage: 3, Stage iteration: 2760",
		`# Desc:  MIF source file: C:\sims\run.mif`,
	}}
	h, _, err := readHeaderString(t, s.header().String()+"# Begin: Data Text\n")
	require.NoError(t, err)

	assert.Equal(t, 1.5e-09, h.SimTime)
	assert.Equal(t, 2760.0, h.Iteration)
	assert.Equal(t, 3.0, h.Stage)
	assert.Equal(t, `C:\sims\run.mif`, h.MIFSource)
	assert.True(t, h.HasValueMultiplier)
	assert.Equal(t, 0.5, h.Multiplier())
	assert.Contains(t, h.Raw["Desc"], "Iteration: 2760")
}

func TestHeaderRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, h *Header)
	}{
		{"xnodes", "# xnodes: 17", func(t *testing.T, h *Header) { assert.Equal(t, 17, h.XNodes) }},
		{"float nodes", "# ynodes: 8.0", func(t *testing.T, h *Header) { assert.Equal(t, 8, h.YNodes) }},
		{"zstepsize", "# zstepsize: 3e-9", func(t *testing.T, h *Header) { assert.Equal(t, 3e-9, h.ZStepSize) }},
		{"colon without space", "# xbase:1.25", func(t *testing.T, h *Header) { assert.Equal(t, 1.25, h.XBase) }},
		{"valuemultiplier", "# valuemultiplier: 800000", func(t *testing.T, h *Header) {
			assert.True(t, h.HasValueMultiplier)
			assert.Equal(t, 800000.0, h.ValueMultiplier)
		}},
		{"simtime drops units", "# Desc: Total simulation time:  2e-12  s", func(t *testing.T, h *Header) {
			assert.Equal(t, 2e-12, h.SimTime)
		}},
		{"iteration", "# Desc:  Iteration: 12, State id: 99", func(t *testing.T, h *Header) {
			assert.Equal(t, 12.0, h.Iteration)
			assert.Equal(t, -1.0, h.Stage)
		}},
		{"stage", "# Desc:  Stage: 4, Stage iteration: 1", func(t *testing.T, h *Header) {
			assert.Equal(t, 4.0, h.Stage)
		}},
		{"unmatched", "# Title: m", func(t *testing.T, h *Header) {
			assert.Equal(t, -1.0, h.SimTime)
			assert.Equal(t, 0, h.XNodes)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHeader()
			require.NoError(t, h.applyRules(tt.line, 1))
			tt.check(t, h)
		})
	}
}

func TestHeaderRuleErrors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"# xnodes: many",
		"# xnodes: 2.5",
		"# valuemultiplier: ",
		"# Desc:  Iteration: soon, State id: 1",
	} {
		h := newHeader()
		err := h.applyRules(line, 7)
		require.ErrorIs(t, err, ErrMalformedValue, line)

		var mv *MalformedValueError
		require.ErrorAs(t, err, &mv)
		assert.Equal(t, 7, mv.Line)
	}
}

func TestReadHeaderLeavesCursorAfterMarker(t *testing.T) {
	t.Parallel()

	s := synth{nx: 1, ny: 1, nz: 1}
	_, r, err := readHeaderString(t, s.header().String()+"# Begin: Data Text\n1 2 3\n")
	require.NoError(t, err)

	rest, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", rest)
}

func TestReadHeaderTruncated(t *testing.T) {
	t.Parallel()

	s := synth{nx: 1, ny: 1, nz: 1}
	for _, text := range []string{"", s.header().String(), "# xnodes: 1"} {
		_, _, err := readHeaderString(t, text)
		require.ErrorIs(t, err, ErrTruncatedHeader)
		require.ErrorIs(t, err, ErrFormat)
	}
}

func TestReadHeaderMarkerWithoutNewline(t *testing.T) {
	t.Parallel()

	s := synth{nx: 1, ny: 1, nz: 1}
	h, _, err := readHeaderString(t, s.header().String()+"# Begin: Data Text")
	require.NoError(t, err)
	assert.Equal(t, EncodingText, h.Encoding())
}

func TestReadHeaderInvalidDataType(t *testing.T) {
	t.Parallel()

	s := synth{nx: 1, ny: 1, nz: 1}
	for _, marker := range []string{
		"# Begin: Data",
		"# Begin: Data Hex 4",
		"# Begin: Data Binary",
		"# Begin: Data Binary 2",
		"# Begin: Data Binary four",
	} {
		_, _, err := readHeaderString(t, s.header().String()+marker+"\n")
		require.ErrorIs(t, err, ErrFormat, marker)
		require.NotErrorIs(t, err, ErrTruncatedHeader, marker)
	}
}

func TestReadHeaderMissingGeometry(t *testing.T) {
	t.Parallel()

	_, _, err := readHeaderString(t, "# xnodes: 2\n# ynodes: 2\n# Begin: Data Text\n")
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "znodes")

	_, _, err = readHeaderString(t, "# xnodes: 2\n# ynodes: 0\n# znodes: 1\n# Begin: Data Text\n")
	require.ErrorIs(t, err, ErrFormat)
}
