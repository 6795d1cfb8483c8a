package ovf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Header holds the parts of an OVF header needed to decode and place a
// payload. Provenance fields keep their -1 / "" sentinels when the producer
// did not record them.
type Header struct {
	XBase     float64 `json:"xbase"`
	YBase     float64 `json:"ybase"`
	ZBase     float64 `json:"zbase"`
	XStepSize float64 `json:"xstepsize"`
	YStepSize float64 `json:"ystepsize"`
	ZStepSize float64 `json:"zstepsize"`
	XNodes    int     `json:"xnodes"`
	YNodes    int     `json:"ynodes"`
	ZNodes    int     `json:"znodes"`

	SimTime   float64 `json:"sim_time"`
	Iteration float64 `json:"iteration"`
	Stage     float64 `json:"stage"`
	MIFSource string  `json:"mif_source"`

	ValueMultiplier    float64 `json:"value_multiplier"`
	HasValueMultiplier bool    `json:"has_value_multiplier"`

	// DataType is the whitespace-tokenised marker line, e.g.
	// ["#", "Begin:", "Data", "Binary", "4"].
	DataType []string `json:"data_type"`

	// Raw maps every "# key: value" header line to its trimmed value.
	Raw map[string]string `json:"raw,omitempty"`
}

func newHeader() *Header {
	return &Header{
		SimTime:         -1,
		Iteration:       -1,
		Stage:           -1,
		ValueMultiplier: 1,
		Raw:             map[string]string{},
	}
}

// Encoding returns EncodingText or EncodingBinary.
func (h *Header) Encoding() string {
	if len(h.DataType) < 4 {
		return ""
	}
	return h.DataType[3]
}

// Width returns the per-value byte width of a binary payload, or 0 for text.
func (h *Header) Width() int {
	if h.Encoding() != EncodingBinary || len(h.DataType) < 5 {
		return 0
	}
	w, err := strconv.Atoi(h.DataType[4])
	if err != nil {
		return 0
	}
	return w
}

// Cells returns xnodes·ynodes·znodes.
func (h *Header) Cells() int {
	return h.XNodes * h.YNodes * h.ZNodes
}

// PayloadBytes is the size of a binary payload in the given mode, excluding
// the control mark.
func (h *Header) PayloadBytes(mode Mode) int64 {
	return int64(h.Cells()) * int64(mode.Components()) * int64(h.Width())
}

// Multiplier returns the value multiplier, 1 when absent.
func (h *Header) Multiplier() float64 {
	if !h.HasValueMultiplier {
		return 1
	}
	return h.ValueMultiplier
}

type headerRule struct {
	name  string
	match func(line string) bool
	apply func(h *Header, line string) error
}

// geometryRules fire independently: every rule whose key appears on a line
// is applied.
var geometryRules = []headerRule{
	nodeRule("xnodes", func(h *Header) *int { return &h.XNodes }),
	nodeRule("ynodes", func(h *Header) *int { return &h.YNodes }),
	nodeRule("znodes", func(h *Header) *int { return &h.ZNodes }),
	floatRule("xbase", func(h *Header) *float64 { return &h.XBase }),
	floatRule("ybase", func(h *Header) *float64 { return &h.YBase }),
	floatRule("zbase", func(h *Header) *float64 { return &h.ZBase }),
	floatRule("xstepsize", func(h *Header) *float64 { return &h.XStepSize }),
	floatRule("ystepsize", func(h *Header) *float64 { return &h.YStepSize }),
	floatRule("zstepsize", func(h *Header) *float64 { return &h.ZStepSize }),
	{
		name:  "valuemultiplier",
		match: containsKey("valuemultiplier"),
		apply: func(h *Header, line string) error {
			v, err := parseFloat(keyValue(line))
			if err != nil {
				return err
			}
			h.ValueMultiplier = v
			h.HasValueMultiplier = true
			return nil
		},
	},
}

// provenanceRules are exclusive: the first match wins.
var provenanceRules = []headerRule{
	{
		name:  "SimTime",
		match: containsKey("Total simulation time"),
		apply: func(h *Header, line string) error {
			segs := strings.Split(line, ":")
			fields := strings.Fields(segs[len(segs)-1])
			if len(fields) == 0 {
				return errors.New("missing value")
			}
			v, err := parseFloat(fields[0])
			if err != nil {
				return err
			}
			h.SimTime = v
			return nil
		},
	},
	{
		name:  "Iteration",
		match: containsKey("Iteration"),
		apply: func(h *Header, line string) error {
			v, err := parseFloat(thirdSegment(line))
			if err != nil {
				return err
			}
			h.Iteration = v
			return nil
		},
	},
	{
		name:  "Stage",
		match: containsKey("Stage"),
		apply: func(h *Header, line string) error {
			v, err := parseFloat(thirdSegment(line))
			if err != nil {
				return err
			}
			h.Stage = v
			return nil
		},
	},
	{
		name:  "MIFSource",
		match: containsKey("MIF source file"),
		apply: func(h *Header, line string) error {
			parts := strings.SplitN(line, ":", 3)
			if len(parts) < 3 {
				return errors.New("missing value")
			}
			h.MIFSource = strings.TrimSpace(parts[2])
			return nil
		},
	},
}

func containsKey(key string) func(string) bool {
	return func(line string) bool { return strings.Contains(line, key) }
}

func floatRule(key string, field func(*Header) *float64) headerRule {
	return headerRule{
		name:  key,
		match: containsKey(key),
		apply: func(h *Header, line string) error {
			v, err := parseFloat(keyValue(line))
			if err != nil {
				return err
			}
			*field(h) = v
			return nil
		},
	}
}

func nodeRule(key string, field func(*Header) *int) headerRule {
	return headerRule{
		name:  key,
		match: containsKey(key),
		apply: func(h *Header, line string) error {
			v, err := parseFloat(keyValue(line))
			if err != nil {
				return err
			}
			if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
				return fmt.Errorf("node count %g is not an integer", v)
			}
			*field(h) = int(v)
			return nil
		},
	}
}

// keyValue returns the text after the first ": " on the line, or after the
// first colon when there is no space.
func keyValue(line string) string {
	if _, v, ok := strings.Cut(line, ": "); ok {
		return v
	}
	_, v, _ := strings.Cut(line, ":")
	return v
}

// thirdSegment returns the third colon-delimited segment up to the first
// comma, e.g. "# Desc:  Iteration: 2760, State id: 5589" -> "2760".
func thirdSegment(line string) string {
	segs := strings.Split(line, ":")
	if len(segs) < 3 {
		return ""
	}
	v, _, _ := strings.Cut(segs[2], ",")
	return v
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ReadHeader reads header lines up to and including the data marker and
// leaves r positioned at the first payload byte.
func ReadHeader(r *bufio.Reader) (*Header, error) {
	h := newHeader()
	lineNo := 0
	for {
		raw, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if raw == "" && errors.Is(err, io.EOF) {
			return nil, &FormatError{Msg: fmt.Sprintf("no %q marker after %d lines", DataMarker, lineNo), Err: ErrTruncatedHeader}
		}
		lineNo++
		line := strings.TrimSpace(raw)

		if strings.Contains(line, DataMarker) {
			h.DataType = strings.Fields(line)
			if err := h.validate(); err != nil {
				return nil, err
			}
			return h, nil
		}
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Msg: fmt.Sprintf("no %q marker after %d lines", DataMarker, lineNo), Err: ErrTruncatedHeader}
		}

		if err := h.applyRules(line, lineNo); err != nil {
			return nil, err
		}
	}
}

func (h *Header) applyRules(line string, lineNo int) error {
	h.recordRaw(line)

	for _, rule := range geometryRules {
		if !rule.match(line) {
			continue
		}
		if err := rule.apply(h, line); err != nil {
			return &MalformedValueError{Section: "header", Line: lineNo, Token: line, Msg: rule.name + ": " + err.Error()}
		}
	}
	for _, rule := range provenanceRules {
		if !rule.match(line) {
			continue
		}
		if err := rule.apply(h, line); err != nil {
			return &MalformedValueError{Section: "header", Line: lineNo, Token: line, Msg: rule.name + ": " + err.Error()}
		}
		break
	}
	return nil
}

func (h *Header) recordRaw(line string) {
	body := strings.TrimSpace(strings.TrimLeft(line, "#"))
	key, value, ok := strings.Cut(body, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" || key == "Begin" || key == "End" {
		return
	}
	value = strings.TrimSpace(value)
	if prev, dup := h.Raw[key]; dup {
		// Repeated keys (OVF "Desc" lines) are kept in file order.
		value = prev + "\n" + value
	}
	h.Raw[key] = value
}

func (h *Header) validate() error {
	if len(h.DataType) < 4 {
		return formatErrorf("data marker %q has no encoding token", strings.Join(h.DataType, " "))
	}
	switch h.Encoding() {
	case EncodingText:
	case EncodingBinary:
		if len(h.DataType) < 5 {
			return formatErrorf("binary data marker has no byte width")
		}
		switch w := h.Width(); w {
		case 4, 8:
		default:
			return formatErrorf("unsupported binary width %q", h.DataType[4])
		}
	default:
		return formatErrorf("unrecognised data type %q", h.DataType[3])
	}

	for _, n := range []struct {
		name string
		v    int
	}{{"xnodes", h.XNodes}, {"ynodes", h.YNodes}, {"znodes", h.ZNodes}} {
		if n.v <= 0 {
			return formatErrorf("%s missing or not positive (%d)", n.name, n.v)
		}
	}
	if !fitsInMemory(h.XNodes, h.YNodes, h.ZNodes) {
		return formatErrorf("grid %dx%dx%d too large", h.XNodes, h.YNodes, h.ZNodes)
	}
	return nil
}

// fitsInMemory reports whether a vector payload of float64 values over the
// grid can be indexed by an int.
func fitsInMemory(dims ...int) bool {
	limit := int64(math.MaxInt / (3 * 8))
	n := int64(1)
	for _, d := range dims {
		if int64(d) > limit/n {
			return false
		}
		n *= int64(d)
	}
	return true
}
