package series

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// DefaultPrefix is the filename prefix of magnetisation snapshots.
const DefaultPrefix = "m"

var leadingPrefix = regexp.MustCompile(`^(\D+)\d+\.ovf`)

// Group is the result of discovery: the directory, the prefix and pattern
// that were matched and the matching names in load order.
type Group struct {
	Dir     string
	Prefix  string
	Pattern string
	Names   []string

	// Shadowed lists compressed copies skipped because another file holds the
	// same step. A plain file is preferred over any compressed copy.
	Shadowed []string

	// DigitWidths holds the distinct step-index widths seen, smallest first.
	// More than one entry means lexicographic order may not be numeric order.
	DigitWidths []int
}

// Paths returns the full path of every member.
func (g *Group) Paths() []string {
	out := make([]string, len(g.Names))
	for i, n := range g.Names {
		out[i] = filepath.Join(g.Dir, n)
	}
	return out
}

func groupPattern(prefix string) *regexp.Regexp {
	suffixes := ovf.CompressedSuffixes()
	for i, s := range suffixes {
		suffixes[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)\.ovf(` + strings.Join(suffixes, "|") + `)?$`)
}

// Discover resolves path to a group directory and lists its members. path
// may be the directory itself (including a simulator "*.out" directory) or
// any file inside it. An explicit prefix always wins; with an empty prefix a
// member file selects its own step prefix and a directory uses
// DefaultPrefix. Each step is listed once even when compressed copies of it
// sit beside the plain file.
func Discover(path, prefix string) (*Group, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	dir := path
	if !st.IsDir() {
		dir = filepath.Dir(path)
		if m := leadingPrefix.FindStringSubmatch(filepath.Base(path)); m != nil && prefix == "" {
			prefix = m[1]
		}
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	re := groupPattern(prefix)
	g := &Group{Dir: dir, Prefix: prefix, Pattern: re.String()}
	steps := map[string]string{}
	widths := map[int]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		widths[len(m[1])] = true

		stem := ovf.TrimCompressedSuffix(name)
		prev, ok := steps[stem]
		switch {
		case !ok:
			steps[stem] = name
		case preferMember(name, prev, stem):
			steps[stem] = name
			g.Shadowed = append(g.Shadowed, prev)
		default:
			g.Shadowed = append(g.Shadowed, name)
		}
	}
	if len(steps) == 0 {
		return nil, &ovf.EmptyGroupError{Dir: dir, Pattern: g.Pattern}
	}
	for _, name := range steps {
		g.Names = append(g.Names, name)
	}
	sort.Strings(g.Names)
	sort.Strings(g.Shadowed)
	for w := range widths {
		g.DigitWidths = append(g.DigitWidths, w)
	}
	sort.Ints(g.DigitWidths)
	return g, nil
}

// preferMember reports whether name should replace prev as the file for
// stem: the plain file first, then the lexically smallest compressed name.
func preferMember(name, prev, stem string) bool {
	if prev == stem {
		return false
	}
	return name == stem || name < prev
}
