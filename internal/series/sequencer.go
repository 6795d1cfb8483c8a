package series

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/ovfkit/internal/logger"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// DefaultMemoryFraction is the share of available memory a load may occupy
// when no explicit budget is configured.
const DefaultMemoryFraction = 0.5

// Sequencer decodes groups of step files. The zero value is not usable; build
// one with New.
type Sequencer struct {
	prefix         string
	mode           ovf.Mode
	workers        int
	memoryBudget   int64
	memoryFraction float64
	mmap           bool
	log            logger.Logger

	availableMemory func(ctx context.Context) (uint64, error)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithPrefix sets the filename prefix of group members. Without it a member
// file passed to Load selects its own prefix, and a directory uses
// DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Sequencer) { s.prefix = prefix }
}

// WithMode selects vector or scalar decoding for every member.
func WithMode(mode ovf.Mode) Option {
	return func(s *Sequencer) { s.mode = mode }
}

// WithWorkers caps concurrent decodes. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Sequencer) { s.workers = n }
}

// WithMemoryBudget bounds the bytes of field storage decoded at once.
// Zero or less derives the budget from available system memory.
func WithMemoryBudget(bytes int64) Option {
	return func(s *Sequencer) { s.memoryBudget = bytes }
}

// WithMemoryFraction sets the share of available memory used when no
// explicit budget is set.
func WithMemoryFraction(f float64) Option {
	return func(s *Sequencer) {
		if f > 0 && f <= 1 {
			s.memoryFraction = f
		}
	}
}

// WithMmap is passed through to ovf.WithMmap.
func WithMmap(enabled bool) Option {
	return func(s *Sequencer) { s.mmap = enabled }
}

// WithLogger sets the logger. Without it Load uses logger.FromContext.
func WithLogger(l logger.Logger) Option {
	return func(s *Sequencer) { s.log = l }
}

// New returns a Sequencer loading vector fields.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		mode:            ovf.ModeVector,
		memoryFraction:  DefaultMemoryFraction,
		mmap:            true,
		availableMemory: systemAvailable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func systemAvailable(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// Load discovers the group at path and decodes every member. Members are
// decoded concurrently but returned in filename order. The first failure
// cancels the remaining work and no partial series is returned.
func (s *Sequencer) Load(ctx context.Context, path string) (*Series, error) {
	log := s.log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := Discover(path, s.prefix)
	if err != nil {
		return nil, err
	}
	if len(g.DigitWidths) > 1 {
		log.Warn("step indices have unequal digit counts; filename order may not be step order",
			"dir", g.Dir, "widths", g.DigitWidths)
	}
	if len(g.Shadowed) > 0 {
		log.Warn("skipping duplicate copies of steps", "dir", g.Dir, "files", g.Shadowed)
	}

	paths := g.Paths()
	first, err := ovf.ReadFileHeader(paths[0], ovf.WithMmap(s.mmap))
	if err != nil {
		return nil, err
	}
	frameBytes := FrameBytes(first, s.mode)
	workers := s.workerCount(ctx, len(paths), frameBytes)
	log.Debug("loading group",
		"dir", g.Dir,
		"files", len(paths),
		"mode", s.mode.String(),
		"workers", workers,
		logger.Bytes("frame_bytes", frameBytes),
	)

	frames := make([]Frame, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, p := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			h, f, err := ovf.DecodeFile(p, s.mode, ovf.WithMmap(s.mmap))
			if err != nil {
				return err
			}
			frames[i] = Frame{Path: p, Header: h, Field: f}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, fr := range frames[1:] {
		if !fr.Field.SameGeometry(frames[0].Field) {
			return nil, fmt.Errorf("%w: %s has shape %v, %s has shape %v",
				ovf.ErrGeometryMismatch, fr.Path, fr.Field.Shape(), frames[0].Path, frames[0].Field.Shape())
		}
	}

	log.Info("loaded group", "dir", g.Dir, "frames", len(frames), "shape", fmt.Sprint(frames[0].Field.Shape()))
	return &Series{Dir: g.Dir, Prefix: g.Prefix, Mode: s.mode, Frames: frames}, nil
}

// FrameBytes is the field storage one decoded member of h occupies.
func FrameBytes(h *ovf.Header, mode ovf.Mode) int64 {
	width := int64(8)
	if h.Width() == 4 {
		width = 4
	}
	return int64(h.Cells()) * int64(mode.Components()) * width
}

// workerCount is min(configured, GOMAXPROCS, files, budget/frameBytes), and
// at least one.
func (s *Sequencer) workerCount(ctx context.Context, files int, frameBytes int64) int {
	n := runtime.GOMAXPROCS(0)
	if s.workers > 0 {
		n = min(n, s.workers)
	}
	n = min(n, files)

	if budget := s.budget(ctx); budget > 0 && frameBytes > 0 {
		n = min(n, int(budget/frameBytes))
	}
	return max(n, 1)
}

func (s *Sequencer) budget(ctx context.Context) int64 {
	if s.memoryBudget > 0 {
		return s.memoryBudget
	}
	avail, err := s.availableMemory(ctx)
	if err != nil || avail == 0 {
		return 0
	}
	return int64(float64(avail) * s.memoryFraction)
}
