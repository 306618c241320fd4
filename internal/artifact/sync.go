package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"passeq/internal/model"
)

// Synchronizer moves artifacts on disk when passes exchange position.
type Synchronizer struct {
	namer    Namer
	log      *zap.Logger
	holdName func(path string) string
}

// Option customizes a Synchronizer during construction.
type Option func(*Synchronizer)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Synchronizer) {
		s.log = log
	}
}

// WithHoldName overrides how the temporary rotation file is named.
func WithHoldName(fn func(path string) string) Option {
	return func(s *Synchronizer) {
		s.holdName = fn
	}
}

// NewSynchronizer builds a synchronizer over the given naming scheme.
func NewSynchronizer(namer Namer, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		namer: namer,
		log:   zap.NewNop(),
		holdName: func(path string) string {
			return path + "." + uuid.NewString() + ".swap"
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namer returns the naming scheme in use.
func (s *Synchronizer) Namer() Namer {
	return s.namer
}

// Shift moves a pass's artifacts from one pass number to another.
type Shift struct {
	From int
	To   int
}

// Swap exchanges the trace and knowledge-base artifacts of the two records'
// pass numbers.
func (s *Synchronizer) Swap(one, two *model.Record) error {
	return s.Remap([]Shift{
		{From: one.PassNumber, To: two.PassNumber},
		{From: two.PassNumber, To: one.PassNumber},
	})
}

// Remap moves the trace and knowledge-base artifacts of every shift at once.
// Destination numbers must be distinct. A destination whose source has no
// artifact is cleared, so a pass never inherits another pass's output.
func (s *Synchronizer) Remap(shifts []Shift) error {
	for _, kind := range SwappedKinds {
		if err := s.remap(shifts, kind); err != nil {
			return err
		}
	}
	return nil
}

// remap parks every source under a hold name before writing any
// destination, which keeps chains and cycles of shifts from clobbering
// files that have yet to move.
func (s *Synchronizer) remap(shifts []Shift, kind Kind) error {
	held := make(map[int]string, len(shifts))
	for _, sh := range shifts {
		if sh.From == sh.To {
			continue
		}
		src := s.namer.Path(sh.From, kind)
		if !model.Exists(src) {
			continue
		}
		hold := s.holdName(src)
		if err := os.Rename(src, hold); err != nil {
			return fmt.Errorf("artifact: hold %s: %w", src, err)
		}
		held[sh.From] = hold
	}

	for _, sh := range shifts {
		if sh.From == sh.To {
			continue
		}
		dst := s.namer.Path(sh.To, kind)
		hold, ok := held[sh.From]
		if !ok {
			if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("artifact: clear %s: %w", dst, err)
			}
			continue
		}
		if err := os.Rename(hold, dst); err != nil {
			return fmt.Errorf("artifact: place %s: %w", dst, err)
		}
		s.log.Debug("moved artifact", zap.Int("from", sh.From), zap.Int("to", sh.To), zap.String("path", dst))
	}
	return nil
}

// Touch creates an empty artifact of the given kind when none exists.
func (s *Synchronizer) Touch(passNum int, kind Kind) error {
	path := s.namer.Path(passNum, kind)
	if model.Exists(path) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: ensure log dir: %w", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("artifact: touch %s: %w", path, err)
	}
	return nil
}
