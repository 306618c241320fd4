// Package sequence loads, edits and saves an analyzer's pass sequence.
//
// The sequence file lists one pass per line in the form
//
//	[/]<type>\t<name>\t<comment...>
//
// Folders are flat: a folder (or stub) record opens a group and the next
// end record with the same name closes it. Records keep their row and pass
// number in step with the list after every edit, and every edit is written
// back to disk before it returns.
//
// A Sequence is not safe for concurrent use; callers serialize access.
package sequence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"passeq/internal/artifact"
	"passeq/internal/model"
	"passeq/internal/passfile"
)

// DefaultFileName is the sequence file inside the spec directory.
const DefaultFileName = "analyzer.seq"

// ErrNoSpecDir is returned when no spec directory is configured.
var ErrNoSpecDir = errors.New("sequence: spec directory is required")

// Direction of a move.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "UP", "u":
		return Up, nil
	case "down", "DOWN", "d":
		return Down, nil
	}
	return Up, fmt.Errorf("sequence: unknown direction %q", s)
}

// DeleteMode controls how a folder is deleted.
type DeleteMode int

const (
	// DeleteRegion removes the folder together with everything inside it.
	DeleteRegion DeleteMode = iota
	// DeleteBoundary removes only the folder and end records, lifting the
	// contents to the top level.
	DeleteBoundary
)

// Options configure a Sequence.
type Options struct {
	SpecDir    string
	FileName   string           // Defaults to DefaultFileName
	Extensions []string         // Rule-file extensions probed in order; defaults to .pat, .nlp
	Author     string           // Written into new pass files
	Artifacts  artifact.Namer   // Defaults to <analyzer>/input/text.txt_log
	Logger     *zap.Logger      // Defaults to a no-op logger
	Clock      func() time.Time // Defaults to time.Now
}

// Sequence is the in-memory pass list of one analyzer.
type Sequence struct {
	specDir     string
	path        string
	extensions  []string
	records     []*model.Record
	sync        *artifact.Synchronizer
	templates   *passfile.Generator
	log         *zap.Logger
	currentPass int
}

// DefaultLogDir is where the analyzer writes per-pass output for specDir.
func DefaultLogDir(specDir string) string {
	return filepath.Join(filepath.Dir(specDir), "input", "text.txt_log")
}

// New builds an empty Sequence without touching the disk.
func New(opts Options) (*Sequence, error) {
	if opts.SpecDir == "" {
		return nil, ErrNoSpecDir
	}
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = model.PassExtensions
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.LogDir{Dir: DefaultLogDir(opts.SpecDir)}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	templates := passfile.New(opts.Author)
	if opts.Clock != nil {
		templates.Now = opts.Clock
	}
	return &Sequence{
		specDir:    opts.SpecDir,
		path:       filepath.Join(opts.SpecDir, opts.FileName),
		extensions: opts.Extensions,
		sync:       artifact.NewSynchronizer(opts.Artifacts, artifact.WithLogger(opts.Logger)),
		templates:  templates,
		log:        opts.Logger,
	}, nil
}

// Load builds a Sequence and reads its file.
func Load(opts Options) (*Sequence, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload discards the in-memory list and parses the file again.
// A missing sequence file yields an empty list.
func (s *Sequence) Reload() error {
	lines, err := model.ReadLines(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.records = nil
			s.log.Debug("sequence file missing", zap.String("path", s.path))
			return nil
		}
		return fmt.Errorf("sequence: load: %w", err)
	}
	records := Parse(lines)
	for _, r := range records {
		if !r.IsRuleFile() {
			continue
		}
		r.FilePath = s.resolvePath(r.Name)
		r.Highlight = s.probeHighlight(r)
	}
	s.records = records
	s.log.Debug("sequence loaded", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

// SpecDir returns the directory holding the sequence and pass files.
func (s *Sequence) SpecDir() string { return s.specDir }

// SequencePath returns the sequence file path.
func (s *Sequence) SequencePath() string { return s.path }

// Artifacts returns the naming scheme used for per-pass output.
func (s *Sequence) Artifacts() artifact.Namer { return s.sync.Namer() }

// resolvePath probes each extension in order and falls back to the last one.
func (s *Sequence) resolvePath(name string) string {
	for _, ext := range s.extensions {
		p := filepath.Join(s.specDir, name+ext)
		if model.Exists(p) {
			return p
		}
	}
	return filepath.Join(s.specDir, name+s.extensions[len(s.extensions)-1])
}

func (s *Sequence) probeHighlight(r *model.Record) bool {
	fired, err := artifact.HasFired(s.sync.Namer().Path(r.PassNumber, artifact.KindTree))
	if err != nil {
		s.log.Warn("highlight probe failed", zap.String("name", r.Name), zap.Error(err))
		return false
	}
	return fired
}
