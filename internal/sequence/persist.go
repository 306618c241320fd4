package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"passeq/internal/model"
)

// FormatRecord renders a record as one sequence line.
func FormatRecord(r *model.Record) string {
	prefix := ""
	if !r.Active {
		prefix = "/"
	}
	return prefix + r.Type + "\t" + r.Name + "\t" + r.Comment
}

// Format renders the records as sequence file content, one per line
// without a trailing newline.
func Format(records []*model.Record) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = FormatRecord(r)
	}
	return strings.Join(lines, "\n")
}

// String returns the serialized sequence.
func (s *Sequence) String() string {
	return Format(s.records)
}

// Save writes the list to the sequence file through a temporary file in the
// same directory so readers never observe a partial write.
func (s *Sequence) Save() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".seq-*.tmp")
	if err != nil {
		return fmt.Errorf("sequence: save: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(s.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sequence: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sequence: save: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sequence: save: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sequence: save: %w", err)
	}
	s.log.Debug("sequence saved", zap.String("path", s.path), zap.Int("records", len(s.records)))
	return nil
}

// commit renumbers the list and writes it out.
func (s *Sequence) commit() error {
	number(s.records)
	return s.Save()
}
