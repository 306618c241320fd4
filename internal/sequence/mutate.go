package sequence

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"passeq/internal/model"
	"passeq/internal/passfile"
)

const (
	newPassComment   = "# comment"
	newFolderComment = "# new folder"
)

// ErrInvalidName is returned for a name that cannot be written to the
// sequence file or used as a pass file name.
var ErrInvalidName = errors.New("sequence: invalid name")

// ValidateName rejects names containing whitespace or path separators, and
// the names "." and "..". Whitespace would split the name on reload, and a
// separator would put the pass file outside the spec directory. The empty
// name passes; the mutators treat it as nothing to do.
func ValidateName(name string) error {
	switch {
	case name == "." || name == "..":
	case strings.ContainsFunc(name, unicode.IsSpace):
	case strings.ContainsAny(name, `/\`):
	default:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidName, name)
}

// Rename renames the record (type, name). Renaming a folder renames its end
// record as well.
func (s *Sequence) Rename(typ, name, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	r := s.Find(typ, name)
	if !r.Exists() || newName == "" {
		s.log.Debug("rename: nothing to do", zap.String("type", typ), zap.String("name", name))
		return nil
	}
	if r.IsOpener() {
		if _, last := s.block(r.Row); last != r.Row {
			s.records[last].Name = newName
		}
	}
	r.Name = newName
	if r.IsRuleFile() {
		r.FilePath = s.resolvePath(newName)
	}
	s.log.Info("renamed", zap.String("type", typ), zap.String("from", name), zap.String("to", newName))
	return s.commit()
}

// Duplicate copies the backing file of (type, name) to newName.nlp in the
// same directory and inserts a record for the copy right after the source.
// An existing file of that name is left alone and reported as fs.ErrExist.
func (s *Sequence) Duplicate(typ, name, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	r := s.Find(typ, name)
	if !r.Exists() || r.FilePath == "" || newName == "" {
		s.log.Debug("duplicate: nothing to do", zap.String("type", typ), zap.String("name", name))
		return nil
	}
	dst := filepath.Join(filepath.Dir(r.FilePath), newName+".nlp")
	if model.Exists(dst) {
		return fmt.Errorf("sequence: duplicate %s: %s: %w", name, dst, fs.ErrExist)
	}
	if err := model.CopyFile(r.FilePath, dst); err != nil {
		return fmt.Errorf("sequence: duplicate %s: %w", name, err)
	}
	s.insertAt(r.Row+1, s.recordFromFile(dst))
	s.log.Info("duplicated", zap.String("name", name), zap.String("copy", newName))
	return s.commit()
}

// Insert adds records after row and returns the row of the last one added.
// source is either a pass file or a directory whose files are inserted in
// name order. Files outside the spec directory are copied into it first.
func (s *Sequence) Insert(row int, source string) (int, error) {
	if !s.inRange(row) {
		s.log.Debug("insert: row out of range", zap.Int("row", row))
		return row, nil
	}

	sources := []string{source}
	if model.IsDir(source) {
		files, err := model.ListFiles(source)
		if err != nil {
			return row, fmt.Errorf("sequence: insert: %w", err)
		}
		sources = files
	}

	for _, src := range sources {
		if err := ValidateName(model.BaseName(src)); err != nil {
			return row, err
		}
	}

	specDir := filepath.Clean(s.specDir)
	for _, src := range sources {
		dst := filepath.Join(specDir, filepath.Base(src))
		if filepath.Clean(filepath.Dir(src)) != specDir {
			if err := model.CopyFile(src, dst); err != nil {
				number(s.records)
				return row, fmt.Errorf("sequence: insert %s: %w", src, err)
			}
		}
		row++
		s.insertAt(row, s.recordFromFile(dst))
		s.log.Info("inserted", zap.String("path", dst), zap.Int("row", row))
	}
	return row, s.commit()
}

// InsertNewPass creates a pass file of the given kind and inserts it right
// after the anchor record.
func (s *Sequence) InsertNewPass(anchorType, anchorName, newName string, kind passfile.Kind) error {
	anchor := s.Find(anchorType, anchorName)
	if !anchor.Exists() || newName == "" {
		s.log.Debug("new pass: nothing to do", zap.String("anchor", anchorName))
		return nil
	}
	r, err := s.newPass(newName, kind)
	if err != nil {
		return err
	}
	s.insertAt(anchor.Row+1, r)
	return s.commit()
}

// InsertNewPassAtEnd creates a pass file of the given kind and appends it.
func (s *Sequence) InsertNewPassAtEnd(newName string, kind passfile.Kind) error {
	if newName == "" {
		return nil
	}
	r, err := s.newPass(newName, kind)
	if err != nil {
		return err
	}
	s.records = append(s.records, r)
	return s.commit()
}

func (s *Sequence) newPass(name string, kind passfile.Kind) (*model.Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	path, err := s.templates.Create(s.specDir, name, kind)
	if err != nil {
		return nil, err
	}
	s.log.Info("created pass file", zap.String("path", path), zap.Stringer("kind", kind))
	return s.recordFromFile(path), nil
}

// InsertNewFolder inserts an empty folder after the anchor record. When the
// anchor is itself a folder the new one goes after its end record, never
// inside it.
func (s *Sequence) InsertNewFolder(anchorType, anchorName, folder string) error {
	if err := ValidateName(folder); err != nil {
		return err
	}
	anchor := s.Find(anchorType, anchorName)
	if !anchor.Exists() || folder == "" {
		s.log.Debug("new folder: nothing to do", zap.String("anchor", anchorName))
		return nil
	}
	row := anchor.Row
	if anchor.IsOpener() {
		_, row = s.block(row)
	}
	s.insertAt(row+1, folderRecord(model.TypeFolder, folder))
	s.insertAt(row+2, folderRecord(model.TypeEnd, folder))
	return s.commit()
}

// InsertNewFolderAtEnd appends an empty folder.
func (s *Sequence) InsertNewFolderAtEnd(folder string) error {
	if folder == "" {
		return nil
	}
	if err := ValidateName(folder); err != nil {
		return err
	}
	s.records = append(s.records,
		folderRecord(model.TypeFolder, folder),
		folderRecord(model.TypeEnd, folder))
	return s.commit()
}

// Delete removes the record (type, name). For a folder, mode decides
// between removing the whole region and only its folder and end records.
// The file is rewritten even when nothing matched.
func (s *Sequence) Delete(typ, name string, mode DeleteMode) error {
	r := s.Find(typ, name)
	switch {
	case !r.Exists():
		s.log.Debug("delete: no such record", zap.String("type", typ), zap.String("name", name))
	case r.IsOpener():
		first, last := s.block(r.Row)
		if mode == DeleteBoundary {
			if last != first {
				s.records = slices.Delete(s.records, last, last+1)
			}
			s.records = slices.Delete(s.records, first, first+1)
		} else {
			s.records = slices.Delete(s.records, first, last+1)
		}
		s.log.Info("deleted folder", zap.String("name", name), zap.Bool("boundaryOnly", mode == DeleteBoundary))
	default:
		s.records = slices.Delete(s.records, r.Row, r.Row+1)
		s.log.Info("deleted", zap.String("type", typ), zap.String("name", name))
	}
	return s.commit()
}

// SetActive enables or disables the record (type, name). For a folder the
// flag is applied to the folder, everything inside it and its end record.
func (s *Sequence) SetActive(typ, name string, active bool) error {
	r := s.Find(typ, name)
	if !r.Exists() {
		return nil
	}
	first, last := r.Row, r.Row
	if r.IsOpener() {
		first, last = s.block(r.Row)
	}
	for _, rec := range s.records[first : last+1] {
		rec.Active = active
	}
	return s.commit()
}

// SetType changes the type tag of (type, name) and re-enables it.
func (s *Sequence) SetType(typ, name, newType string) error {
	newType = strings.TrimSpace(newType)
	if err := ValidateName(newType); err != nil {
		return err
	}
	r := s.Find(typ, name)
	if !r.Exists() || newType == "" {
		return nil
	}
	r.Type = model.NormalizeType(newType)
	r.Active = true
	r.Tokenizer = r.IsTokenizer()
	if r.IsRuleFile() {
		r.FilePath = s.resolvePath(r.Name)
	} else {
		r.FilePath = ""
	}
	return s.commit()
}

func (s *Sequence) insertAt(row int, r *model.Record) {
	s.records = slices.Insert(s.records, row, r)
}

// recordFromFile builds a record for a pass file, typed by its extension.
func (s *Sequence) recordFromFile(path string) *model.Record {
	typ := strings.TrimPrefix(filepath.Ext(path), ".")
	r := model.NewRecord(typ, model.BaseName(path), newPassComment)
	r.FilePath = path
	r.Text = FormatRecord(r)
	return r
}

func folderRecord(typ, name string) *model.Record {
	r := model.NewRecord(typ, name, newFolderComment)
	r.Text = FormatRecord(r)
	return r
}
