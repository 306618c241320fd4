package sequence

import (
	"path/filepath"

	"passeq/internal/artifact"
	"passeq/internal/model"
)

// notFound is returned by every lookup that misses. Callers check Exists.
func notFound() *model.Record {
	return &model.Record{}
}

// Count returns the number of records.
func (s *Sequence) Count() int {
	return len(s.records)
}

// Records returns the records in row order. The slice is a copy; the
// records are shared.
func (s *Sequence) Records() []*model.Record {
	out := make([]*model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Item returns the n-th record counting from 1.
func (s *Sequence) Item(n int) *model.Record {
	return s.ByRow(n - 1)
}

// LastItem returns the final record.
func (s *Sequence) LastItem() *model.Record {
	return s.ByRow(len(s.records) - 1)
}

// ByRow returns the record at row.
func (s *Sequence) ByRow(row int) *model.Record {
	if row < 0 || row >= len(s.records) {
		return notFound()
	}
	return s.records[row]
}

// ByPassNumber returns the first record carrying pass number n.
func (s *Sequence) ByPassNumber(n int) *model.Record {
	for _, r := range s.records {
		if r.PassNumber == n {
			return r
		}
	}
	return notFound()
}

// PathByPassNumber returns the backing file of pass n, or "".
func (s *Sequence) PathByPassNumber(n int) string {
	if r := s.ByPassNumber(n); r.Exists() {
		return r.FilePath
	}
	return ""
}

// Find returns the first record with the given type and name.
func (s *Sequence) Find(typ, name string) *model.Record {
	typ = model.NormalizeType(typ)
	for _, r := range s.records {
		if r.Type == typ && r.Name == name {
			return r
		}
	}
	return notFound()
}

// FindByFilename returns the record whose name matches the file's base name.
func (s *Sequence) FindByFilename(filename string) *model.Record {
	name := model.BaseName(filename)
	for _, r := range s.records {
		if r.Name == name {
			return r
		}
	}
	return notFound()
}

// PassNumberForFile returns the pass number of the record backed by
// filename, or 0 when none matches.
func (s *Sequence) PassNumberForFile(filename string) int {
	return s.FindByFilename(filename).PassNumber
}

// FilePaths returns the backing file path of every record, in order.
func (s *Sequence) FilePaths() []string {
	files := make([]string, 0, len(s.records))
	for _, r := range s.records {
		files = append(files, r.FilePath)
	}
	return files
}

// PassFilePaths returns the backing files of rule passes. With topOnly set,
// passes inside folders are left out.
func (s *Sequence) PassFilePaths(topOnly bool) []string {
	var files []string
	for _, r := range s.records {
		if topOnly && r.InFolder {
			continue
		}
		if r.Type == model.TypeRule && r.FilePath != "" {
			files = append(files, r.FilePath)
		}
	}
	return files
}

// FolderRecords returns the records inside the group opened by (typ, name).
// With includeBounds the opener and end are included. A record that does not
// open a group yields just itself when includeBounds is set.
func (s *Sequence) FolderRecords(typ, name string, includeBounds bool) []*model.Record {
	r := s.Find(typ, name)
	if !r.Exists() {
		return nil
	}
	first, last := s.block(r.Row)
	if !includeBounds {
		if !r.IsOpener() {
			return nil
		}
		first++
		if s.records[last].IsEnd(r.Name) {
			last--
		}
	}
	out := make([]*model.Record, 0, last-first+1)
	out = append(out, s.records[first:last+1]...)
	return out
}

// LastInFolder returns the end record of the group opened at row, or the
// record at row itself when it has no matching end.
func (s *Sequence) LastInFolder(row int) *model.Record {
	r := s.ByRow(row)
	if !r.Exists() {
		return r
	}
	for i := row; i < len(s.records); i++ {
		if s.records[i].IsEnd(r.Name) {
			return s.records[i]
		}
	}
	return r
}

// IsOrphan reports whether no record is named name.
func (s *Sequence) IsOrphan(name string) bool {
	for _, r := range s.records {
		if r.Name == name {
			return false
		}
	}
	return true
}

// Orphans lists pass files in the spec directory that no record uses.
func (s *Sequence) Orphans() ([]string, error) {
	files, err := model.ListFiles(s.specDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		if !isPassFile(f, s.extensions) {
			continue
		}
		if s.IsOrphan(model.BaseName(f)) {
			out = append(out, f)
		}
	}
	return out, nil
}

func isPassFile(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// AtBottom reports whether the record, together with its group, ends the list.
func (s *Sequence) AtBottom(r *model.Record) bool {
	if !r.Exists() {
		return false
	}
	_, last := s.block(r.Row)
	return last == len(s.records)-1
}

// InFolder scans backwards from the record and reports whether a folder
// opener is reached before an end record.
func (s *Sequence) InFolder(r *model.Record) bool {
	if !r.Exists() {
		return false
	}
	for row := r.Row - 1; row >= 0; row-- {
		switch prev := s.records[row]; {
		case prev.IsEndTag():
			return false
		case prev.IsOpener():
			return true
		}
	}
	return false
}

// SetCurrentPass records the pass number the caller is looking at.
func (s *Sequence) SetCurrentPass(n int) {
	s.currentPass = n
}

// CurrentPass returns the pass number set by SetCurrentPass.
func (s *Sequence) CurrentPass() int {
	return s.currentPass
}

// CurrentItem returns the record for the current pass number.
func (s *Sequence) CurrentItem() *model.Record {
	return s.Item(s.currentPass)
}

// OutputFile returns the artifact path of the given kind for pass n.
func (s *Sequence) OutputFile(n int, kind artifact.Kind) string {
	return s.sync.Namer().Path(n, kind)
}

// TouchTraceArtifacts creates an empty trace artifact for every pass
// number that lacks one. Records ahead of the first pass own none.
func (s *Sequence) TouchTraceArtifacts() error {
	seen := make(map[int]bool)
	for _, r := range s.records {
		if r.PassNumber < 1 || seen[r.PassNumber] {
			continue
		}
		seen[r.PassNumber] = true
		if err := s.sync.Touch(r.PassNumber, artifact.KindTrace); err != nil {
			return err
		}
	}
	return nil
}

