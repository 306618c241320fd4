package sequence

import (
	"go.uber.org/zap"

	"passeq/internal/artifact"
	"passeq/internal/model"
)

// Move shifts the record (type, name) one step up or down.
//
// Rule passes, end records and anything inside a folder trade places with
// their immediate neighbour. Other records move together with their group:
// a folder and its contents jump over the adjacent record, or over the whole
// adjacent folder when the neighbour is a folder.
//
// Moving past either end of the list does nothing. Once the records are in
// place and renumbered, each pass's artifacts follow it to its new number.
func (s *Sequence) Move(typ, name string, dir Direction) error {
	r := s.Find(typ, name)
	if !r.Exists() {
		s.log.Debug("move: no such record", zap.String("type", typ), zap.String("name", name))
		return nil
	}
	before := s.passOwners()
	if !s.move(r.Row, dir) {
		s.log.Debug("move: at boundary", zap.String("name", name), zap.Stringer("dir", dir))
		return nil
	}
	number(s.records)
	if err := s.sync.Remap(artifactShifts(before, s.records)); err != nil {
		return err
	}
	s.log.Info("moved", zap.String("type", typ), zap.String("name", name), zap.Stringer("dir", dir))
	return s.commit()
}

func (s *Sequence) move(row int, dir Direction) bool {
	r := s.records[row]
	if r.IsRuleFile() || r.InFolder || r.IsEndTag() {
		other := row + 1
		if dir == Up {
			other = row - 1
		}
		if !s.inRange(other) {
			return false
		}
		s.swap(row, other)
		return true
	}

	first, last := s.block(row)
	nFirst, nLast, ok := s.neighbour(first, last, dir)
	if !ok {
		return false
	}
	grouped := s.records[nFirst].IsOpener()

	switch {
	case dir == Down && grouped:
		s.rotate(first, last-first+1, nLast-first)
	case dir == Up && grouped:
		s.rotate(nFirst, nLast-nFirst+1, last-nFirst)
	case dir == Down:
		for i := last; i >= first; i-- {
			s.swap(i, i+1)
		}
	default:
		for i := first; i <= last; i++ {
			s.swap(i-1, i)
		}
	}
	return true
}

func (s *Sequence) inRange(row int) bool {
	return row >= 0 && row < len(s.records)
}

// block returns the rows spanned by the record at row: a folder or stub
// through its matching end, otherwise the record alone. An opener with no
// matching end stands alone.
func (s *Sequence) block(row int) (int, int) {
	r := s.records[row]
	if !r.IsOpener() {
		return row, row
	}
	for i := row + 1; i < len(s.records); i++ {
		if s.records[i].IsEnd(r.Name) {
			return row, i
		}
	}
	return row, row
}

// neighbour returns the top-level unit adjacent to rows first..last.
// Below, that is the next record or, when it opens a folder, the folder's
// whole block. Above, an end record is followed back to its opener.
func (s *Sequence) neighbour(first, last int, dir Direction) (int, int, bool) {
	if dir == Down {
		next := last + 1
		if !s.inRange(next) {
			return 0, 0, false
		}
		nFirst, nLast := s.block(next)
		return nFirst, nLast, true
	}

	prev := first - 1
	if !s.inRange(prev) {
		return 0, 0, false
	}
	if end := s.records[prev]; end.IsEndTag() {
		for i := prev - 1; i >= 0; i-- {
			if o := s.records[i]; o.IsOpener() && o.Name == end.Name {
				if _, l := s.block(i); l == prev {
					return i, prev, true
				}
				break
			}
		}
	}
	return prev, prev, true
}

// rotate walks the record at top forward by steps single swaps, count times.
// This carries rows top..top+count-1 past the following steps-count+1 rows
// while keeping both runs in order.
func (s *Sequence) rotate(top, count, steps int) {
	for n := 0; n < count; n++ {
		for j := top; j < top+steps; j++ {
			s.swap(j, j+1)
		}
	}
}

// swap exchanges the records at rows i and j. Pass numbers are left for
// number to recompute.
func (s *Sequence) swap(i, j int) {
	a, b := s.records[i], s.records[j]
	a.Row, b.Row = b.Row, a.Row
	s.records[i], s.records[j] = b, a
}

// ownsNumber reports whether r holds a pass number of its own. Comments,
// group markers and folder contents share the number of the pass before them.
func ownsNumber(r *model.Record) bool {
	return !r.InFolder && r.Counted()
}

func (s *Sequence) passOwners() map[*model.Record]int {
	owners := make(map[*model.Record]int)
	for _, r := range s.records {
		if ownsNumber(r) {
			owners[r] = r.PassNumber
		}
	}
	return owners
}

// artifactShifts lists, in row order, the passes whose number changed
// between the before snapshot and the current numbering.
func artifactShifts(before map[*model.Record]int, records []*model.Record) []artifact.Shift {
	var shifts []artifact.Shift
	for _, r := range records {
		from, ok := before[r]
		if !ok || !ownsNumber(r) || from == r.PassNumber {
			continue
		}
		shifts = append(shifts, artifact.Shift{From: from, To: r.PassNumber})
	}
	return shifts
}
