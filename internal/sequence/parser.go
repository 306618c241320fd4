package sequence

import (
	"strings"

	"passeq/internal/model"
)

// minTokens is the shortest line that produces a record.
const minTokens = 3

// ParseLine turns one sequence line into a record. Lines with fewer than
// three whitespace separated tokens produce nothing.
func ParseLine(line string) (*model.Record, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < minTokens {
		return nil, false
	}

	var r *model.Record
	if tokens[0] == model.TypeComment {
		r = model.NewRecord(model.TypeComment, "", strings.Join(tokens[1:], " "))
	} else {
		typ := tokens[0]
		active := true
		if strings.HasPrefix(typ, "/") {
			typ = strings.TrimPrefix(typ, "/")
			active = false
		}
		r = model.NewRecord(typ, tokens[1], strings.Join(tokens[2:], " "))
		r.Active = active
	}
	r.Text = line
	return r, true
}

// Parse builds the numbered record list for the given lines.
func Parse(lines []string) []*model.Record {
	var records []*model.Record
	for _, line := range lines {
		if r, ok := ParseLine(line); ok {
			records = append(records, r)
		}
	}
	number(records)
	return records
}

// number assigns rows, folder membership and pass numbers in list order.
//
// A folder or stub opens a group that the next end of the same name closes.
// Records inside a group share the pass number in force when it opened.
// At the top level every record other than group markers and comments
// advances the counter.
func number(records []*model.Record) {
	folder := ""
	pass := 0
	for i, r := range records {
		r.Row = i
		r.InFolder = false
		switch {
		case r.IsOpener():
			folder = r.Name
		case folder != "":
			if r.IsEnd(folder) {
				folder = ""
			} else {
				r.InFolder = true
			}
		case r.Counted():
			pass++
		}
		r.PassNumber = pass
	}
}
