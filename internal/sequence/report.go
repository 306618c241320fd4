package sequence

import (
	"fmt"
	"strings"

	"passeq/internal/model"
)

// Summary counts what the sequence holds.
type Summary struct {
	Records  int `json:"records"`
	Passes   int `json:"passes"`
	Folders  int `json:"folders"`
	Inactive int `json:"inactive"`
	Missing  int `json:"missing"`
}

// Summarize counts records, passes, folders, disabled and missing files.
func (s *Sequence) Summarize() Summary {
	sum := Summary{Records: len(s.records)}
	for _, r := range s.records {
		if r.IsOpener() {
			sum.Folders++
		}
		if r.Counted() && !r.InFolder {
			sum.Passes++
		}
		if !r.Active {
			sum.Inactive++
		}
		if r.IsRuleFile() && !r.FileExists() {
			sum.Missing++
		}
	}
	return sum
}

// Report renders the sequence as a plain text listing. Verbose adds the
// backing file of each pass and the orphaned pass files.
func Report(s *Sequence, verbose bool) string {
	var b strings.Builder
	sum := s.Summarize()

	fmt.Fprintf(&b, "Sequence: %s\n", s.SequencePath())
	fmt.Fprintf(&b, "Records: %d  Passes: %d  Folders: %d  Inactive: %d  Missing files: %d\n\n",
		sum.Records, sum.Passes, sum.Folders, sum.Inactive, sum.Missing)

	for _, r := range s.records {
		indent := ""
		if r.InFolder {
			indent = "  "
		}
		num := "   "
		if r.Counted() && !r.InFolder {
			num = fmt.Sprintf("%3d", r.PassNumber)
		}
		typ := r.Type
		if !r.Active {
			typ = "/" + typ
		}
		fmt.Fprintf(&b, "%s %s %s%-10s %-20s %s\n", num, model.StatusIcon(r), indent, typ, r.Name, r.Comment)
		if verbose && r.FilePath != "" {
			state := "ok"
			if !r.FileExists() {
				state = "missing"
			}
			fmt.Fprintf(&b, "        %sfile: %s (%s)\n", indent, r.FilePath, state)
		}
	}

	if verbose {
		orphans, err := s.Orphans()
		switch {
		case err != nil:
			fmt.Fprintf(&b, "\nOrphan scan failed: %v\n", err)
		case len(orphans) > 0:
			b.WriteString("\nPass files not in the sequence:\n")
			for _, o := range orphans {
				fmt.Fprintf(&b, "  %s\n", o)
			}
		}
	}
	return b.String()
}
