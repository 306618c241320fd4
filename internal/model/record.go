package model

import (
	"os"
	"strings"
)

// Version is reported by --version and checked against the latest release.
const Version = "0.4.1"

// Type tags recognised in the sequence file.
const (
	TypeRule    = "nlp"
	TypeRec     = "rec"
	TypePat     = "pat" // legacy spelling of TypeRule
	TypeFolder  = "folder"
	TypeStub    = "stub"
	TypeEnd     = "end"
	TypeComment = "#"
)

// Tokenizers lists the tags that mark a tokenizer pass.
var Tokenizers = []string{"tokenize", "tok", "token", "cmltokenize", "cmltok", "dicttok", "dicttokz", "chartok"}

// Record is one entry of the pass sequence.
type Record struct {
	Text       string `json:"text"`       // Raw line the record was built from
	Name       string `json:"name"`       // Pass or folder name
	Type       string `json:"type"`       // Type tag (nlp, folder, end, #, tokenize...)
	Comment    string `json:"comment"`    // Trailing free text
	Active     bool   `json:"active"`     // False when the line starts with '/'
	PassNumber int    `json:"passNumber"` // Ordinal of the enclosing top-level pass
	Row        int    `json:"row"`        // 0-based position in the list
	InFolder   bool   `json:"inFolder"`   // Strictly between a folder opener and its end
	FilePath   string `json:"filePath"`   // Backing file for rule records
	Tokenizer  bool   `json:"tokenizer"`  // Type tag is a known tokenizer
	Highlight  bool   `json:"highlight"`  // Tree artifact holds fired rules

	present bool
}

// NewRecord returns a materialized record. The zero Record is the
// "not found" marker returned by lookups.
func NewRecord(typ, name, comment string) *Record {
	r := &Record{
		Type:    NormalizeType(typ),
		Name:    name,
		Comment: comment,
		Active:  true,
		present: true,
	}
	r.Tokenizer = r.IsTokenizer()
	return r
}

// NormalizeType folds legacy aliases onto their current tag.
func NormalizeType(typ string) string {
	if typ == TypePat {
		return TypeRule
	}
	return typ
}

func (r *Record) IsTokenizer() bool {
	t := strings.ToLower(r.Type)
	for _, tok := range Tokenizers {
		if t == tok {
			return true
		}
	}
	return false
}

// IsRuleFile reports whether the record is backed by a rule file.
func (r *Record) IsRuleFile() bool {
	return r.Type == TypeRule || r.Type == TypeRec
}

func (r *Record) IsFolder() bool { return r.Type == TypeFolder }

func (r *Record) IsStub() bool { return r.Type == TypeStub }

// IsOpener reports whether the record starts a group (folder or stub).
func (r *Record) IsOpener() bool { return r.IsFolder() || r.IsStub() }

// IsEnd reports whether the record closes the group called name.
func (r *Record) IsEnd(name string) bool {
	return r.Type == TypeEnd && r.Name == name
}

func (r *Record) IsEndTag() bool { return r.Type == TypeEnd }

func (r *Record) IsComment() bool { return r.Type == TypeComment }

// Counted reports whether the record can advance the pass counter.
// Group markers and comment lines never do.
func (r *Record) Counted() bool {
	return !r.IsOpener() && !r.IsEndTag() && !r.IsComment()
}

// FileExists reports whether the backing file is on disk.
func (r *Record) FileExists() bool {
	if r.FilePath == "" {
		return false
	}
	_, err := os.Stat(r.FilePath)
	return err == nil
}

func (r *Record) Exists() bool {
	return r != nil && r.present
}

func (r *Record) IsEmpty() bool {
	return !r.Exists()
}

// Clear resets the record to the "not found" state.
func (r *Record) Clear() {
	*r = Record{}
}

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}
