// Package passfile generates the boilerplate content of new pass files.
package passfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind selects the skeleton written below the header.
type Kind int

const (
	Rules Kind = iota
	Code
	Decl
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	case Decl:
		return "decl"
	default:
		return "rules"
	}
}

// ParseKind maps a user supplied name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rules", "rule":
		return Rules, nil
	case "code":
		return Code, nil
	case "decl":
		return Decl, nil
	}
	return Rules, fmt.Errorf("passfile: unknown pass kind %q", s)
}

// DefaultAuthor fills the AUTH header when no author is configured.
const DefaultAuthor = "Your Name"

const rule = "###############################################\n"

// Generator renders pass files.
type Generator struct {
	Author string
	Now    func() time.Time
}

// New returns a Generator using the local clock.
func New(author string) *Generator {
	return &Generator{Author: author, Now: time.Now}
}

// Timestamp formats t as YYYY-M-D H:MM:SS in t's own location.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Content returns the file body for a pass called name.
func (g *Generator) Content(name string, kind Kind) string {
	author := strings.TrimSpace(g.Author)
	if author == "" {
		author = DefaultAuthor
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	var b strings.Builder
	b.WriteString(rule)
	fmt.Fprintf(&b, "# FILE: %s\n", name)
	b.WriteString("# SUBJ: comment\n")
	fmt.Fprintf(&b, "# AUTH: %s\n", author)
	fmt.Fprintf(&b, "# CREATED: %s\n", Timestamp(now()))
	b.WriteString("# MODIFIED:\n")
	b.WriteString(rule)
	b.WriteString("\n")

	switch kind {
	case Rules:
		b.WriteString("@NODES _ROOT\n\n")
		b.WriteString("@RULES\n")
		b.WriteString("_xNIL <-\n")
		b.WriteString("\t_xNIL\t### (1)\n")
		b.WriteString("\t@@\n")
	case Code:
		b.WriteString("@CODE\n\n")
		b.WriteString("G(\"kb\") = getconcept(findroot(),\"kb\");\n")
		b.WriteString("SaveKB(\"mykb.kbb\",G(\"kb\"),2);\n")
		b.WriteString("\n@@CODE")
	case Decl:
		b.WriteString("@DECL\n\n")
		b.WriteString("MyFunction(L(\"var\")) {\n")
		b.WriteString("\n")
		b.WriteString("}\n")
		b.WriteString("\n@@DECL")
	}
	return b.String()
}

// Create writes dir/name.nlp with freshly generated content and returns its path.
// It refuses to replace an existing file; the error then wraps fs.ErrExist.
func (g *Generator) Create(dir, name string, kind Kind) (string, error) {
	path := filepath.Join(dir, name+".nlp")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("passfile: create %s: %w", path, err)
	}
	if _, err := f.WriteString(g.Content(name, kind)); err != nil {
		f.Close()
		return "", fmt.Errorf("passfile: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("passfile: close %s: %w", path, err)
	}
	return path, nil
}
