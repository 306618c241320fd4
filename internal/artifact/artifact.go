// Package artifact keeps position-keyed analyzer output files aligned with
// the passes that own them.
//
// Every pass number has up to three generated files in the analyzer's log
// directory: the parse tree, the textual trace and the knowledge-base dump.
// When two passes exchange position the trace and knowledge-base files are
// rotated so they follow the pass rather than the slot.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies one generated output per pass.
type Kind int

const (
	KindTree Kind = iota
	KindTrace
	KindKB
)

// FiredMarker is the text a tree file contains when at least one rule matched.
const FiredMarker = "fired"

// Ext returns the file extension used for the kind.
func (k Kind) Ext() string {
	switch k {
	case KindTrace:
		return ".txxt"
	case KindKB:
		return ".kbb"
	default:
		return ".tree"
	}
}

func (k Kind) String() string {
	return strings.TrimPrefix(k.Ext(), ".")
}

// SwappedKinds are the kinds rotated when passes exchange position.
var SwappedKinds = []Kind{KindTrace, KindKB}

// Namer maps a pass number and kind to the artifact's path.
type Namer interface {
	Path(passNum int, kind Kind) string
}

// LogDir names artifacts ana001.tree, ana001.txxt, ... inside Dir.
type LogDir struct {
	Dir string
}

// FileName returns the bare artifact file name.
func FileName(passNum int, kind Kind) string {
	return fmt.Sprintf("ana%03d%s", passNum, kind.Ext())
}

func (l LogDir) Path(passNum int, kind Kind) string {
	return filepath.Join(l.Dir, FileName(passNum, kind))
}

// HasFired reports whether the tree artifact at path records a fired rule.
// A missing file is not an error.
func HasFired(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("artifact: read %s: %w", path, err)
	}
	return strings.Contains(string(data), FiredMarker), nil
}
