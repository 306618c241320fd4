package model

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconFolderOpen = "▾" // Group opener
	IconFolderEnd  = "▴" // Group closer
	IconInactive   = "/" // Disabled pass
	IconFired      = "✦" // Tree artifact holds fired rules
	IconMissing    = "✗" // Backing file not on disk
	IconTokenizer  = "¶" // Tokenizer pass
	IconComment    = "#" // Comment-only line
	IconOK         = " " // No icon to reduce noise
)

// StatusIcon picks the icon shown next to a record in list views.
func StatusIcon(r *Record) string {
	switch {
	case r.IsOpener():
		return IconFolderOpen
	case r.IsEndTag():
		return IconFolderEnd
	case r.IsComment():
		return IconComment
	case !r.Active:
		return IconInactive
	case r.IsRuleFile() && !r.FileExists():
		return IconMissing
	case r.Highlight:
		return IconFired
	case r.Tokenizer:
		return IconTokenizer
	}
	return IconOK
}
