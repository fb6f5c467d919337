package render

import (
	"strings"
)

// Format selects which foldability rules apply to rendered text.
type Format string

const (
	// FormatJSON applies brace/bracket based fold detection.
	FormatJSON Format = "json"
	// FormatYAML applies indentation based fold detection.
	FormatYAML Format = "yaml"
)

// RegionID identifies a foldable region. IDs are the zero-based index of the
// line that opens the region, which keeps assignment deterministic across
// repeated parses of the same text.
type RegionID int

// NoRegion marks a line that opens no region or has no enclosing region.
const NoRegion RegionID = -1

// Line is a single line of rendered manifest text annotated with fold
// metadata. Lines are immutable once computed.
type Line struct {
	// Text is the raw line content including indentation.
	Text string `json:"text"`

	// Indent is the number of leading spaces.
	Indent int `json:"indent"`

	// Foldable reports whether this line opens a collapsible region.
	Foldable bool `json:"foldable"`

	// FoldID is the region opened by this line, or NoRegion.
	FoldID RegionID `json:"foldId"`

	// ParentFoldID is the nearest enclosing region, or NoRegion. The parent
	// always appears earlier in the sequence with strictly smaller indent.
	ParentFoldID RegionID `json:"parentFoldId"`
}

// ParseForFolding splits text into lines and computes foldability and region
// nesting for the given format. The assignment depends only on the text and
// format, never on viewer state.
func ParseForFolding(text string, format Format) []Line {
	raw := strings.Split(text, "\n")
	// A trailing newline produces one empty trailing element; it is not a line.
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}

	lines := make([]Line, len(raw))
	for i, t := range raw {
		l := Line{
			Text:         t,
			Indent:       leadingSpaces(t),
			FoldID:       NoRegion,
			ParentFoldID: NoRegion,
		}
		if isFoldable(raw, i, format) {
			l.Foldable = true
			l.FoldID = RegionID(i)
		}
		lines[i] = l
	}

	assignParents(lines)
	return lines
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}

// isFoldable applies the per-format fold detection heuristics to line i.
func isFoldable(raw []string, i int, format Format) bool {
	line := raw[i]
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if format == FormatJSON {
		if strings.Contains(trimmed, "{") && trimmed != "{}" {
			return true
		}
		return strings.Contains(trimmed, "[") && trimmed != "[]"
	}

	// YAML-like: a line introduces a region when it carries a key and the
	// next non-blank line sits strictly deeper.
	if !strings.Contains(line, ":") {
		return false
	}
	indent := leadingSpaces(line)
	for j := i + 1; j < len(raw); j++ {
		next := raw[j]
		if strings.TrimSpace(next) == "" {
			continue
		}
		return leadingSpaces(next) > indent
	}
	return false
}

// assignParents links every line to its nearest enclosing open region. A
// region stays open until a non-blank line at its indent or shallower appears.
func assignParents(lines []Line) {
	type openRegion struct {
		id     RegionID
		indent int
	}
	var stack []openRegion

	top := func() RegionID {
		if len(stack) == 0 {
			return NoRegion
		}
		return stack[len(stack)-1].id
	}

	for i := range lines {
		l := &lines[i]

		// Blank lines belong to whatever region is open but close nothing.
		if strings.TrimSpace(l.Text) == "" {
			l.ParentFoldID = top()
			continue
		}

		for len(stack) > 0 && stack[len(stack)-1].indent >= l.Indent {
			stack = stack[:len(stack)-1]
		}
		l.ParentFoldID = top()

		if l.Foldable {
			stack = append(stack, openRegion{id: l.FoldID, indent: l.Indent})
		}
	}
}

// FoldState tracks which regions of a rendered manifest are collapsed. Each
// open manifest view owns one instance per format; all regions start expanded.
type FoldState struct {
	collapsed map[RegionID]bool
}

// NewFoldState returns a fold state with every region expanded.
func NewFoldState() *FoldState {
	return &FoldState{collapsed: make(map[RegionID]bool)}
}

// Toggle flips the collapsed flag of the given region.
func (s *FoldState) Toggle(id RegionID) {
	if id == NoRegion {
		return
	}
	s.collapsed[id] = !s.collapsed[id]
}

// IsCollapsed reports whether the region is currently collapsed.
func (s *FoldState) IsCollapsed(id RegionID) bool {
	return s.collapsed[id]
}

// IsLineVisible reports whether lines[i] should be displayed: a line is
// hidden when any enclosing region, found by walking the parent chain, is
// collapsed. The opener of a collapsed region remains visible as its header.
func (s *FoldState) IsLineVisible(lines []Line, i int) bool {
	if i < 0 || i >= len(lines) {
		return false
	}
	for id := lines[i].ParentFoldID; id != NoRegion; id = lines[id].ParentFoldID {
		if s.collapsed[id] {
			return false
		}
	}
	return true
}

// VisibleLines returns the lines that remain visible under the current state.
func (s *FoldState) VisibleLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for i := range lines {
		if s.IsLineVisible(lines, i) {
			out = append(out, lines[i])
		}
	}
	return out
}
