package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// markerPrefix introduces a suppression marker inside a comment body.
const markerPrefix = "vex:ignore"

// MarkerSet records, per 0-indexed row, which warning ids are suppressed
// there. A marker suppresses its own row when it shares the row with a
// code token; a marker alone on its row suppresses the next row holding a
// code token (blank and comment-only rows are skipped).
type MarkerSet struct {
	byRow map[int]map[string]bool
}

// SuppressedAt reports whether a warning with the given id on row is
// suppressed. `vex:ignore *` markers suppress any id.
func (m *MarkerSet) SuppressedAt(id string, row int) bool {
	ids, ok := m.byRow[row]
	if !ok {
		return false
	}
	return ids["*"] || ids[id]
}

// Empty reports whether the set holds no markers.
func (m *MarkerSet) Empty() bool {
	return len(m.byRow) == 0
}

// ScanMarkers walks f's tree for comment tokens carrying suppression
// markers. commentKinds is the language's comment node vocabulary.
func ScanMarkers(f *SourceFile, commentKinds []string) *MarkerSet {
	kinds := map[string]bool{}
	for _, k := range commentKinds {
		kinds[k] = true
	}

	type marker struct {
		ids []string
		row int
	}
	var markers []marker
	tokenRows := map[int]bool{}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if kinds[n.Type()] {
			if ids := parseMarker(n.Content(f.Bytes)); ids != nil {
				markers = append(markers, marker{ids: ids, row: int(n.StartPoint().Row)})
			}
			return
		}
		count := int(n.ChildCount())
		if count == 0 {
			for row := int(n.StartPoint().Row); row <= int(n.EndPoint().Row); row++ {
				tokenRows[row] = true
			}
			return
		}
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(f.Root())

	set := &MarkerSet{byRow: map[int]map[string]bool{}}
	for _, m := range markers {
		row := m.row
		if !tokenRows[row] {
			// Marker is alone on its row: bind to the next row with a
			// code token.
			next := -1
			for r := range tokenRows {
				if r > row && (next == -1 || r < next) {
					next = r
				}
			}
			if next == -1 {
				continue
			}
			row = next
		}
		ids, ok := set.byRow[row]
		if !ok {
			ids = map[string]bool{}
			set.byRow[row] = ids
		}
		for _, id := range m.ids {
			ids[id] = true
		}
	}
	return set
}

// parseMarker strips comment delimiters and whitespace from a comment body
// and, if the remainder is a marker, returns the ids it names.
func parseMarker(body string) []string {
	text := strings.TrimSpace(body)
	for _, prefix := range []string{"//", "/*", "#", "--"} {
		text = strings.TrimPrefix(text, prefix)
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "*/")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, markerPrefix) {
		return nil
	}
	rest := text[len(markerPrefix):]
	if rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
		return nil
	}
	ids := strings.Fields(rest)
	if len(ids) == 0 {
		return nil
	}
	return ids
}
