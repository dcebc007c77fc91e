package diag

import (
	"sort"

	"vex/internal/parse"
)

// Collector accumulates warnings during dispatch and applies the
// suppression and leniency filters before rendering.
type Collector struct {
	warnings []Warning
	markers  map[string]*parse.MarkerSet
	notes    []string
}

// NewCollector creates an empty collector for one engine run.
func NewCollector() *Collector {
	return &Collector{markers: map[string]*parse.MarkerSet{}}
}

// Add records a warning. Warnings are timestamped by emission order.
func (c *Collector) Add(w Warning) {
	w.seq = len(c.warnings)
	c.warnings = append(c.warnings, w)
}

// SetMarkers records the suppression markers scanned from path.
func (c *Collector) SetMarkers(path string, set *parse.MarkerSet) {
	if set != nil && !set.Empty() {
		c.markers[path] = set
	}
}

// AddNote records a non-fatal per-file problem (an unreadable source
// file) reported after the run.
func (c *Collector) AddNote(note string) {
	c.notes = append(c.notes, note)
}

// Notes returns the recorded per-file problems in emission order.
func (c *Collector) Notes() []string {
	return c.notes
}

// Finalize drops suppressed warnings, drops lenient warnings when the
// run is lenient, and sorts the survivors by (path, primary start byte,
// vex id, message) for stable output.
func (c *Collector) Finalize(lenient bool) []Warning {
	var out []Warning
	for _, w := range c.warnings {
		if lenient && w.Severity == Lenient {
			continue
		}
		if set, ok := c.markers[w.Primary.Path]; ok && set.SuppressedAt(w.VexID, w.Primary.StartRow) {
			continue
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Primary.Path != b.Primary.Path {
			return a.Primary.Path < b.Primary.Path
		}
		if a.Primary.StartByte != b.Primary.StartByte {
			return a.Primary.StartByte < b.Primary.StartByte
		}
		if a.VexID != b.VexID {
			return a.VexID < b.VexID
		}
		return a.Message < b.Message
	})
	return out
}
