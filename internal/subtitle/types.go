package subtitle

import "golang.org/x/text/language"

// Format identifies a supported subtitle container.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// Unit is one translatable subtitle entry
type Unit struct {
	ID     string // unique within a file, order-significant
	Timing string // SRT/VTT timing line, empty for ASS
	Prefix string // ASS only: the nine fields before the text
	Text   string // translatable payload, may span lines
}

// TranslationMap maps a Unit ID to its translated text.
type TranslationMap map[string]string

// Document is a parsed subtitle file. It keeps the decoded source so
// formats that carry global state (ASS) can be rewritten line by line.
type Document struct {
	Name     string
	Format   Format
	Language language.Tag

	raw   string
	units []Unit
}

// Units returns a copy of the parsed units in file order.
func (d *Document) Units() []Unit {
	return append([]Unit(nil), d.units...)
}

// Len returns the number of units.
func (d *Document) Len() int {
	return len(d.units)
}

// IDs returns unit IDs in file order.
func (d *Document) IDs() []string {
	ret := make([]string, 0, len(d.units))
	for _, u := range d.units {
		ret = append(ret, u.ID)
	}
	return ret
}

// Has reports whether id belongs to a unit of this document.
func (d *Document) Has(id string) bool {
	for _, u := range d.units {
		if u.ID == id {
			return true
		}
	}
	return false
}

// Texts returns the source text of every unit keyed by ID.
func (d *Document) Texts() TranslationMap {
	ret := make(TranslationMap, len(d.units))
	for _, u := range d.units {
		ret[u.ID] = u.Text
	}
	return ret
}
