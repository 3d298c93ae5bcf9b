package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// FormatFromFilename resolves the subtitle format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	case ".ass":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", name)
	}
}

// IsSupported reports whether the file extension is one Parse accepts.
func IsSupported(name string) bool {
	_, err := FormatFromFilename(name)
	return err == nil
}

// Parse decodes raw bytes and extracts the translatable units. Malformed cues
// are dropped silently; the only error is an unsupported extension.
func Parse(filename string, raw []byte) (*Document, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Name:     filepath.Base(filename),
		Format:   format,
		Language: language.Und,
		raw:      Decode(raw),
	}

	switch format {
	case FormatSRT:
		doc.units = parseSRT(doc.raw)
	case FormatVTT:
		doc.units = parseVTT(doc.raw)
	case FormatASS:
		doc.units = parseASS(doc.raw)
	}
	return doc, nil
}

// Serialize renders the document with translated text. IDs missing from tm
// keep their source text, so no cue is ever dropped.
func (d *Document) Serialize(tm TranslationMap) string {
	switch d.Format {
	case FormatSRT:
		return writeSRT(d.units, tm)
	case FormatVTT:
		return writeVTT(d.units, tm)
	case FormatASS:
		return writeASS(d.raw, tm)
	default:
		return d.raw
	}
}

// ApplyOverlay overwrites unit text with hand-edited entries keyed by ID.
// Unknown IDs are ignored. Returns the number of units changed.
func (d *Document) ApplyOverlay(overlay map[string]string) int {
	if len(overlay) == 0 {
		return 0
	}
	changed := 0
	for i, u := range d.units {
		text, ok := overlay[u.ID]
		if !ok {
			continue
		}
		if d.Format == FormatASS {
			text = assText(text)
		}
		d.units[i].Text = text
		changed++
	}
	if changed > 0 && d.Format == FormatASS {
		// ASS serialization walks the raw lines, so the edit must land there too.
		d.raw = writeASS(d.raw, overlay)
	}
	return changed
}

func lookup(tm TranslationMap, id, fallback string) string {
	if tm == nil {
		return fallback
	}
	if text, ok := tm[id]; ok {
		return text
	}
	return fallback
}
