package subtitle

import (
	"regexp"
	"strings"
)

var srtBlockSeparator = regexp.MustCompile(`\n\s*\n`)

// parseSRT splits on blank-line separated blocks. A block needs an index
// line, a timing line and at least one text line; shorter blocks are dropped.
func parseSRT(raw string) []Unit {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var units []Unit
	for _, block := range srtBlockSeparator.Split(trimmed, -1) {
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			continue
		}
		units = append(units, Unit{
			ID:     strings.TrimSpace(lines[0]),
			Timing: strings.TrimSpace(lines[1]),
			Text:   strings.Join(lines[2:], "\n"),
		})
	}
	return units
}

func writeSRT(units []Unit, tm TranslationMap) string {
	var sb strings.Builder
	for _, u := range units {
		sb.WriteString(u.ID)
		sb.WriteString("\n")
		sb.WriteString(u.Timing)
		sb.WriteString("\n")
		sb.WriteString(lookup(tm, u.ID, u.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
