package subtitle

import (
	"strconv"
	"strings"
)

const (
	assDialoguePrefix = "Dialogue:"
	// Standard [Events] layout: Layer, Start, End, Style, Name, MarginL,
	// MarginR, MarginV, Effect, Text. Text may itself contain commas.
	assFieldCount = 10
	assHardBreak  = `\N`
)

// splitDialogue returns the fields of a qualifying Dialogue line.
func splitDialogue(line string) ([]string, bool) {
	if !strings.HasPrefix(line, assDialoguePrefix) {
		return nil, false
	}
	fields := strings.SplitN(line, ",", assFieldCount)
	if len(fields) != assFieldCount {
		return nil, false
	}
	return fields, true
}

func parseASS(raw string) []Unit {
	var units []Unit
	counter := 0
	for _, line := range strings.Split(raw, "\n") {
		fields, ok := splitDialogue(line)
		if !ok {
			continue
		}
		counter++
		units = append(units, Unit{
			ID:     strconv.Itoa(counter),
			Prefix: strings.Join(fields[:assFieldCount-1], ","),
			Text:   strings.TrimSpace(fields[assFieldCount-1]),
		})
	}
	return units
}

// assText folds line breaks into ASS hard breaks so a cue stays on one
// physical line.
func assText(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", assHardBreak)
}

// writeASS walks the original lines again. Only the text field of qualifying
// Dialogue lines changes; headers, styles and comments pass through verbatim.
func writeASS(raw string, tm TranslationMap) string {
	lines := strings.Split(raw, "\n")
	counter := 0
	for i, line := range lines {
		fields, ok := splitDialogue(line)
		if !ok {
			continue
		}
		counter++
		text, ok := tm[strconv.Itoa(counter)]
		if !ok {
			continue
		}
		lines[i] = strings.Join(fields[:assFieldCount-1], ",") + "," + assText(text)
	}
	return strings.Join(lines, "\n")
}
