package subtitle

import (
	"strconv"
	"strings"
)

const vttHeader = "WEBVTT"

// parseVTT numbers cues by order of appearance, not by any identifier in the
// file. Only lines after a timing line are collected; NOTE, STYLE and cue
// identifier lines are therefore ignored.
func parseVTT(raw string) []Unit {
	lines := strings.Split(raw, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == vttHeader {
		lines = lines[1:]
	}

	var (
		units   []Unit
		current *Unit
		text    []string
		counter int
	)

	commit := func() {
		if current != nil && len(text) > 0 {
			current.Text = strings.Join(text, "\n")
			units = append(units, *current)
		}
		current = nil
		text = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "-->"):
			commit()
			counter++
			current = &Unit{ID: strconv.Itoa(counter), Timing: line}
		case line == "":
			if current != nil {
				commit()
			}
		case current != nil:
			text = append(text, line)
		}
	}
	commit()

	return units
}

func writeVTT(units []Unit, tm TranslationMap) string {
	var sb strings.Builder
	sb.WriteString(vttHeader)
	sb.WriteString("\n\n")
	for _, u := range units {
		sb.WriteString(u.Timing)
		sb.WriteString("\n")
		sb.WriteString(lookup(tm, u.ID, u.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
