package translator

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoBlocks is returned when a reply contains no recognizable [id] block.
var ErrNoBlocks = errors.New("no [id] blocks found in model output")

var blockMarker = regexp.MustCompile(`\[(\d+)\]`)

// Reconcile extracts an id→text mapping from a free-text model reply.
// Markdown fences and bold markers are stripped first. Text outside
// recognized blocks is discarded; later duplicates of an id win.
func Reconcile(raw string) (map[string]string, error) {
	ret := parseBlocks(stripMarkup(raw))
	if len(ret) == 0 {
		return nil, ErrNoBlocks
	}
	return ret, nil
}

// ParseOverlay reads a hand-edited [id]\ntext blob. It uses the same grammar
// as Reconcile but an overlay without blocks is simply empty.
func ParseOverlay(text string) map[string]string {
	return parseBlocks(strings.ReplaceAll(text, "\r\n", "\n"))
}

func stripMarkup(raw string) string {
	clean := strings.ReplaceAll(raw, "\r\n", "\n")
	clean = strings.ReplaceAll(clean, "```", "")
	return strings.ReplaceAll(clean, "**", "")
}

// parseBlocks scans for [digits] markers. The first marker may appear
// anywhere; later markers only open a new block when they start a line, so
// bracketed numbers inside a translation stay part of its text.
func parseBlocks(text string) map[string]string {
	ret := make(map[string]string)

	type marker struct {
		id         string
		start, end int
	}
	var markers []marker
	for _, loc := range blockMarker.FindAllStringSubmatchIndex(text, -1) {
		if len(markers) > 0 && !atLineStart(text, loc[0]) {
			continue
		}
		markers = append(markers, marker{id: text[loc[2]:loc[3]], start: loc[0], end: loc[1]})
	}

	for i, m := range markers {
		stop := len(text)
		if i+1 < len(markers) {
			stop = markers[i+1].start
		}
		ret[m.id] = strings.TrimSpace(text[m.end:stop])
	}
	return ret
}

func atLineStart(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}
