package subtitle

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const utf8BOM = "\ufeff"

// Decode turns raw file bytes into text. Valid UTF-8 is used as is; anything
// else is decoded as ISO-8859-1, which maps every byte, so Decode never fails.
// CRLF line endings are normalized to LF.
func Decode(raw []byte) string {
	var text string
	if utf8.Valid(raw) {
		text = string(raw)
	} else {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			// unreachable for ISO-8859-1, keep a byte-for-rune copy anyway
			decoded = latin1(raw)
		}
		text = string(decoded)
	}
	text = strings.TrimPrefix(text, utf8BOM)
	return strings.ReplaceAll(text, "\r\n", "\n")
}

func latin1(raw []byte) []byte {
	var sb strings.Builder
	for _, b := range raw {
		sb.WriteRune(rune(b))
	}
	return []byte(sb.String())
}
