package subtitle

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DetectLanguage returns the language most units are written in.
func DetectLanguage(units []Unit) language.Tag {
	if len(units) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, u := range units {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		langMap[whatlanggo.DetectLang(text).Iso6391()]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}
	return language.Make(topLang)
}

// LanguageName returns the English display name of tag, e.g. "Japanese".
func LanguageName(tag language.Tag) string {
	if tag == language.Und {
		return ""
	}
	return display.English.Languages().Name(tag)
}
