package glossary

import "strings"

// Match filters the glossary to entries whose source term appears in texts.
// Matching is case-sensitive, which suits proper nouns.
func Match(g Glossary, texts []string) Glossary {
	matched := make(Glossary, 0)

	for _, e := range g {
		for _, text := range texts {
			if strings.Contains(text, e.Source) {
				matched = append(matched, e)
				break
			}
		}
	}

	return matched
}

// DroppedTargets lists target terms present in draft but absent from revised.
func DroppedTargets(g Glossary, draft, revised string) []string {
	var dropped []string
	for _, term := range g.TargetTerms() {
		if strings.Contains(draft, term) && !strings.Contains(revised, term) {
			dropped = append(dropped, term)
		}
	}
	return dropped
}
