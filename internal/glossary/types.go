package glossary

// Entry pins the translation of one source term.
type Entry struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Glossary is an ordered list of mandatory term translations.
type Glossary []Entry

// TargetTerms returns the non-empty target terms in glossary order.
func (g Glossary) TargetTerms() []string {
	ret := make([]string, 0, len(g))
	for _, e := range g {
		if e.Target != "" {
			ret = append(ret, e.Target)
		}
	}
	return ret
}
