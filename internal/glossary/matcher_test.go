package glossary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	g := Glossary{
		{Source: "Momo Ayase", Target: "Momo Ayase-san"},
		{Source: "Okarun", Target: "Okarun-kun"},
		{Source: "Turbo Granny", Target: "Turbo Baa-chan"},
	}

	texts := []string{
		"Momo Ayase, look out!",
		"Okarun is here.",
		"This is just a regular line.",
	}

	result := Match(g, texts)
	assert.Equal(t, Glossary{g[0], g[1]}, result)
}

func TestMatch_CaseSensitive(t *testing.T) {
	g := Glossary{{Source: "Momo", Target: "Peach"}}

	assert.Empty(t, Match(g, []string{"momo is here"}))
	assert.Len(t, Match(g, []string{"Momo is here"}), 1)
}

func TestMatch_Empty(t *testing.T) {
	assert.Empty(t, Match(Glossary{}, []string{"some text"}))
	assert.Empty(t, Match(Glossary{{Source: "a", Target: "b"}}, nil))
}

func TestTargetTerms(t *testing.T) {
	g := Glossary{{Source: "a", Target: "A"}, {Source: "b"}, {Source: "c", Target: "C"}}
	assert.Equal(t, []string{"A", "C"}, g.TargetTerms())
}

func TestDroppedTargets(t *testing.T) {
	g := Glossary{{Source: "Zion", Target: "Sion"}, {Source: "Neo", Target: "Néo"}}

	assert.Empty(t, DroppedTargets(g, "Néo arrive à Sion", "Néo entre dans Sion"))
	assert.Equal(t, []string{"Sion"}, DroppedTargets(g, "Néo arrive à Sion", "Néo entre dans la ville"))
	// a term never present in the draft is not protected
	assert.Empty(t, DroppedTargets(g, "Bonjour", "Salut"))
}
