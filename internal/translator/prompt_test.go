package translator

import (
	"strings"
	"testing"

	"github.com/MimeLyc/subtitle-batch-translator/internal/glossary"
	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
	"github.com/stretchr/testify/assert"
)

func TestBuildTranslationPrompt_Sections(t *testing.T) {
	t.Parallel()

	prompt := BuildTranslationPrompt(TranslationPromptInput{
		SourceLang:   "English",
		TargetLang:   "French",
		Instructions: "Keep anime terms in English.",
		Glossary:     glossary.Glossary{{Source: "Neo", Target: "Néo"}, {Source: "Zion", Target: "Sion"}},
		FileContext:  "Sci-fi, serious tone.",
		Memory:       []MemoryEntry{{ID: "4", Text: "Déjà vu."}},
		Units: []subtitle.Unit{
			{ID: "5", Text: "Hello"},
			{ID: "6", Text: "Two\nlines"},
		},
	})

	assert.Contains(t, prompt, "Translate English to French")
	assert.Contains(t, prompt, "Sci-fi, serious tone.")
	assert.Contains(t, prompt, "- Neo = Néo\n")
	assert.Contains(t, prompt, "- Zion = Sion\n")
	assert.Contains(t, prompt, "[4]\nDéjà vu.\n")
	assert.Contains(t, prompt, "Keep anime terms in English.")
	assert.Contains(t, prompt, "NO code blocks")
	assert.True(t, strings.HasSuffix(prompt, "[5]\nHello\n\n[6]\nTwo\nlines\n\n"))

	// section order is significant
	order := []string{"TASK:", "[FILE CONTEXT", "[GLOSSARY", "[PREVIOUS TRANSLATED", "[USER INSTRUCTIONS]", "[STRICT FORMAT RULES]", "[BATCH TO TRANSLATE]"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(prompt, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestBuildTranslationPrompt_OptionalBlocksOmitted(t *testing.T) {
	t.Parallel()

	prompt := BuildTranslationPrompt(TranslationPromptInput{
		SourceLang: "English",
		TargetLang: "Roman Hindi",
		Units:      []subtitle.Unit{{ID: "1", Text: "Hi"}},
	})

	assert.Contains(t, prompt, NoAnalysisPlaceholder)
	assert.NotContains(t, prompt, "[GLOSSARY")
	assert.NotContains(t, prompt, "[PREVIOUS TRANSLATED")
}

func TestBuildAnalysisPrompt_Truncates(t *testing.T) {
	t.Parallel()

	units := []subtitle.Unit{{ID: "1", Text: "héllo"}, {ID: "2", Text: "world"}}
	prompt := BuildAnalysisPrompt(AnalysisPromptInput{Units: units, Instructions: "female lead", Budget: 6})

	assert.Contains(t, prompt, "Input contains 2 lines.")
	assert.Contains(t, prompt, `User Instructions: "female lead"`)
	assert.Contains(t, prompt, "INPUT TEXT:\n1: hél\n")
	assert.NotContains(t, prompt, "world")
}

func TestBuildRevisionPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildRevisionPrompt(RevisionPromptInput{
		Draft:    subtitle.TranslationMap{"10": "dix", "2": "deux", "1": "un"},
		Notes:    "fix gender",
		Glossary: glossary.Glossary{{Source: "Neo", Target: "Néo"}},
	})

	assert.Contains(t, prompt, "EXACT same number of [ID] blocks (3)")
	assert.Contains(t, prompt, "Do NOT alter these glossary terms in any way: Néo")
	assert.Contains(t, prompt, `USER NOTES: "fix gender"`)
	assert.Contains(t, prompt, "[1]\nun\n\n[2]\ndeux\n\n[10]\ndix\n")
}

func TestGlossaryPresentInEveryBatchPrompt(t *testing.T) {
	t.Parallel()

	g := glossary.Glossary{{Source: "Okarun", Target: "Okarun-kun"}}
	batches, err := Split(makeUnits(5), 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range batches {
		prompt := BuildTranslationPrompt(TranslationPromptInput{Glossary: g, Units: b.Units})
		assert.Contains(t, prompt, "- Okarun = Okarun-kun")
	}
}
