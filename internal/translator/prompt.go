package translator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MimeLyc/subtitle-batch-translator/internal/glossary"
	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
)

const (
	NoAnalysisPlaceholder     = "No analysis requested."
	AnalysisFailedPlaceholder = "Analysis failed."

	// DefaultMemoryTail is how many previously translated units are echoed
	// back to the model for continuity.
	DefaultMemoryTail = 3
	// DefaultAnalysisBudget caps the characters of script sent for analysis.
	DefaultAnalysisBudget = 30000
)

// MemoryEntry is a previously translated unit from the same file.
type MemoryEntry struct {
	ID   string
	Text string
}

// TranslationPromptInput carries everything a batch request is built from.
type TranslationPromptInput struct {
	SourceLang   string
	TargetLang   string
	Instructions string
	Glossary     glossary.Glossary
	FileContext  string
	Memory       []MemoryEntry
	Units        []subtitle.Unit
}

// BuildTranslationPrompt composes the single text blob sent for one batch.
func BuildTranslationPrompt(in TranslationPromptInput) string {
	var prompt strings.Builder

	prompt.WriteString("You are a professional subtitle translator.\n")
	prompt.WriteString(fmt.Sprintf("TASK: Translate %s to %s.\n\n", in.SourceLang, in.TargetLang))

	prompt.WriteString("[FILE CONTEXT & SUMMARY]:\n")
	fileContext := strings.TrimSpace(in.FileContext)
	if fileContext == "" {
		fileContext = NoAnalysisPlaceholder
	}
	prompt.WriteString(fileContext + "\n\n")

	writeGlossary(&prompt, in.Glossary)

	if len(in.Memory) > 0 {
		prompt.WriteString("[PREVIOUS TRANSLATED LINES - FOR FLOW]:\n")
		for _, m := range in.Memory {
			prompt.WriteString(fmt.Sprintf("[%s]\n%s\n", m.ID, m.Text))
		}
		prompt.WriteString("(Continue the story smoothly from here. Do NOT translate these lines again.)\n\n")
	}

	prompt.WriteString("[USER INSTRUCTIONS]:\n")
	prompt.WriteString(in.Instructions + "\n\n")

	prompt.WriteString("[STRICT FORMAT RULES]:\n")
	prompt.WriteString("1. NO code blocks, NO bold markup.\n")
	prompt.WriteString("2. Reply with exactly one block per input line, using ONLY this format:\n")
	prompt.WriteString("[ID]\nTranslated text\n")
	prompt.WriteString("3. Keep every [ID] unchanged. Blocks may appear in any order.\n\n")

	prompt.WriteString("[BATCH TO TRANSLATE]:\n")
	prompt.WriteString(FormatBlocks(in.Units))

	return prompt.String()
}

// FormatBlocks renders units in the [id]\ntext\n\n block grammar.
func FormatBlocks(units []subtitle.Unit) string {
	var sb strings.Builder
	for _, u := range units {
		sb.WriteString(fmt.Sprintf("[%s]\n%s\n\n", u.ID, u.Text))
	}
	return sb.String()
}

func writeGlossary(prompt *strings.Builder, g glossary.Glossary) {
	if len(g) == 0 {
		return
	}
	prompt.WriteString("[GLOSSARY - HARD CONSTRAINTS]:\n")
	prompt.WriteString("You MUST translate these terms exactly as listed. Never use any other rendering:\n")
	for _, e := range g {
		prompt.WriteString(fmt.Sprintf("- %s = %s\n", e.Source, e.Target))
	}
	prompt.WriteString("\n")
}

// AnalysisPromptInput feeds the optional whole-file analysis pre-pass.
type AnalysisPromptInput struct {
	Units        []subtitle.Unit
	Instructions string
	Budget       int
}

// BuildAnalysisPrompt asks for a genre/tone/characters/terminology report
// over the whole script, truncated to Budget characters.
func BuildAnalysisPrompt(in AnalysisPromptInput) string {
	budget := in.Budget
	if budget <= 0 {
		budget = DefaultAnalysisBudget
	}

	lines := make([]string, 0, len(in.Units))
	for _, u := range in.Units {
		lines = append(lines, fmt.Sprintf("%s: %s", u.ID, u.Text))
	}
	script := truncateRunes(strings.Join(lines, "\n"), budget)

	var prompt strings.Builder
	prompt.WriteString("ROLE: You are a LOGIC-ONLY DATA ANALYST.\n")
	prompt.WriteString(fmt.Sprintf("INPUT CONSTRAINTS: Input contains %d lines.\n", len(in.Units)))
	prompt.WriteString("YOUR TASK: Provide a context report based ONLY on the provided text.\n")
	prompt.WriteString("REQUIRED OUTPUT FORMAT:\n")
	prompt.WriteString("1. Genre & Tone\n")
	prompt.WriteString("2. Story Flow (Summary)\n")
	prompt.WriteString("3. Key Characters (Names + Gender + Relations)\n")
	prompt.WriteString("4. Translation Notes (Specific terminology)\n")
	prompt.WriteString(fmt.Sprintf("User Instructions: %q\n\n", in.Instructions))
	prompt.WriteString("INPUT TEXT:\n")
	prompt.WriteString(script)
	prompt.WriteString("\n")

	return prompt.String()
}

// RevisionPromptInput feeds the optional polish pass over a complete draft.
type RevisionPromptInput struct {
	Draft       subtitle.TranslationMap
	Order       []string // IDs in file order; numeric order when empty
	FileContext string
	Notes       string
	Glossary    glossary.Glossary
}

// BuildRevisionPrompt asks for a grammar/flow polish that keeps every block
// and leaves glossary target terms untouched.
func BuildRevisionPrompt(in RevisionPromptInput) string {
	order := in.Order
	if len(order) == 0 {
		order = sortedIDs(in.Draft)
	}

	blocks := make([]string, 0, len(order))
	for _, id := range order {
		text, ok := in.Draft[id]
		if !ok {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", id, text))
	}

	fileContext := strings.TrimSpace(in.FileContext)
	if fileContext == "" {
		fileContext = NoAnalysisPlaceholder
	}

	var prompt strings.Builder
	prompt.WriteString("ROLE: Expert Editor & Proofreader\n")
	prompt.WriteString("TASK: Polish the translated text for grammar, flow, and gender consistency.\n")
	prompt.WriteString("INPUT FORMAT: [ID] followed by the text on the next line\n")
	prompt.WriteString("OUTPUT FORMAT: [ID] followed by the fixed text on the next line\n")
	prompt.WriteString("CRITICAL RULES:\n")
	prompt.WriteString(fmt.Sprintf("1. Keep the EXACT same number of [ID] blocks (%d).\n", len(blocks)))
	prompt.WriteString("2. Do NOT merge, split or drop blocks.\n")
	prompt.WriteString("3. NO code blocks, NO bold markup.\n")
	if terms := in.Glossary.TargetTerms(); len(terms) > 0 {
		prompt.WriteString("4. Do NOT alter these glossary terms in any way: " + strings.Join(terms, ", ") + "\n")
	}
	prompt.WriteString("\n[ANALYSIS CONTEXT]:\n")
	prompt.WriteString(fileContext + "\n\n")
	prompt.WriteString(fmt.Sprintf("USER NOTES: %q\n\n", in.Notes))
	prompt.WriteString("INPUT TEXT:\n")
	prompt.WriteString(strings.Join(blocks, "\n\n"))
	prompt.WriteString("\n")

	return prompt.String()
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// sortedIDs orders IDs numerically where possible, lexically otherwise.
func sortedIDs(tm subtitle.TranslationMap) []string {
	ids := make([]string, 0, len(tm))
	for id := range tm {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}
