package subtitle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n" +
	"2\n00:00:03,000 --> 00:00:04,000\nWorld\nAgain\n\n" +
	"3\nbroken\n"

const sampleVTT = "WEBVTT\n\n" +
	"NOTE a comment\n\n" +
	"00:00:01.000 --> 00:00:02.000\nHello\n\n" +
	"00:00:03.000 --> 00:00:04.000\n\n" +
	"00:00:05.000 --> 00:00:06.000\nLine one\nLine two"

const sampleASS = "[Script Info]\nTitle: sample\n\n[Events]\n" +
	"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n" +
	"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello, world\n" +
	"Comment: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,note\n" +
	"Dialogue: broken line\n" +
	"Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,Second\n"

func TestParse_SRT(t *testing.T) {
	t.Parallel()

	doc, err := Parse("episode.srt", []byte(sampleSRT))
	require.NoError(t, err)
	require.Equal(t, FormatSRT, doc.Format)

	units := doc.Units()
	require.Len(t, units, 2)
	assert.Equal(t, Unit{ID: "1", Timing: "00:00:01,000 --> 00:00:02,000", Text: "Hello"}, units[0])
	assert.Equal(t, "World\nAgain", units[1].Text)
	assert.Equal(t, []string{"1", "2"}, doc.IDs())
}

func TestParse_SRT_CRLF(t *testing.T) {
	t.Parallel()

	doc, err := Parse("a.SRT", []byte("1\r\n00:00:01,000 --> 00:00:02,000\r\nHi\r\nthere\r\n"))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Len())
	assert.Equal(t, "Hi\nthere", doc.Units()[0].Text)
}

func TestSerialize_SRT_RoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Parse("episode.srt", []byte(sampleSRT))
	require.NoError(t, err)

	want := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n" +
		"2\n00:00:03,000 --> 00:00:04,000\nWorld\nAgain\n\n"
	assert.Equal(t, want, doc.Serialize(doc.Texts()))
	assert.Equal(t, want, doc.Serialize(nil))
}

func TestSerialize_SRT_FallbackForMissingIDs(t *testing.T) {
	t.Parallel()

	doc, err := Parse("episode.srt", []byte(sampleSRT))
	require.NoError(t, err)

	out := doc.Serialize(TranslationMap{"2": "Monde"})
	assert.Contains(t, out, "\nHello\n")
	assert.Contains(t, out, "\nMonde\n")
	assert.NotContains(t, out, "Again")
	assert.Equal(t, 2, strings.Count(out, "-->"))
}

func TestParse_VTT(t *testing.T) {
	t.Parallel()

	doc, err := Parse("talk.vtt", []byte(sampleVTT))
	require.NoError(t, err)

	units := doc.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "1", units[0].ID)
	assert.Equal(t, "00:00:01.000 --> 00:00:02.000", units[0].Timing)
	assert.Equal(t, "Hello", units[0].Text)
	// the empty second cue still consumed an ID
	assert.Equal(t, "3", units[1].ID)
	assert.Equal(t, "Line one\nLine two", units[1].Text)
}

func TestParse_VTT_CueWithoutBlankLineSeparator(t *testing.T) {
	t.Parallel()

	raw := "WEBVTT\n00:00:01.000 --> 00:00:02.000\nfirst\n00:00:03.000 --> 00:00:04.000\nsecond\n"
	doc, err := Parse("x.vtt", []byte(raw))
	require.NoError(t, err)

	units := doc.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "first", units[0].Text)
	assert.Equal(t, "second", units[1].Text)
}

func TestSerialize_VTT_RoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Parse("talk.vtt", []byte(sampleVTT))
	require.NoError(t, err)

	want := "WEBVTT\n\n" +
		"00:00:01.000 --> 00:00:02.000\nHello\n\n" +
		"00:00:05.000 --> 00:00:06.000\nLine one\nLine two\n\n"
	assert.Equal(t, want, doc.Serialize(doc.Texts()))

	translated := doc.Serialize(TranslationMap{"1": "Bonjour", "3": "Ligne"})
	assert.Contains(t, translated, "00:00:01.000 --> 00:00:02.000\nBonjour\n\n")
	assert.Contains(t, translated, "00:00:05.000 --> 00:00:06.000\nLigne\n\n")
}

func TestParse_ASS(t *testing.T) {
	t.Parallel()

	doc, err := Parse("show.ass", []byte(sampleASS))
	require.NoError(t, err)

	units := doc.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "1", units[0].ID)
	assert.Equal(t, "Hello, world", units[0].Text)
	assert.Equal(t, "Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,", units[0].Prefix)
	assert.Empty(t, units[0].Timing)
	assert.Equal(t, "2", units[1].ID)
	assert.Equal(t, "Second", units[1].Text)
}

func TestSerialize_ASS_PreservesEveryOtherLine(t *testing.T) {
	t.Parallel()

	doc, err := Parse("show.ass", []byte(sampleASS))
	require.NoError(t, err)

	assert.Equal(t, sampleASS, doc.Serialize(nil))
	assert.Equal(t, sampleASS, doc.Serialize(doc.Texts()))

	out := doc.Serialize(TranslationMap{"1": "Bonjour"})
	want := strings.Replace(sampleASS,
		"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello, world",
		"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Bonjour", 1)
	assert.Equal(t, want, out)
}

func TestSerialize_ASS_MultiLineTranslation(t *testing.T) {
	t.Parallel()

	doc, err := Parse("show.ass", []byte(sampleASS))
	require.NoError(t, err)

	out := doc.Serialize(TranslationMap{"1": "Bonjour\nle monde", "2": "Deux\r\nlignes"})
	assert.Equal(t, strings.Count(sampleASS, "\n"), strings.Count(out, "\n"))
	assert.Contains(t, out, `Default,,0,0,0,,Bonjour\Nle monde`+"\n")

	again, err := Parse("show.ass", []byte(out))
	require.NoError(t, err)
	units := again.Units()
	require.Len(t, units, 2)
	assert.Equal(t, `Bonjour\Nle monde`, units[0].Text)
	assert.Equal(t, `Deux\Nlignes`, units[1].Text)
}

func TestApplyOverlay(t *testing.T) {
	t.Parallel()

	doc, err := Parse("show.ass", []byte(sampleASS))
	require.NoError(t, err)

	changed := doc.ApplyOverlay(map[string]string{"2": "Edited", "99": "ignored"})
	assert.Equal(t, 1, changed)
	assert.Equal(t, "Edited", doc.Units()[1].Text)
	assert.Contains(t, doc.Serialize(nil), "Default,,0,0,0,,Edited\n")

	doc.ApplyOverlay(map[string]string{"1": "Two\nlines"})
	assert.Equal(t, `Two\Nlines`, doc.Units()[0].Text)
	assert.Contains(t, doc.Serialize(nil), `Default,,0,0,0,,Two\Nlines`+"\n")
}

func TestParse_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Parse("notes.txt", []byte("hello"))
	require.Error(t, err)
	assert.False(t, IsSupported("notes.txt"))
	assert.True(t, IsSupported("NOTES.VTT"))
}

func TestParse_EmptyInput(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"a.srt", "a.vtt", "a.ass"} {
		doc, err := Parse(name, nil)
		require.NoError(t, err)
		assert.Zero(t, doc.Len(), name)
	}
}
