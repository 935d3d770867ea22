package humanize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/turingwire/internal/persona"
)

func testPersona() persona.Persona {
	return persona.Persona{
		ReplyWordCap: 12,
		TypoRate:     0.22,
		EmojiPool:    []string{"🙂"},
		EmojiRate:    0.03,
		Laughter:     "haha",
		FillerWords:  []string{"tbh", "ngl"},
	}
}

func TestHumanizeEmptyInput(t *testing.T) {
	assert.Equal(t, "", Humanize("", testPersona(), 18, 2))
	assert.Equal(t, "", Humanize("   ", testPersona(), 18, 2))
}

func TestHumanizeCollapsesPunctuationRuns(t *testing.T) {
	out := Humanize("really?!?! ok...", testPersona(), 18, 2)
	assert.NotContains(t, out, "?!?!")
	assert.NotContains(t, out, "...")
}

func TestHumanizeRespectsHardCharCap(t *testing.T) {
	long := strings.Repeat("word ", 100)
	out := Humanize(long, testPersona(), 18, 2)
	assert.LessOrEqual(t, len(out), 180)
}

func TestHumanizeRespectsWordCap(t *testing.T) {
	p := testPersona()
	p.ReplyWordCap = 3
	out := Humanize("one two three four five six seven eight nine ten eleven twelve", p, 18, 2)
	words := strings.Fields(out)
	// Truncation keeps ReplyWordCap+8 words; an emoji only fills a free slot
	// within that budget, but one laugh or filler word may follow it.
	require.LessOrEqual(t, len(words), p.ReplyWordCap+8+1)
}

func TestHumanizeNeverLongerThan180Property(t *testing.T) {
	p := testPersona()
	for i := 0; i < 200; i++ {
		out := Humanize(strings.Repeat("abcdefgh ", 60), p, 18, 2)
		assert.LessOrEqual(t, len(out), 180)
	}
}
