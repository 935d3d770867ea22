// Package humanize post-processes model output into text that reads like
// casual human typing: collapsing punctuation runs, truncating to a
// persona's word budget, injecting bounded typos, and occasionally tacking
// on an emoji, a laugh, or a filler word.
package humanize

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/neo/turingwire/internal/persona"
)

// QwertyNeighbors maps a lowercase letter to the adjacent keys a typo could
// plausibly land on instead, carried verbatim from the reference
// implementation's fixed table (spec §4.3 step 3 names this table without
// giving its contents).
var QwertyNeighbors = map[byte]string{
	'a': "qs", 'b': "vn", 'c': "xv", 'd': "sf", 'e': "wr",
	'f': "dg", 'g': "fh", 'h': "gj", 'i': "uo", 'j': "hk",
	'k': "jl", 'l': "k", 'm': "n", 'n': "bm", 'o': "ip",
	'p': "o", 'q': "wa", 'r': "et", 's': "ad", 't': "ry",
	'u': "yi", 'v': "cb", 'w': "qe", 'x': "zc", 'y': "tu",
	'z': "x",
}

var punctRun = regexp.MustCompile(`[.!?]{2,}`)

const hardCharCap = 180
const slackWords = 8

// Humanize implements spec §4.3 verbatim: deterministic shaping steps
// followed by a sequence of probabilistic mutations seeded by persona
// knobs. Empty input yields empty output.
func Humanize(text string, p persona.Persona, globalMaxWords, maxTypos int) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	s = punctRun.ReplaceAllString(s, ".")
	s = strings.ReplaceAll(s, "\n", " ")

	cap := globalMaxWords
	if p.ReplyWordCap > 0 && p.ReplyWordCap < cap {
		cap = p.ReplyWordCap
	}
	s = limitWords(s, cap+slackWords)
	if len(s) > hardCharCap {
		s = strings.TrimRight(s[:hardCharCap], " \t")
	}

	typoRate := p.TypoRate
	s = humanizeTypos(s, typoRate, maxTypos)

	if len(p.EmojiPool) > 0 && len(strings.Fields(s)) < cap+slackWords && rand.Float64() < p.EmojiRate*2 {
		s = strings.TrimSpace(s + " " + p.EmojiPool[rand.Intn(len(p.EmojiPool))])
	}

	if rand.Float64() < 0.15 {
		if p.Laughter != "" && rand.Float64() < 0.5 {
			s = s + " " + p.Laughter
		} else if len(p.FillerWords) > 0 {
			fw := p.FillerWords[rand.Intn(len(p.FillerWords))]
			if rand.Float64() < 0.5 {
				s = fw + " " + s
			} else {
				s = s + " " + fw
			}
		}
	}

	if rand.Float64() < 0.10 && strings.HasSuffix(s, ".") {
		s = s[:len(s)-1]
	}

	if rand.Float64() < 0.05 && s != "" && s[0] >= 'A' && s[0] <= 'Z' &&
		!strings.HasPrefix(s, "I ") && !strings.HasPrefix(s, "I'") {
		s = strings.ToLower(s[:1]) + s[1:]
	}

	if len(s) > hardCharCap {
		s = strings.TrimRight(s[:hardCharCap], " \t")
	}

	return s
}

func limitWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.TrimSpace(s)
	}
	return strings.Join(words[:maxWords], " ")
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func humanizeTypos(text string, rate float64, maxTypos int) string {
	if text == "" || rand.Float64() > rate {
		return text
	}
	if maxTypos < 1 {
		maxTypos = 1
	}
	ops := []func(string) string{swapAdjacent, neighborReplace, dropRandomChar}
	n := 1 + rand.Intn(maxTypos)
	s := text
	for i := 0; i < n; i++ {
		s = ops[rand.Intn(len(ops))](s)
	}
	if rand.Float64() < 0.25 && s != "" && isAlpha(s[0]) {
		s = strings.ToLower(s[:1]) + s[1:]
	}
	return s
}

// swapAdjacent swaps two adjacent interior alphabetic characters.
func swapAdjacent(s string) string {
	if len(s) < 4 {
		return s
	}
	b := []byte(s)
	i := 1 + rand.Intn(len(b)-2)
	if isAlpha(b[i]) && isAlpha(b[i+1]) {
		b[i], b[i+1] = b[i+1], b[i]
	}
	return string(b)
}

// neighborReplace substitutes one alphabetic character with a QWERTY
// neighbor, preserving case.
func neighborReplace(s string) string {
	b := []byte(s)
	var idxs []int
	for i, c := range b {
		if isAlpha(c) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return s
	}
	i := idxs[rand.Intn(len(idxs))]
	lower := b[i] | 0x20
	neighbors, ok := QwertyNeighbors[lower]
	if !ok || neighbors == "" {
		return s
	}
	rep := neighbors[rand.Intn(len(neighbors))]
	if b[i] >= 'A' && b[i] <= 'Z' {
		rep = rep &^ 0x20
	}
	b[i] = rep
	return string(b)
}

// dropRandomChar removes one random alphabetic character.
func dropRandomChar(s string) string {
	var idxs []int
	for i := 0; i < len(s); i++ {
		if isAlpha(s[i]) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return s
	}
	i := idxs[rand.Intn(len(idxs))]
	return s[:i] + s[i+1:]
}
