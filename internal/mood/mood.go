// Package mood implements the bot opponent's adaptive tone controller: a
// pure style analyzer over the user's last message, an exponential-moving-
// average state update, and two projections of that state — natural
// language prompt instructions and LLM generation-parameter adjustments.
package mood

import (
	"math"
	"regexp"
	"strings"
)

// Lexicons and phrase lists, carried verbatim from the fixed tables spec.md
// §4.5 names without contents (grounded in original_source's mood.py).
var (
	AggressiveKeywords = []string{
		"fuck", "shit", "damn", "wtf", "stfu", "idiot", "stupid", "dumb", "moron",
		"shut up", "piss", "asshole", "bitch", "hell", "crap", "suck", "hate",
		"annoying", "ridiculous", "pathetic", "waste", "useless",
	}
	EmotionalKeywords = []string{
		"feel", "felt", "feeling", "emotion", "sad", "happy", "excited", "angry",
		"frustrated", "love", "hate", "miss", "worried", "anxious", "scared",
		"nervous", "glad", "sorry", "hurt", "disappointed", "proud", "ashamed",
		"grateful", "hope", "wish", "care", "matter",
	}
	EmotionalPhrases = []string{
		"i feel", "i'm so", "i am so", "this makes me", "makes me feel",
		"i'm really", "i am really", "it hurts", "i can't believe",
		"i'm sad", "i'm happy", "i'm excited", "i'm worried",
	}
	LogicalKeywords = []string{
		"therefore", "thus", "hence", "because", "since", "if", "then",
		"logically", "logic", "rational", "reason", "evidence", "proof",
		"consistent", "inconsistent", "contradict", "implies", "assume",
		"fact", "data", "analysis", "objective", "subjective", "argument",
	}
	EmotionalEmojis = []string{"😂", "😭", "😡", "🥹", "❤️", "💔", "😢", "😊", "😃", "😍", "😤", "😠"}
)

var excessivePunct = regexp.MustCompile(`[!?]{2,}`)
var listPattern = regexp.MustCompile(`(?m)(?:^|\n)\s*[\d\-*]\s*[.)]?\s+`)

// State is the bot's 4-dimensional mood vector (spec §3 Mood entity).
// Aggressiveness ranges over [-1,1]; the other three over [0,1]. Values are
// clamped at construction and after every update (P5).
type State struct {
	Aggressiveness float64
	Empathy        float64
	Playfulness    float64
	Analytical     float64
}

// Clamp enforces the invariant ranges in place.
func (s *State) Clamp() {
	s.Aggressiveness = clamp(s.Aggressiveness, -1, 1)
	s.Empathy = clamp(s.Empathy, 0, 1)
	s.Playfulness = clamp(s.Playfulness, 0, 1)
	s.Analytical = clamp(s.Analytical, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Style is the per-message analysis produced by AnalyzeStyle.
type Style struct {
	Aggressive float64
	Emotional  float64
	Logical    float64
}

// AnalyzeStyle scores a single user message for aggressive/emotional/logical
// signal strength, each clamped to [0,1], per spec §4.5.
func AnalyzeStyle(message string) Style {
	if message == "" {
		return Style{}
	}
	lower := strings.ToLower(message)
	words := strings.Fields(message)
	wordCount := len(words)

	aggressive := 0.0
	aggressiveCount := 0
	for _, w := range AggressiveKeywords {
		if strings.Contains(lower, w) {
			aggressiveCount++
		}
	}
	aggressive += math.Min(1.0, float64(aggressiveCount)*0.3)

	if wordCount > 3 {
		caps := 0
		for _, w := range words {
			if len(w) > 2 && w == strings.ToUpper(w) && strings.ToLower(w) != strings.ToUpper(w) {
				caps++
			}
		}
		capsRatio := float64(caps) / float64(wordCount)
		aggressive += math.Min(0.5, capsRatio*2)
	}

	excessive := len(excessivePunct.FindAllString(message, -1))
	aggressive += math.Min(0.4, float64(excessive)*0.2)
	aggressive = math.Min(1.0, aggressive)

	emotional := 0.0
	emotionalCount := 0
	padded := " " + lower + " "
	for _, w := range EmotionalKeywords {
		if strings.Contains(padded, " "+w+" ") {
			emotionalCount++
		}
	}
	emotional += math.Min(0.6, float64(emotionalCount)*0.15)

	phraseCount := 0
	for _, p := range EmotionalPhrases {
		if strings.Contains(lower, p) {
			phraseCount++
		}
	}
	emotional += math.Min(0.5, float64(phraseCount)*0.25)

	emojiCount := 0
	for _, e := range EmotionalEmojis {
		if strings.Contains(message, e) {
			emojiCount++
		}
	}
	emotional += math.Min(0.4, float64(emojiCount)*0.2)
	emotional = math.Min(1.0, emotional)

	logical := 0.0
	logicalCount := 0
	for _, w := range LogicalKeywords {
		if strings.Contains(lower, w) {
			logicalCount++
		}
	}
	logical += math.Min(0.7, float64(logicalCount)*0.2)

	listHits := len(listPattern.FindAllString(message, -1))
	logical += math.Min(0.4, float64(listHits)*0.2)

	if strings.Contains(lower, "if ") && (strings.Contains(lower, "then") || strings.Contains(message, ",")) {
		logical += 0.3
	}
	logical = math.Min(1.0, logical)

	return Style{Aggressive: aggressive, Emotional: emotional, Logical: logical}
}

// Update applies an exponential moving average toward style-derived targets
// and returns the new, clamped mood state. alpha is itself clamped to
// [0,1].
func Update(m State, s Style, alpha float64) State {
	alpha = clamp(alpha, 0, 1)

	targetAggression := s.Aggressive - 0.2
	newAggressiveness := m.Aggressiveness*(1-alpha) + targetAggression*alpha

	baseEmpathy := s.Emotional*0.8 + (1-s.Aggressive)*0.2
	newEmpathy := m.Empathy*(1-alpha) + baseEmpathy*alpha

	basePlayfulness := s.Emotional * (1 - s.Aggressive) * 0.7
	newPlayfulness := m.Playfulness*(1-alpha) + basePlayfulness*alpha

	newAnalytical := m.Analytical*(1-alpha) + s.Logical*alpha

	next := State{
		Aggressiveness: newAggressiveness,
		Empathy:        newEmpathy,
		Playfulness:    newPlayfulness,
		Analytical:     newAnalytical,
	}
	next.Clamp()
	return next
}

// BuildInstructions concatenates natural-language tone snippets for each
// threshold the mood currently crosses (spec §4.5 BuildMoodInstructions).
// Returns "" when no threshold is crossed.
func BuildInstructions(m State) string {
	var parts []string

	switch {
	case m.Aggressiveness > 0.4:
		parts = append(parts, "You feel slightly defensive. Respond with subtle sarcasm or dry humor, "+
			"but stay calm and never be toxic or hostile. Keep it light and human.")
	case m.Aggressiveness < -0.3:
		parts = append(parts, "You're feeling very relaxed and calm. Be extra chill and easygoing in your responses.")
	}

	if m.Empathy > 0.5 {
		parts = append(parts, "You're warm and empathetic. Acknowledge and validate their feelings. "+
			"Show you understand where they're coming from.")
	}
	if m.Analytical > 0.5 {
		parts = append(parts, "You're thinking analytically. Be more precise and logical in your responses. "+
			"Focus on clear reasoning and structure your thoughts.")
	}
	if m.Playfulness > 0.5 {
		parts = append(parts, "You're feeling playful and teasing. Add some light humor or playful banter, "+
			"but stay natural and don't overdo it.")
	}

	return strings.Join(parts, " ")
}

// GenParams is the mood-shaped adjustment to LLM generation parameters
// (spec §4.5 GenParams), always within the P6 bounds regardless of mood.
type GenParams struct {
	Temperature float64
	MaxWords    int
	TypoRate    float64
}

// Params computes GenParams from base temperature/word-count/typo-rate and
// the current mood, applying the additive adjustments of spec §4.5 then
// clamping to the fixed bounds.
func Params(m State, baseTemperature float64, baseMaxWords int, baseTypoRate float64) GenParams {
	temperature := baseTemperature
	maxWords := float64(baseMaxWords)
	typoRate := baseTypoRate

	if m.Analytical > 0.3 {
		temperature -= m.Analytical * 0.3
		maxWords += math.Floor(m.Analytical * 6)
		typoRate -= m.Analytical * 0.1
	}
	if m.Playfulness > 0.3 {
		temperature += m.Playfulness * 0.4
		typoRate += m.Playfulness * 0.15
	}
	if m.Aggressiveness > 0.4 {
		maxWords -= math.Floor(m.Aggressiveness * 4)
		temperature += m.Aggressiveness * 0.2
	} else if m.Aggressiveness < -0.3 {
		maxWords += 2
		temperature -= 0.1
	}
	if m.Empathy > 0.5 {
		maxWords += 3
		typoRate -= 0.05
	}

	temperature = clamp(temperature, 0.2, 1.5)
	maxWords = clamp(maxWords, 8, 30)
	typoRate = clamp(typoRate, 0.0, 0.5)

	return GenParams{
		Temperature: round2(temperature),
		MaxWords:    int(maxWords),
		TypoRate:    round3(typoRate),
	}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
