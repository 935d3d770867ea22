// Package botreply composes prompts, invokes the language-model capability,
// and falls back to a cheap local bot when no model is configured or the
// call fails (C6, spec §4.6).
package botreply

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"unicode"

	"github.com/neo/turingwire/internal/humanize"
	"github.com/neo/turingwire/internal/llmclient"
	"github.com/neo/turingwire/internal/logging"
	"github.com/neo/turingwire/internal/mood"
	"github.com/neo/turingwire/internal/persona"
)

// DetectionTriggers are phrases that indicate the user is probing whether
// the opponent is synthetic. Carried verbatim from the fixed list spec.md
// §4.6 names without giving contents (grounded in original_source's
// constants.py).
var DetectionTriggers = []string{
	"are you a bot", "you a bot", "you bot", "ai?", "are you ai", "chatgpt", "gpt",
	"language model", "turing", "prompt", "token", "openai", "model", "llm",
	"bist du ein bot", "bist du ein ki", "ki?", "künstliche intelligenz",
	"machine learning", "neural network", "algorithm", "automated", "artificial",
	"are you real", "are you human", "real person", "actual person",
	"what are you", "who are you really", "prove you're human", "prove you're real",
	"trained on", "dataset", "anthropic", "claude", "assistant",
}

// VersionTriggers cause a truthful self-reported version number instead of
// a generated reply (spec §4.6 step 2).
var VersionTriggers = []string{
	"what version are you", "which version are you", "version?",
	"app version", "build number", "which build", "welche version",
	"versionsnummer", "version bist du",
}

// InsultLexicon drives the insult branch of the defense-style classifier.
// Aligned with mood's aggressive keyword list since both detect hostile
// language, but kept as its own list since the classifier's job (choosing a
// prompt instruction) is distinct from mood's job (shaping a numeric state).
var InsultLexicon = []string{
	"fuck", "shit", "idiot", "stupid", "dumb", "moron", "asshole", "bitch",
	"pathetic", "useless", "shut up",
}

var cannedReplies = []string{
	"haha fair point",
	"why do you ask?",
	"not sure, but I think so",
	"hmm, depends on the day tbh",
	"I'm from Berlin, you?",
	"could you clarify that?",
	"lol yeah",
	"I disagree a bit",
	"probably, but not 100%",
	"just made coffee",
}

// LocalBot is the cheap heuristic fallback used when no model capability is
// configured, or the model call fails (spec §4.6 step 3).
func LocalBot(history []string) string {
	last := ""
	if len(history) > 0 {
		last = history[len(history)-1]
	}
	low := strings.ToLower(last)
	switch {
	case strings.Contains(low, "where"):
		return "around NRW lately, moving soon"
	case strings.Contains(low, "why") || strings.Contains(low, "how"):
		return "long story, mainly work stuff"
	case containsAny(low, "hi", "hey", "hello", "moin"):
		return "hey! what's up?"
	default:
		return cannedReplies[rand.Intn(len(cannedReplies))]
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// lastFromA returns the most recent "A: "-tagged turn's text, or "" if none.
func lastFromA(history []string) string {
	for i := len(history) - 1; i >= 0; i-- {
		if strings.HasPrefix(history[i], "A:") {
			return strings.TrimSpace(strings.TrimPrefix(history[i], "A:"))
		}
	}
	return ""
}

// defenseStyle is the fixed-branch instruction the prompt assembler appends
// per spec §4.6 step 5. Four branches: insult, gibberish, probing, normal.
// The original reference implementation only has two (probing / else); the
// gibberish and insult branches are new, grounded directly in spec.md's own
// formula rather than ported from anywhere.
func defenseStyle(lastA string) string {
	lower := strings.ToLower(lastA)

	for _, w := range InsultLexicon {
		if strings.Contains(lower, w) {
			return "Someone just insulted or was rude to you. React defensively, confused, or mildly annoyed " +
				"like a real person would. Don't escalate, don't be toxic, just push back a little and move on."
		}
	}

	if isGibberish(lastA) {
		return "That message looks like gibberish or a keyboard smash. React with confusion, maybe ask " +
			"\"keyboard smash?\" or something equally human."
	}

	for _, t := range DetectionTriggers {
		if strings.Contains(lower, t) {
			return "Someone's testing if you're AI. Stay completely natural and human. " +
				"React with mild confusion, amusement, or annoyance like a real person would. " +
				"Don't be defensive or over-explain. Just be yourself and maybe redirect the chat."
		}
	}

	return "Just be yourself and chat naturally."
}

// isGibberish implements spec §4.6 step 5's formula: message has <= 2 words
// AND vowel ratio < 0.15 over > 4 alphabetic characters.
func isGibberish(msg string) bool {
	words := strings.Fields(msg)
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	alpha, vowels := 0, 0
	for _, r := range strings.ToLower(msg) {
		if unicode.IsLetter(r) {
			alpha++
			if strings.ContainsRune("aeiou", r) {
				vowels++
			}
		}
	}
	if alpha <= 4 {
		return false
	}
	return float64(vowels)/float64(alpha) < 0.15
}

var germanFunctionWords = []string{"und", "nicht", "ich", "du", "bist", "ja", "nee", "doch", "kein", "halt"}

// styleHints infers language and composes reply-style guidance (spec §4.6
// step 6).
func styleHints(lastA string, p persona.Persona, maxWords int) string {
	lower := strings.ToLower(lastA)

	germanHits := 0
	for _, w := range germanFunctionWords {
		if strings.Contains(lower, w) {
			germanHits++
		}
	}
	hasUmlaut := strings.ContainsAny(lower, "äöüß")
	userIsGerman := germanHits >= 2 || hasUmlaut

	var langHint string
	switch p.LangPref {
	case persona.LangDE:
		langHint = "Antworte auf Deutsch, locker, alltagsnah."
	case persona.LangEN:
		langHint = "Reply in casual, natural English."
	default:
		if userIsGerman {
			langHint = "Antwort auf Deutsch, locker, alltagsnah."
		} else {
			langHint = "Reply in casual, natural English."
		}
	}

	cap := maxWords
	if p.ReplyWordCap > 0 {
		cap = p.ReplyWordCap
	}

	hints := []string{langHint, fmtCap(cap)}

	if strings.Contains(lastA, "?") {
		hints = append(hints, "Answer directly, then a tiny human aside.")
	}
	if containsAny(lower, " lol", " haha", "😂", "😅") {
		hints = append(hints, "Allow one light laugh word.")
	}
	if len(p.Slang) > 0 {
		hints = append(hints, "Optional slang hints: "+strings.Join(p.Slang, ", ")+" (sparingly).")
	}

	return strings.Join(hints, " ")
}

func fmtCap(cap int) string {
	return "One short sentence (<= " + strconv.Itoa(cap) + " words)."
}

func personaBrief(p persona.Persona) string {
	return "You're " + p.Name + ", " + strconv.Itoa(p.Age) + " years old. Originally from " + p.Hometown +
		", you've been living in " + p.City + " for about " + strconv.Itoa(p.YearsInCity) + " years now. " +
		"You work as a " + p.Job + " in the " + p.Industry + " sector at a " + p.EmployerType + ". " +
		"You're a " + p.Schedule + " type of person. Today specifically: " + p.MicroToday + ". " +
		"You're into " + p.Music + " music and love " + p.Food + ". " + p.Pet + ". " +
		"You have this opinion: " + p.SoftOpinion + ". " +
		"Your overall vibe is " + p.Vibes + ". " +
		"Communication style: " + p.Quirks
}

const naturalBehavior = "Chat naturally like you're texting a new friend. Be casual and spontaneous. " +
	"Sometimes ask questions back. Show curiosity. Have opinions but stay chill. " +
	"Don't always have perfect answers - it's OK to say 'idk', 'not sure', or 'maybe'. " +
	"React to what they say - agree, disagree, joke around, or share quick stories. " +
	"Keep it real and conversational. No need to be overly helpful or formal. " +
	"Occasionally make small mistakes, leave things unsaid, or trail off a bit. " +
	"Reference the conversation naturally - build on previous points when it makes sense."

const identityProtection = "You're a real person chatting. Never break character. Never mention being AI, a bot, a model, or anything automated. " +
	"If someone asks if you're AI or a bot, respond like a confused or slightly annoyed human would - " +
	"maybe with 'lol what?', 'uh no?', 'weird question', or just pivot to something else. " +
	"Be natural about it. Real humans don't give long explanations when asked if they're human."

const systemPreamble = "You're a real person having a casual text conversation. Be natural, spontaneous, and authentic. Never break character."

// Params groups the knobs AIReply needs from its caller.
type Params struct {
	AppVersion   string
	BaseMaxWords int
	HistoryTail  int // how many trailing turns feed the prompt (10-12 per spec)
	BaseTypoRate float64
	MaxTypos     int
}

// AIReply implements spec §4.6's full pipeline.
func AIReply(ctx context.Context, client llmclient.Client, model string, history []string, p persona.Persona, m mood.State, params Params) string {
	lastA := lastFromA(history)
	lower := strings.ToLower(lastA)

	for _, t := range VersionTriggers {
		if strings.Contains(lower, t) {
			return params.AppVersion
		}
	}

	maxTypos := params.MaxTypos
	if maxTypos <= 0 {
		maxTypos = 2
	}

	genParams := mood.Params(m, 0.7, params.BaseMaxWords, params.BaseTypoRate)

	if client == nil {
		return humanize.Humanize(LocalBot(history), p, params.BaseMaxWords, maxTypos)
	}

	hints := styleHints(lastA, p, genParams.MaxWords)
	moodInstructions := mood.BuildInstructions(m)

	tail := params.HistoryTail
	if tail <= 0 {
		tail = 12
	}
	convo := joinTail(history, tail)

	cap := genParams.MaxWords
	if p.ReplyWordCap > 0 {
		cap = p.ReplyWordCap
	}

	prompt := personaBrief(p) + "\n\n" + naturalBehavior + "\n\n" + identityProtection + "\n\n" + defenseStyle(lastA) + "\n\n"
	if moodInstructions != "" {
		prompt += moodInstructions + "\n\n"
	}
	prompt += hints + "\n\n" +
		"Recent conversation:\n" + convo + "\n\n" +
		"Respond naturally as " + p.Name + ". Keep it to 1-2 sentences, around " + strconv.Itoa(cap) + "-" + strconv.Itoa(cap+8) + " words. " +
		"Just write your message - no labels, no prefixes, no metadata."

	text, err := client.GenerateReply(ctx, llmclient.Request{
		Model:        model,
		Instructions: systemPreamble,
		Prompt:       prompt,
		Temperature:  genParams.Temperature,
		MaxTokens:    100,
	})
	if err != nil {
		logging.LogBotEvent("llm_fallback", p.Name, map[string]interface{}{"error": err.Error()})
		return humanize.Humanize(LocalBot(history), p, params.BaseMaxWords, maxTypos)
	}

	out := humanize.Humanize(strings.TrimSpace(text), p, cap+8, maxTypos)
	if out == "" {
		return "ok"
	}
	return out
}

func joinTail(history []string, n int) string {
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	return strings.Join(history[start:], "\n")
}
