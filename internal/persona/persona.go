// Package persona generates seeded-deterministic persona cards: the
// demographic and stylistic profile a bot opponent performs, plus the
// generation knobs (word cap, typo rate, emoji pool, ...) that the
// humanizer and bot-reply pipeline consume. Identical seeds always produce
// byte-identical personas (spec P7).
package persona

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// LangPref is the persona's language preference for the bot-reply pipeline.
type LangPref string

const (
	LangDE   LangPref = "de"
	LangEN   LangPref = "en"
	LangAuto LangPref = "auto"
)

// Persona is the full demographic + stylistic card. The fields named in
// spec.md §3/§4.4 (ReplyWordCap, TypoRate, EmojiPool, EmojiRate, Laughter,
// FillerWords, LangPref, Slang, Dialect) are load-bearing for the humanizer
// and bot pipeline; the rest are supplemented richness fed into the prompt
// builder's persona-brief section (see SPEC_FULL.md, Supplemented Features).
type Persona struct {
	Name        string
	Gender      string
	Age         int
	City        string
	Hometown    string
	YearsInCity int
	Job         string
	Industry    string
	EmployerType string
	Schedule    string
	MicroToday  string
	Bio         string
	Quirks      string
	Vibes       string
	Music       string
	Food        string
	Pet         string
	SoftOpinion string
	Donots      []string

	Slang       []string
	Dialect     string
	LangPref    LangPref
	EmojiPool   []string
	EmojiRate   float64
	Laughter    string
	FillerWords []string

	ReplyWordCap int
	TypoRate     float64
}

var (
	genders    = []string{"female", "male", "nonbinary"}
	femaleNames = []string{"Mara", "Nina", "Sofia", "Lea", "Emma", "Mia", "Lena", "Hannah", "Emily", "Charlotte"}
	maleNames   = []string{"Alex", "Luca", "Jonas", "Max", "Leon", "Paul", "Elias", "Noah", "Finn", "Ben"}
	nbNames     = []string{"Sam", "Jules", "Robin", "Sascha", "Taylor", "Alexis", "Nico", "Charlie"}
	cities      = []string{"Berlin", "Hamburg", "Köln", "München", "Leipzig", "Düsseldorf", "Stuttgart", "Dresden", "Frankfurt", "Bremen"}
	hometowns   = []string{"Bochum", "Kassel", "Bielefeld", "Rostock", "Nürnberg", "Ulm", "Hannover", "Jena", "Augsburg", "Freiburg"}

	jobs = []string{
		"UX researcher", "barista", "front-end dev", "product manager", "physio", "photographer", "nurse",
		"data analyst", "teacher", "marketing lead", "warehouse operator", "student", "copywriter", "data engineer",
		"graphic designer", "social media manager", "HR coordinator", "architect", "chef", "mechanic", "pharmacist",
		"accountant", "video editor", "translator", "recruiter", "sales rep", "DevOps engineer", "legal assistant",
		"personal trainer", "event planner", "journalist", "librarian", "dental hygienist", "real estate agent",
	}
	industries = []string{"tech", "healthcare", "education", "logistics", "finance", "retail", "media", "public sector", "hospitality"}

	hobbies = []string{
		"bouldering", "running 5k", "cycling", "yoga", "reading thrillers", "console gaming", "football on Sundays",
		"cooking ramen", "photography", "cinema nights", "coffee nerd stuff", "hiking", "board games", "baking",
		"thrifting", "vinyl digging", "tennis", "swimming", "gardening", "sketching", "guitar practice",
		"podcasts", "chess online", "standup comedy", "language learning", "crossfit", "DJing", "coding side projects",
		"pottery classes", "rock climbing", "meal prep", "urban exploring", "film photography", "indie concerts",
		"trivia nights", "volunteering", "skateboarding", "boxing", "journaling", "fermenting", "origami",
		"mixology", "calligraphy", "astronomy",
	}

	textingStyles = []string{
		"dry humor, concise", "warm tone, lowercase start", "short replies, occasional emoji",
		"light sarcasm, contractions", "enthusiastic, a bit bubbly", "matter-of-fact, chill",
		"thoughtful pauses", "playful teasing", "genuine curiosity", "understated wit",
		"casual philosophizing", "deadpan delivery", "expressive punctuation", "minimalist responses",
		"overthinking everything", "relaxed storyteller", "self-deprecating humor", "enthusiastic oversharer",
	}
	slangSets  = [][]string{{"lol", "haha"}, {"digga"}, {"bro"}, {"mate"}, {"bruh"}, {}}
	dialects   = []string{"Standarddeutsch", "leichter Berliner Slang", "Kölsch-Note", "Hochdeutsch", "Denglisch", "English-first, understands German"}
	emojiBundles = [][]string{{}, {}, {}, {"🙂"}, {"😅"}, {"👍"}, {}}
	laughterOpts = []string{"lol", "haha", "", "", ""}

	employerTypes = []string{"startup", "agency", "corporate", "clinic", "public office", "freelance"}
	schedules     = []string{"early riser", "standard 9–5", "night owl"}
	microTodays   = []string{
		"spilled coffee earlier", "bike tire was flat", "friend's birthday later",
		"rushed morning standup", "gym after work", "meal prepping tonight", "laundry mountain waiting",
		"dentist appointment later", "package arriving today", "car needs inspection soon",
		"meeting ran overtime", "forgot lunch at home", "train was delayed", "found 5€ on street",
		"neighbor's dog was loud", "wifi went down earlier", "new episode dropped", "plants needed watering",
		"trying new recipe tonight", "sister called earlier", "lost earbuds somewhere", "ordered pizza for dinner",
		"finished book yesterday", "apartment viewing tomorrow", "team won last night", "haircut this weekend",
		"deadline approaching", "roommate left dishes", "forgot umbrella again", "keys were missing",
		"elevator broken today", "got text from ex", "need groceries badly", "ran into old friend",
		"phone battery dying", "coffee machine broke", "printer jammed again", "cat knocked over plant",
	}
	musics = []string{"indie", "electro", "hip hop", "pop", "rock", "lofi", "jazz", "techno", "folk", "r&b", "metal", "classical", "punk"}
	foods  = []string{"ramen", "pasta", "tacos", "salads", "curry", "falafel", "pizza", "kumpir", "sushi", "dim sum", "pho", "burgers", "dumplings", "shawarma"}
	pets   = []string{"cat", "dog", "no pets", "plants count", "fish tank", "bird", "thinking about getting one"}
	softOpinions = []string{
		"pineapple on pizza is fine", "meetings should be emails", "night buses are underrated",
		"sunny cold days > rainy warm ones", "decaf is a scam", "paper books > ebooks sometimes",
		"breakfast is overrated", "standing desks changed everything", "cold brew > espresso",
		"subtitle movies are better", "winter > summer", "cereal is a soup", "hot dogs are sandwiches",
		"GIFs are the best replies", "voice messages are annoying", "typing is faster than talking",
		"morning people are suspicious", "podcasts at 1.5x speed", "tabs > spaces", "light mode hurts",
		"cilantro tastes like soap", "mint chocolate is weird", "ketchup on fries is basic",
		"pumpkin spice is good", "comic sans isn't that bad", "NFTs make no sense",
		"dogs > cats obviously", "cats > dogs obviously", "remote work forever", "office has its perks",
	}
	vibes       = []string{"smart", "cool", "witty", "grounded", "curious", "chill"}
	fillerPool  = []string{"tbh", "ngl", "eig.", "halt", "so", "like", "uh", "um"}
	donots = []string{
		"no encyclopedic facts or exact stats",
		"no system/model talk",
		"no time-stamped factual claims",
	}
)

// seededRNG derives a deterministic RNG from a seed string the same way the
// persona generator must: truncate SHA-256(seed) to 64 bits and use it as
// the PRNG seed, so identical seeds produce identical draws.
func seededRNG(seed string) *rand.Rand {
	sum := sha256.Sum256([]byte(seed))
	n := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(n))
}

func choice[T any](r *rand.Rand, pool []T) T {
	return pool[r.Intn(len(pool))]
}

func sample[T any](r *rand.Rand, pool []T, k int) []T {
	idx := r.Perm(len(pool))
	out := make([]T, 0, k)
	for _, i := range idx[:k] {
		out = append(out, pool[i])
	}
	return out
}

// Generate produces a deterministic Persona from seed. langPref overrides
// the persona's language preference field per spec §4.4 ("one field,
// lang_pref, is overridable by the matchmaker").
func Generate(seed string, langPref LangPref) Persona {
	r := seededRNG(seed)

	gender := choice(r, genders)
	var name string
	switch gender {
	case "female":
		name = choice(r, femaleNames)
	case "male":
		name = choice(r, maleNames)
	default:
		name = choice(r, nbNames)
	}

	age := 20 + r.Intn(20)
	city := choice(r, cities)
	hometown := choice(r, hometowns)
	yearsInCity := 1 + r.Intn(10)

	job := choice(r, jobs)
	industry := choice(r, industries)
	employerType := choice(r, employerTypes)
	schedule := choice(r, schedules)
	microToday := choice(r, microTodays)

	music := choice(r, musics)
	food := choice(r, foods)
	pet := choice(r, pets)
	softOpinion := choice(r, softOpinions)

	style := choice(r, textingStyles)
	slang := choice(r, slangSets)
	dialect := choice(r, dialects)
	emojiPool := choice(r, emojiBundles)
	emojiRate := 0.0
	if len(emojiPool) > 0 {
		emojiRate = 0.03
	}
	laughter := choice(r, laughterOpts)

	fillerCount := 1 + r.Intn(2)
	fillerWords := sample(r, fillerPool, fillerCount)

	replyWordCap := 9 + r.Intn(7)
	typoRate := round2(0.12 + r.Float64()*0.08)

	bioHobbies := sample(r, hobbies, 2)
	bio := fmt.Sprintf("%s (%d) from %s, %dy in %s. %s in %s at a %s. Free time: %s, %s.",
		name, age, hometown, yearsInCity, city, job, industry, employerType, bioHobbies[0], bioHobbies[1])

	slangDisplay := "none"
	if len(slang) > 0 {
		slangDisplay = joinComma(slang)
	}
	quirks := fmt.Sprintf("%s; tiny typos sometimes; slang: %s; dialect: %s; schedule: %s; today: %s.",
		style, slangDisplay, dialect, schedule, microToday)

	if langPref == "" {
		langPref = LangEN
	}

	return Persona{
		Name: name, Gender: gender, Age: age, City: city, Hometown: hometown, YearsInCity: yearsInCity,
		Job: job, Industry: industry, EmployerType: employerType, Schedule: schedule, MicroToday: microToday,
		Bio: bio, Quirks: quirks, Vibes: choice(r, vibes), Music: music, Food: food, Pet: pet,
		SoftOpinion: softOpinion, Donots: append([]string(nil), donots...),
		Slang: slang, Dialect: dialect, LangPref: langPref,
		EmojiPool: emojiPool, EmojiRate: emojiRate, Laughter: laughter, FillerWords: fillerWords,
		ReplyWordCap: replyWordCap, TypoRate: typoRate,
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
