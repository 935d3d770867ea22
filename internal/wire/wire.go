// Package wire defines the duplex session protocol (spec §4.9.1 / §6):
// length-prefixed JSON frames carrying a discriminating "type" field. The
// gorilla/websocket transport already frames messages, so "length-prefixed"
// here is satisfied by one JSON object per WebSocket text message.
package wire

// Inbound frame type discriminators.
const (
	TypeChat  = "chat"
	TypeGuess = "guess"
	TypeState = "state"
)

// Outbound frame type discriminators.
const (
	TypeMatchStart = "match_start"
	TypeTick       = "tick"
	TypeTyping     = "typing"
	TypeEnd        = "end"
)

// Inbound is the single decode target for any frame read from a client:
// Type selects which of the other fields is meaningful, mirroring how the
// reference backend decodes one JSON object and branches on data["type"].
type Inbound struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Guess string `json:"guess"`
}

// MatchStart is the first frame sent on every session.
type MatchStart struct {
	Type         string `json:"type"`
	Role         string `json:"role"`
	CommitHash   string `json:"commit_hash"`
	RoundSeconds int    `json:"round_seconds"`
	TurnSeconds  int    `json:"turn_seconds"`
	Opponent     string `json:"opponent"`
	PersonaName  string `json:"persona_name"`
	Version      string `json:"version"`
}

// Tick is the once-per-second clock update.
type Tick struct {
	Type      string `json:"type"`
	RoundLeft int    `json:"round_left"`
	TurnLeft  int    `json:"turn_left"`
	Turn      string `json:"turn"`
}

// Typing signals the opponent's composing state.
type Typing struct {
	Type string `json:"type"`
	Who  string `json:"who"`
	On   bool   `json:"on"`
}

// Chat is a rendered chat line; From is "A" (self) or "B" (opponent) from
// the receiving client's own point of view.
type Chat struct {
	Type string `json:"type"`
	From string `json:"from_"`
	Text string `json:"text"`
}

// State is a point-in-time snapshot returned in reply to a state frame.
type State struct {
	Type      string `json:"type"`
	Opponent  string `json:"opponent"`
	RoundLeft int    `json:"round_left"`
	TurnLeft  int    `json:"turn_left"`
	Turn      string `json:"turn"`
}

// Reveal is the commit-reveal disclosure attached to every end frame.
type Reveal struct {
	OpponentType string `json:"opponent_type"`
	Nonce        string `json:"nonce"`
	CommitTs     int64  `json:"commit_ts"`
}

// End is the terminal frame. Correct is only meaningful when Reason is
// "guess"; Winner is only meaningful when Reason is "timeout" or
// "disconnect".
type End struct {
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	Winner     string `json:"winner,omitempty"`
	Correct    bool   `json:"correct,omitempty"`
	ScoreDelta int    `json:"score_delta"`
	Reveal     Reveal `json:"reveal"`
}

func NewMatchStart(role, commitHash string, roundSecs, turnSecs int, opponent, persona, version string) MatchStart {
	return MatchStart{
		Type: TypeMatchStart, Role: role, CommitHash: commitHash,
		RoundSeconds: roundSecs, TurnSeconds: turnSecs,
		Opponent: opponent, PersonaName: persona, Version: version,
	}
}

func NewTick(roundLeft, turnLeft int, turn string) Tick {
	return Tick{Type: TypeTick, RoundLeft: roundLeft, TurnLeft: turnLeft, Turn: turn}
}

func NewTyping(who string, on bool) Typing {
	return Typing{Type: TypeTyping, Who: who, On: on}
}

func NewChat(from, text string) Chat {
	return Chat{Type: TypeChat, From: from, Text: text}
}

func NewState(opponent string, roundLeft, turnLeft int, turn string) State {
	return State{Type: TypeState, Opponent: opponent, RoundLeft: roundLeft, TurnLeft: turnLeft, Turn: turn}
}

func NewEnd(reason string, scoreDelta int, reveal Reveal) End {
	return End{Type: TypeEnd, Reason: reason, ScoreDelta: scoreDelta, Reveal: reveal}
}
