// Package session implements C9 (spec §4.9): the duplex game runtime. Two
// drivers, RunAI and RunH2H, share a common state shape and state machine
// and differ only in how many peers they read from and how chat is routed
// between them.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/neo/turingwire/internal/botreply"
	"github.com/neo/turingwire/internal/commitreveal"
	"github.com/neo/turingwire/internal/llmclient"
	"github.com/neo/turingwire/internal/logging"
	"github.com/neo/turingwire/internal/mood"
	"github.com/neo/turingwire/internal/persona"
	"github.com/neo/turingwire/internal/wire"
)

// Conn is the minimal duplex transport a driver needs. *websocket.Conn
// satisfies it directly; tests substitute an in-memory fake.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Config groups the tunables named in spec §6.
type Config struct {
	RoundLimit       time.Duration
	TurnLimit        time.Duration
	ScoreCorrect     int
	ScoreWrong       int
	ScoreTimeoutWin  int
	HumanizeMinDelay time.Duration
	HumanizeMaxDelay time.Duration
	AppVersion       string
	BaseMaxWords     int
	BaseTemperature  float64
	HistoryTail      int
	BaseTypoRate     float64
	MaxTypos         int
}

// DefaultConfig matches spec §6's defaults.
func DefaultConfig() Config {
	return Config{
		RoundLimit:       300 * time.Second,
		TurnLimit:        30 * time.Second,
		ScoreCorrect:     100,
		ScoreWrong:       -200,
		ScoreTimeoutWin:  100,
		HumanizeMinDelay: 600 * time.Millisecond,
		HumanizeMaxDelay: 1600 * time.Millisecond,
		AppVersion:       "2",
		BaseMaxWords:     12,
		BaseTemperature:  0.7,
		HistoryTail:      12,
		BaseTypoRate:     0.22,
		MaxTypos:         2,
	}
}

func otherSide(turn string) string {
	if turn == "A" {
		return "B"
	}
	return "A"
}

func personaSeed(c commitreveal.Commitment) string {
	return fmt.Sprintf("%s:%s:%s", c.OpponentType, c.Hash, c.Nonce)
}

func clampLeft(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d.Round(time.Second) / time.Second)
}

// state holds everything mutated while a session runs. The A-vs-bot driver
// owns it exclusively; the H2H driver funnels all mutation through a single
// processor goroutine so state never needs its own lock (spec §5).
type state struct {
	turn          string
	history       []string
	scoreA        int
	scoreB        int
	ended         bool
	roundDeadline time.Time
	turnDeadline  time.Time
	commitment    commitreveal.Commitment
	persona       persona.Persona
	moodState     mood.State
}

func newState(commitment commitreveal.Commitment, cfg Config) *state {
	now := time.Now()
	return &state{
		turn:          "A",
		commitment:    commitment,
		persona:       persona.Generate(personaSeed(commitment), persona.LangAuto),
		roundDeadline: now.Add(cfg.RoundLimit),
		turnDeadline:  now.Add(cfg.TurnLimit),
	}
}

func (s *state) resetTurnDeadline(cfg Config) {
	s.turnDeadline = time.Now().Add(cfg.TurnLimit)
}

func (s *state) swapTurn(cfg Config) {
	s.turn = otherSide(s.turn)
	s.resetTurnDeadline(cfg)
}

func (s *state) roundLeft() int { return clampLeft(time.Until(s.roundDeadline)) }
func (s *state) turnLeft() int  { return clampLeft(time.Until(s.turnDeadline)) }

func (s *state) reveal() wire.Reveal {
	r := s.commitment.Reveal()
	return wire.Reveal{OpponentType: string(r.OpponentType), Nonce: r.Nonce, CommitTs: r.CommitTs}
}

// RunAI drives an A-vs-bot session to completion on a single connection
// (spec §4.9.2).
func RunAI(ctx context.Context, conn Conn, commitment commitreveal.Commitment, client llmclient.Client, model string, cfg Config) {
	s := newState(commitment, cfg)
	logging.LogSessionEvent("start", s.commitment.Hash, "A", map[string]interface{}{"opponent": "AI"})

	if err := conn.WriteJSON(wire.NewMatchStart("A", s.commitment.Hash, int(cfg.RoundLimit/time.Second),
		int(cfg.TurnLimit/time.Second), "AI", s.persona.Name, cfg.AppVersion)); err != nil {
		return
	}

	var mu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	go aiTicker(conn, s, &mu, cfg, done)

	for {
		var in wire.Inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		mu.Lock()
		if s.ended {
			mu.Unlock()
			return
		}

		switch in.Type {
		case wire.TypeChat:
			if s.turn != "A" {
				mu.Unlock()
				continue
			}
			handleAIChatTurn(ctx, conn, s, &mu, in.Text, client, model, cfg)
		case wire.TypeGuess:
			finishAIGuess(conn, s, in.Guess, cfg)
			mu.Unlock()
			return
		case wire.TypeState:
			snapshot := wire.NewState("AI", s.roundLeft(), s.turnLeft(), s.turn)
			mu.Unlock()
			_ = conn.WriteJSON(snapshot)
		default:
			mu.Unlock()
		}
	}
}

// aiTicker emits tick frames once a second and ends the session on turn
// timeout. Runs until done is closed or the session ends itself.
func aiTicker(conn Conn, s *state, mu *sync.Mutex, cfg Config, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			mu.Lock()
			if s.ended || s.roundLeft() <= 0 {
				mu.Unlock()
				return
			}
			tick := wire.NewTick(s.roundLeft(), s.turnLeft(), s.turn)
			timedOut := s.turnLeft() <= 0
			var end wire.End
			if timedOut {
				winner := otherSide(s.turn)
				if winner == "A" {
					s.scoreA += cfg.ScoreTimeoutWin
				}
				end = wire.NewEnd("timeout", s.scoreA, s.reveal())
				end.Winner = winner
				s.ended = true
			}
			mu.Unlock()

			if conn.WriteJSON(tick) != nil {
				return
			}
			if timedOut {
				_ = conn.WriteJSON(end)
				return
			}
		}
	}
}

// handleAIChatTurn processes one inbound chat frame while it is A's turn.
// Caller holds mu; it is released before the bot-reply delays and
// re-acquired around each state mutation so the ticker goroutine is never
// blocked for the full reply latency.
func handleAIChatTurn(ctx context.Context, conn Conn, s *state, mu *sync.Mutex, text string, client llmclient.Client, model string, cfg Config) {
	text = strings.TrimSpace(text)
	if len(text) > 280 {
		text = text[:280]
	}
	if text == "" {
		mu.Unlock()
		return
	}

	s.history = append(s.history, "A: "+text)
	style := mood.AnalyzeStyle(text)
	s.moodState = mood.Update(s.moodState, style, 0.3)
	logging.LogMoodEvent(s.commitment.Hash,
		map[string]interface{}{"aggressive": style.Aggressive, "emotional": style.Emotional, "logical": style.Logical},
		map[string]interface{}{"aggressiveness": s.moodState.Aggressiveness, "empathy": s.moodState.Empathy,
			"playfulness": s.moodState.Playfulness, "analytical": s.moodState.Analytical})
	s.swapTurn(cfg)
	turnLeft := s.turnLeft()
	history := append([]string(nil), s.history...)
	m := s.moodState
	p := s.persona
	mu.Unlock()

	_ = conn.WriteJSON(wire.NewTyping("B", true))

	pre := time.Duration(randRange(float64(cfg.HumanizeMinDelay), float64(cfg.HumanizeMaxDelay)))
	maxPre := time.Duration(turnLeft)*time.Second - 5*time.Second
	if maxPre < 0 {
		maxPre = 0
	}
	if pre > maxPre {
		pre = maxPre
	}
	if pre > 0 {
		time.Sleep(pre)
	}

	reply := botreply.AIReply(ctx, client, model, history, p, m, botreply.Params{
		AppVersion: cfg.AppVersion, BaseMaxWords: cfg.BaseMaxWords, HistoryTail: cfg.HistoryTail,
		BaseTypoRate: cfg.BaseTypoRate, MaxTypos: cfg.MaxTypos,
	})

	postMax := 0.6
	if left := float64(turnLeft) - 1.5; left < postMax {
		postMax = left
	}
	if postMax > 0 {
		time.Sleep(time.Duration(randRange(0.1, postMax) * float64(time.Second)))
	}

	_ = conn.WriteJSON(wire.NewTyping("B", false))

	mu.Lock()
	if s.ended {
		mu.Unlock()
		return
	}
	s.history = append(s.history, "B: "+reply)
	s.swapTurn(cfg)
	mu.Unlock()

	_ = conn.WriteJSON(wire.NewChat("B", reply))
}

// finishAIGuess scores a guess and emits the terminal end frame. Caller
// holds mu.
func finishAIGuess(conn Conn, s *state, guess string, cfg Config) {
	correct := strings.ToUpper(guess) == string(s.commitment.OpponentType)
	delta := cfg.ScoreWrong
	if correct {
		delta = cfg.ScoreCorrect
	}
	s.scoreA += delta
	s.ended = true
	end := wire.NewEnd("guess", s.scoreA, s.reveal())
	end.Correct = correct
	_ = conn.WriteJSON(end)
	logging.LogSessionEvent("end", s.commitment.Hash, "A", map[string]interface{}{
		"reason": "guess", "correct": correct, "score": s.scoreA,
	})
	logging.LogScoreEvent("guess", s.commitment.Hash, map[string]interface{}{"correct": correct, "score": s.scoreA})
}

func tail(history []string, n int) []string {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func randRange(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rand.Float64()*(hi-lo)
}

// RunH2H drives a human-vs-human session across two connections (spec
// §4.9.3). If either side's initial match_start send fails, the surviving
// side is degraded to an A-vs-bot session with a fresh AI commitment.
func RunH2H(ctx context.Context, connA, connB Conn, commitment commitreveal.Commitment, client llmclient.Client, model string, cfg Config) {
	s := newState(commitment, cfg)
	logging.LogSessionEvent("start", s.commitment.Hash, "pair", map[string]interface{}{"opponent": "HUMAN"})

	startA := wire.NewMatchStart("A", s.commitment.Hash, int(cfg.RoundLimit/time.Second),
		int(cfg.TurnLimit/time.Second), "HUMAN", s.persona.Name, cfg.AppVersion)
	startB := startA

	okA := connA.WriteJSON(startA) == nil
	okB := connB.WriteJSON(startB) == nil

	if !okA || !okB {
		var survivor Conn
		if okA {
			survivor = connA
		} else if okB {
			survivor = connB
		}
		if survivor != nil {
			RunAI(ctx, survivor, commitreveal.NewCommitment(commitreveal.AI), client, model, cfg)
		}
		return
	}

	mailbox := make(chan tagged, 16)
	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }
	defer closeDone()

	reader := func(tag string, conn Conn) {
		for {
			var in wire.Inbound
			if err := conn.ReadJSON(&in); err != nil {
				select {
				case <-done:
				default:
					mailbox <- tagged{tag: "disconnect:" + tag}
				}
				return
			}
			select {
			case mailbox <- tagged{tag: tag, frame: in}:
			case <-done:
				return
			}
		}
	}

	go reader("A", connA)
	go reader("B", connB)
	go h2hTicker(connA, connB, s, cfg, done, mailbox)

	for !s.ended {
		msg := <-mailbox
		switch {
		case msg.tag == "disconnect:A" || msg.tag == "disconnect:B":
			handleH2HDisconnect(connA, connB, s, msg.tag, cfg)
		case msg.frame.Type == wire.TypeChat:
			handleH2HChat(connA, connB, s, msg.tag, msg.frame.Text, cfg)
		case msg.frame.Type == wire.TypeGuess:
			handleH2HGuess(connA, connB, s, msg.tag, msg.frame.Guess, cfg)
		case msg.frame.Type == wire.TypeState:
			handleH2HState(connA, connB, s, msg.tag)
		}
	}
}

func h2hTicker(connA, connB Conn, s *state, cfg Config, done <-chan struct{}, mailbox chan<- tagged) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if s.ended || s.roundLeft() <= 0 {
				return
			}
			tick := wire.NewTick(s.roundLeft(), s.turnLeft(), s.turn)
			_ = connA.WriteJSON(tick)
			_ = connB.WriteJSON(tick)

			if s.turnLeft() <= 0 {
				winner := otherSide(s.turn)
				awardTimeoutWin(s, winner, cfg)
				emitH2HEnd(connA, connB, s, "timeout", winner, false)
				s.ended = true
				return
			}
		}
	}
}

// tagged mirrors the (tag, frame) pairs the reference's asyncio.Queue
// carries; defined at package scope so the ticker and handlers share it.
type tagged struct {
	tag   string
	frame wire.Inbound
}

func awardTimeoutWin(s *state, winner string, cfg Config) {
	if winner == "A" {
		s.scoreA += cfg.ScoreTimeoutWin
	} else {
		s.scoreB += cfg.ScoreTimeoutWin
	}
}

func emitH2HEnd(connA, connB Conn, s *state, reason, winner string, correct bool) {
	endA := wire.NewEnd(reason, s.scoreA, s.reveal())
	endA.Winner = winner
	endA.Correct = correct
	endB := wire.NewEnd(reason, s.scoreB, s.reveal())
	endB.Winner = winner
	endB.Correct = correct
	_ = connA.WriteJSON(endA)
	_ = connB.WriteJSON(endB)
}

func handleH2HChat(connA, connB Conn, s *state, tag, text string, cfg Config) {
	if s.ended || tag != s.turn {
		return
	}
	text = strings.TrimSpace(text)
	if len(text) > 280 {
		text = text[:280]
	}
	if text == "" {
		return
	}
	s.history = append(s.history, tag+": "+text)

	self, other := connA, connB
	if tag == "B" {
		self, other = connB, connA
	}
	_ = other.WriteJSON(wire.NewChat("B", text))
	_ = self.WriteJSON(wire.NewChat("A", text))
	s.swapTurn(cfg)
}

func handleH2HGuess(connA, connB Conn, s *state, tag, guess string, cfg Config) {
	if s.ended {
		return
	}
	correct := strings.ToUpper(guess) == string(commitreveal.Human)
	delta := cfg.ScoreWrong
	if correct {
		delta = cfg.ScoreCorrect
	}
	if tag == "A" {
		s.scoreA += delta
	} else {
		s.scoreB += delta
	}
	emitH2HEnd(connA, connB, s, "guess", "", correct)
	s.ended = true
	logging.LogScoreEvent("guess", s.commitment.Hash, map[string]interface{}{
		"guesser": tag, "correct": correct, "score_a": s.scoreA, "score_b": s.scoreB,
	})
}

func handleH2HState(connA, connB Conn, s *state, tag string) {
	who := connA
	if tag == "B" {
		who = connB
	}
	_ = who.WriteJSON(wire.NewState("HUMAN", s.roundLeft(), s.turnLeft(), s.turn))
}

func handleH2HDisconnect(connA, connB Conn, s *state, disconnectedTag string, cfg Config) {
	if s.ended {
		return
	}
	var winner string
	if disconnectedTag == "disconnect:A" {
		winner = "B"
	} else {
		winner = "A"
	}
	awardTimeoutWin(s, winner, cfg)
	emitH2HEnd(connA, connB, s, "disconnect", winner, false)
	s.ended = true
}
