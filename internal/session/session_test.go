package session

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/turingwire/internal/commitreveal"
	"github.com/neo/turingwire/internal/wire"
)

type fakeConn struct {
	mu  sync.Mutex
	in  chan wire.Inbound
	out []any
}

func newFakeConn(frames ...wire.Inbound) *fakeConn {
	ch := make(chan wire.Inbound, len(frames)+1)
	for _, f := range frames {
		ch <- f
	}
	return &fakeConn{in: ch}
}

func (f *fakeConn) ReadJSON(v any) error {
	frame, ok := <-f.in
	if !ok {
		return io.EOF
	}
	*(v.(*wire.Inbound)) = frame
	return nil
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, v)
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) frames() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.out...)
}

func zeroDelayConfig() Config {
	cfg := DefaultConfig()
	cfg.HumanizeMinDelay = 0
	cfg.HumanizeMaxDelay = 0
	return cfg
}

func findEnd(frames []any) (wire.End, bool) {
	for _, f := range frames {
		if end, ok := f.(wire.End); ok {
			return end, true
		}
	}
	return wire.End{}, false
}

func TestRunAICorrectGuessScoresPositive(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.AI)
	conn := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "ai"})
	close(conn.in)

	cfg := zeroDelayConfig()
	RunAI(context.Background(), conn, commitment, nil, "", cfg)

	end, ok := findEnd(conn.frames())
	require.True(t, ok)
	assert.Equal(t, "guess", end.Reason)
	assert.True(t, end.Correct)
	assert.Equal(t, cfg.ScoreCorrect, end.ScoreDelta)
}

func TestRunAIWrongGuessScoresNegative(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.Human)
	conn := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "ai"})
	close(conn.in)

	cfg := zeroDelayConfig()
	RunAI(context.Background(), conn, commitment, nil, "", cfg)

	end, ok := findEnd(conn.frames())
	require.True(t, ok)
	assert.False(t, end.Correct)
	assert.Equal(t, cfg.ScoreWrong, end.ScoreDelta)
}

func TestRunAIMatchStartRevealsCommitHash(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.AI)
	conn := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "human"})
	close(conn.in)

	RunAI(context.Background(), conn, commitment, nil, "", zeroDelayConfig())

	frames := conn.frames()
	require.NotEmpty(t, frames)
	start, ok := frames[0].(wire.MatchStart)
	require.True(t, ok)
	assert.Equal(t, commitment.Hash, start.CommitHash)
	assert.Equal(t, "AI", start.Opponent)

	end, ok := findEnd(frames)
	require.True(t, ok)
	assert.True(t, commitreveal.Verify(commitment.Hash, commitment.OpponentType, end.Reveal.Nonce, end.Reveal.CommitTs))
}

func TestRunAIChatThenGuessAppendsBotReply(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.AI)
	conn := newFakeConn(
		wire.Inbound{Type: wire.TypeChat, Text: "hey there"},
		wire.Inbound{Type: wire.TypeGuess, Guess: "ai"},
	)
	close(conn.in)

	RunAI(context.Background(), conn, commitment, nil, "", zeroDelayConfig())

	var sawChatReply bool
	for _, f := range conn.frames() {
		if c, ok := f.(wire.Chat); ok && c.From == "B" {
			sawChatReply = true
		}
	}
	assert.True(t, sawChatReply)
}

func TestRunH2HGuessScoresEachSideIndependently(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.Human)
	connA := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "human"})
	close(connA.in)
	connB := newFakeConn()

	cfg := zeroDelayConfig()
	RunH2H(context.Background(), connA, connB, commitment, nil, "", cfg)

	endA, ok := findEnd(connA.frames())
	require.True(t, ok)
	assert.True(t, endA.Correct)
	assert.Equal(t, cfg.ScoreCorrect, endA.ScoreDelta)

	// correct is shared across both ends — only score_delta is per-side,
	// since only the guessing side's score actually changed (spec §8
	// scenario 2: both ends receive end{reason:"guess", correct:true}).
	endB, ok := findEnd(connB.frames())
	require.True(t, ok)
	assert.True(t, endB.Correct)
	assert.Equal(t, 0, endB.ScoreDelta)
}

func TestRunH2HFallsBackToAIWhenPeerUnreachable(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.Human)
	connA := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "ai"})
	close(connA.in)
	failing := &failingWriteConn{}

	cfg := zeroDelayConfig()
	RunH2H(context.Background(), connA, failing, commitment, nil, "", cfg)

	frames := connA.frames()
	var starts []wire.MatchStart
	for _, f := range frames {
		if start, ok := f.(wire.MatchStart); ok {
			starts = append(starts, start)
		}
	}
	require.NotEmpty(t, starts)
	last := starts[len(starts)-1]
	assert.Equal(t, "AI", last.Opponent, "surviving side should be degraded to an AI opponent")
}

type failingWriteConn struct{}

func (failingWriteConn) ReadJSON(v any) error  { return io.EOF }
func (failingWriteConn) WriteJSON(v any) error { return io.ErrClosedPipe }
func (failingWriteConn) Close() error          { return nil }

// TestRunAIFrameOrderingMatchStartFirstEndLastAndUnique checks P2: match_start
// precedes every other frame, end occurs at most once and nothing follows it.
func TestRunAIFrameOrderingMatchStartFirstEndLastAndUnique(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.AI)
	conn := newFakeConn(
		wire.Inbound{Type: wire.TypeChat, Text: "hi"},
		wire.Inbound{Type: wire.TypeState},
		wire.Inbound{Type: wire.TypeGuess, Guess: "ai"},
	)
	close(conn.in)

	RunAI(context.Background(), conn, commitment, nil, "", zeroDelayConfig())

	frames := conn.frames()
	require.NotEmpty(t, frames)
	_, isStart := frames[0].(wire.MatchStart)
	assert.True(t, isStart, "first frame must be match_start")

	endCount := 0
	for i, f := range frames {
		if _, ok := f.(wire.End); ok {
			endCount++
			assert.Equal(t, len(frames)-1, i, "end must be the last frame")
		}
	}
	assert.Equal(t, 1, endCount, "end must occur at most once")
}

// TestRunH2HOutOfTurnChatIsDropped checks P3: an inbound chat accepted while
// it is not the sender's turn must not be echoed to either side, and must
// not advance the turn.
func TestRunH2HOutOfTurnChatIsDropped(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.Human)
	connA := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "human"})
	close(connA.in)
	connB := newFakeConn(wire.Inbound{Type: wire.TypeChat, Text: "out of turn"})
	close(connB.in)

	RunH2H(context.Background(), connA, connB, commitment, nil, "", zeroDelayConfig())

	for _, f := range connA.frames() {
		if chat, ok := f.(wire.Chat); ok {
			assert.NotEqual(t, "out of turn", chat.Text, "B's out-of-turn chat must not reach A")
		}
	}
	for _, f := range connB.frames() {
		if chat, ok := f.(wire.Chat); ok {
			assert.NotEqual(t, "out of turn", chat.Text, "B's out-of-turn chat must not echo back to B")
		}
	}
}

// TestRunH2HBothSidesSeeRoleAAndHumanOpponent checks P9: in H2H, both clients
// observe role="A" and opponent="HUMAN" in match_start, since neither side
// is told it is "B" — "A" denotes self, not seating order.
func TestRunH2HBothSidesSeeRoleAAndHumanOpponent(t *testing.T) {
	commitment := commitreveal.NewCommitment(commitreveal.Human)
	connA := newFakeConn(wire.Inbound{Type: wire.TypeGuess, Guess: "human"})
	close(connA.in)
	connB := newFakeConn()
	close(connB.in)

	RunH2H(context.Background(), connA, connB, commitment, nil, "", zeroDelayConfig())

	framesA := connA.frames()
	require.NotEmpty(t, framesA)
	startA, ok := framesA[0].(wire.MatchStart)
	require.True(t, ok)
	assert.Equal(t, "A", startA.Role)
	assert.Equal(t, "HUMAN", startA.Opponent)

	framesB := connB.frames()
	require.NotEmpty(t, framesB)
	startB, ok := framesB[0].(wire.MatchStart)
	require.True(t, ok)
	assert.Equal(t, "A", startB.Role)
	assert.Equal(t, "HUMAN", startB.Opponent)
}
