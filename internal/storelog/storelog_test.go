package storelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertSessionLogAndStatsEmpty(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSessions)
	assert.Equal(t, float64(0), stats.GuessAccuracy)
}

func TestStatsAggregatesAcrossSessions(t *testing.T) {
	store := newTestStore(t)
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, store.InsertSessionLog(SessionRecord{
		SessionID: "s1", OpponentType: "ai", TotalMessages: 10,
		Guess: "ai", GuessCorrect: true, RevealHappened: true, ScoreDelta: 100,
		StartedAt: now, EndedAt: now.Add(time.Minute),
	}))
	require.NoError(t, store.InsertSessionLog(SessionRecord{
		SessionID: "s2", OpponentType: "human", TotalMessages: 6,
		Guess: "ai", GuessCorrect: false, RevealHappened: true, ScoreDelta: -200,
		StartedAt: now, EndedAt: now.Add(time.Minute),
	}))
	require.NoError(t, store.InsertSessionLog(SessionRecord{
		SessionID: "s3", OpponentType: "ai", TotalMessages: 4,
		RevealHappened: false,
		StartedAt:      now, EndedAt: now.Add(30 * time.Second),
	}))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 2, stats.AIOpponentSessions)
	assert.Equal(t, 1, stats.HumanOpponentSessions)
	assert.Equal(t, 1, stats.CorrectGuesses)
	assert.Equal(t, 1, stats.IncorrectGuesses)
	assert.Equal(t, 20, stats.TotalMessages)
	assert.InDelta(t, 6.667, stats.AvgMessagesPerSession, 0.01)
	assert.InDelta(t, 0.5, stats.GuessAccuracy, 0.001)
}
