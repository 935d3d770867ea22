// Package storelog persists a write-mostly log of finished sessions to
// sqlite, and serves the small aggregate query /pool/stats needs. It is a
// trim of the reference backend's internal/database package: the debates,
// topics, arguments, scores and votes tables are dropped entirely since this
// module has no argument-scoring domain, and the file-based migration
// runner is dropped in favor of one inline schema, since there is exactly
// one table and it never needs to evolve independently of this package.
package storelog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/neo/turingwire/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_log (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	opponent_type    TEXT NOT NULL,
	persona_name     TEXT,
	total_messages   INTEGER NOT NULL DEFAULT 0,
	guess            TEXT,
	guess_correct    INTEGER NOT NULL DEFAULT 0,
	reveal_happened  INTEGER NOT NULL DEFAULT 0,
	score_delta      INTEGER NOT NULL DEFAULT 0,
	started_at       TIMESTAMP NOT NULL,
	ended_at         TIMESTAMP NOT NULL
);
`

// Store is a write-mostly sqlite log of finished sessions.
type Store struct {
	db *sql.DB
}

// SessionRecord is one finished session, logged once at teardown.
type SessionRecord struct {
	SessionID      string
	OpponentType   string // "ai" | "human"
	PersonaName    string
	TotalMessages  int
	Guess          string
	GuessCorrect   bool
	RevealHappened bool
	ScoreDelta     int
	StartedAt      time.Time
	EndedAt        time.Time
}

// Stats summarizes every logged session, grounded in the reference
// backend's analyze_sessions aggregate.
type Stats struct {
	TotalSessions         int     `json:"total_sessions"`
	AIOpponentSessions    int     `json:"ai_opponent_sessions"`
	HumanOpponentSessions int     `json:"human_opponent_sessions"`
	CorrectGuesses        int     `json:"correct_guesses"`
	IncorrectGuesses      int     `json:"incorrect_guesses"`
	TotalMessages         int     `json:"total_messages"`
	AvgMessagesPerSession float64 `json:"avg_messages_per_session"`
	GuessAccuracy         float64 `json:"guess_accuracy"`
}

// New opens (and creates, if needed) the sqlite file under dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply session_log schema: %v", err)
	}

	logging.Info("session store initialized", map[string]interface{}{"db_path": dbPath})
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// InsertSessionLog fire-and-forget writes a finished session. Callers run
// this from session teardown and only log the error; a lost audit row is
// never worth failing or delaying the socket close over.
func (s *Store) InsertSessionLog(rec SessionRecord) error {
	logging.LogDatabaseEvent("INSERT", "session_log", map[string]interface{}{
		"session_id":    rec.SessionID,
		"opponent_type": rec.OpponentType,
	})

	query := `INSERT INTO session_log
		(session_id, opponent_type, persona_name, total_messages, guess, guess_correct, reveal_happened, score_delta, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		rec.SessionID, rec.OpponentType, rec.PersonaName, rec.TotalMessages, rec.Guess,
		boolToInt(rec.GuessCorrect), boolToInt(rec.RevealHappened), rec.ScoreDelta,
		rec.StartedAt, rec.EndedAt,
	)
	if err != nil {
		logging.Error("failed to insert session log", map[string]interface{}{
			"error":      err,
			"session_id": rec.SessionID,
		})
		return fmt.Errorf("failed to insert session log for %s: %v", rec.SessionID, err)
	}
	return nil
}

// Stats computes the pool-wide aggregate served by /pool/stats.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN opponent_type = 'ai' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN opponent_type = 'human' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reveal_happened = 1 AND guess_correct = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reveal_happened = 1 AND guess_correct = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(total_messages), 0)
		FROM session_log`)

	if err := row.Scan(
		&stats.TotalSessions, &stats.AIOpponentSessions, &stats.HumanOpponentSessions,
		&stats.CorrectGuesses, &stats.IncorrectGuesses, &stats.TotalMessages,
	); err != nil {
		return Stats{}, fmt.Errorf("failed to compute session stats: %v", err)
	}

	if stats.TotalSessions > 0 {
		stats.AvgMessagesPerSession = float64(stats.TotalMessages) / float64(stats.TotalSessions)
	}
	if decided := stats.CorrectGuesses + stats.IncorrectGuesses; decided > 0 {
		stats.GuessAccuracy = float64(stats.CorrectGuesses) / float64(decided)
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
