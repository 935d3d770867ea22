// Package commitreveal binds the opponent-type assignment at session start
// and opens it at session end, so a client (or auditor) can recompute the
// hash after the fact and confirm the assignment was never retroactively
// changed.
package commitreveal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// OpponentType is the identity bound by a Commitment.
type OpponentType string

const (
	Human OpponentType = "HUMAN"
	AI    OpponentType = "AI"
)

// Commitment is the hash binding plus the eventually-revealed tuple that
// reproduces it.
type Commitment struct {
	OpponentType OpponentType
	Nonce        string
	TsMs         int64
	Hash         string
}

// Reveal is the subset of Commitment sent to clients in the end frame.
type Reveal struct {
	OpponentType OpponentType `json:"opponent_type"`
	Nonce        string       `json:"nonce"`
	CommitTs     int64        `json:"commit_ts"`
}

func (c Commitment) Reveal() Reveal {
	return Reveal{OpponentType: c.OpponentType, Nonce: c.Nonce, CommitTs: c.TsMs}
}

func hashOf(opp OpponentType, nonce string, tsMs int64) string {
	payload := fmt.Sprintf("%s|%s|%d", opp, nonce, tsMs)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// NewCommitment mints a fresh 128-bit nonce, captures the current wall-clock
// millisecond timestamp, and computes the binding hash. The hash is computed
// once here and never mutated afterward.
func NewCommitment(opp OpponentType) Commitment {
	nonce := randomHex(16)
	tsMs := time.Now().UnixMilli()
	return Commitment{
		OpponentType: opp,
		Nonce:        nonce,
		TsMs:         tsMs,
		Hash:         hashOf(opp, nonce, tsMs),
	}
}

// Verify recomputes the hash from a revealed tuple and compares it against
// the hash sent at match_start.
func Verify(hash string, opp OpponentType, nonce string, tsMs int64) bool {
	return hashOf(opp, nonce, tsMs) == hash
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("commitreveal: failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
