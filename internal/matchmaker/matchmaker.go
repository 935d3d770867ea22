// Package matchmaker implements C8 (spec §4.8): the probabilistic pairing
// engine that turns a stream of match requests into either human-vs-human
// pairs or reserved AI opponents, using a cryptographic commit so neither
// side can infer opponent type before committing to play.
package matchmaker

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neo/turingwire/internal/clock"
	"github.com/neo/turingwire/internal/commitreveal"
	"github.com/neo/turingwire/internal/logging"
)

// Status is a ticket's lifecycle state. It progresses monotonically:
// PENDING -> (ReadyAI | ReadyH2H | Canceled); once non-pending it never
// returns to pending.
type Status string

const (
	Pending    Status = "pending"
	ReadyAI    Status = "ready_ai"
	ReadyH2H   Status = "ready_h2h"
	Canceled   Status = "canceled"
	StatusGone Status = "gone"
)

// Config holds the tunables named in spec §6.
type Config struct {
	H2HProb     float64
	MatchWindow time.Duration
}

// DefaultConfig matches spec §6's defaults.
func DefaultConfig() Config {
	return Config{H2HProb: 0.5, MatchWindow: 10 * time.Second}
}

// pendingReq mirrors the original's PendingReq: a ticket awaiting
// resolution, plus whatever commit-reveal material resolution attaches.
type pendingReq struct {
	ticket     string
	token      string
	createdAt  time.Time
	expiresAt  time.Time
	status     Status
	reservedAI bool
	pairID     string
	commitment *commitreveal.Commitment
}

// pairSlot is a live human-vs-human pairing awaiting both sockets.
type pairSlot struct {
	pairID   string
	aTicket  string
	bTicket  string
}

// StatusResult is what Status() and the HTTP /match/status handler return.
type StatusResult struct {
	Status     Status
	WSURL      string
	CommitHash string
	TimeLeft   float64
}

// Matchmaker owns the pending-request and pair-slot tables. Per spec §5 the
// canonical lock order is pending -> pairs; pendingMu is never acquired
// while pairsMu is held.
type Matchmaker struct {
	cfg Config
	clk clock.Clock
	rng func() float64 // swappable for deterministic tests

	pendingMu sync.RWMutex
	pending   map[string]*pendingReq

	pairsMu sync.Mutex
	pairs   map[string]*pairSlot
}

// New builds a Matchmaker.
func New(cfg Config, clk clock.Clock) *Matchmaker {
	if clk == nil {
		clk = clock.Real
	}
	return &Matchmaker{
		cfg:     cfg,
		clk:     clk,
		rng:     rand.Float64,
		pending: make(map[string]*pendingReq),
		pairs:   make(map[string]*pairSlot),
	}
}

// Request creates a PendingReq for token (may be empty) and immediately
// attempts to pair it against the oldest eligible waiter.
func (m *Matchmaker) Request(token string) string {
	ticket := uuid.NewString()
	now := m.clk.Now()

	req := &pendingReq{
		ticket:    ticket,
		token:     token,
		createdAt: now,
		expiresAt: now.Add(m.cfg.MatchWindow),
		status:    Pending,
	}

	m.pendingMu.Lock()
	m.pending[ticket] = req
	m.tryPair(ticket)
	m.pendingMu.Unlock()

	return ticket
}

// tryPair scans for the oldest eligible pending request other than cur and,
// if found, resolves both via a coin flip weighted by H2HProb. Caller must
// hold pendingMu for writing.
func (m *Matchmaker) tryPair(cur string) {
	now := m.clk.Now()

	var candidate *pendingReq
	var oldest time.Time

	for t, req := range m.pending {
		if t == cur {
			continue
		}
		if req.status != Pending || req.reservedAI || !req.expiresAt.After(now) {
			continue
		}
		if candidate == nil || req.createdAt.Before(oldest) {
			candidate = req
			oldest = req.createdAt
		}
	}

	if candidate == nil {
		return
	}

	curReq := m.pending[cur]

	if m.rng() < m.cfg.H2HProb {
		pairID := uuid.NewString()
		curReq.status = ReadyH2H
		candidate.status = ReadyH2H
		curReq.pairID = pairID
		candidate.pairID = pairID

		for _, req := range []*pendingReq{curReq, candidate} {
			c := commitreveal.NewCommitment(commitreveal.Human)
			req.commitment = &c
		}

		m.pairsMu.Lock()
		m.pairs[pairID] = &pairSlot{pairID: pairID, aTicket: candidate.ticket, bTicket: cur}
		m.pairsMu.Unlock()

		logging.LogMatchEvent("ready_h2h", cur, map[string]interface{}{"pair_id": pairID, "peer_ticket": candidate.ticket})
		return
	}

	chosen := curReq
	if m.rng() < 0.5 {
		chosen = candidate
	}
	chosen.reservedAI = true
}

// Status resolves a ticket's status, mutating expired PENDING tickets to
// ReadyAI as a side effect (the only state mutation a read performs) per
// spec §4.8.
func (m *Matchmaker) Status(ticket string) StatusResult {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	req, ok := m.pending[ticket]
	if !ok {
		return StatusResult{Status: StatusGone}
	}

	switch req.status {
	case ReadyH2H:
		return StatusResult{
			Status:     ReadyH2H,
			WSURL:      fmt.Sprintf("/ws/pair?pair_id=%s&ticket=%s", req.pairID, req.ticket),
			CommitHash: req.commitment.Hash,
			TimeLeft:   timeLeftSeconds(req.expiresAt, m.clk.Now()),
		}
	case ReadyAI:
		return StatusResult{
			Status:     ReadyAI,
			WSURL:      fmt.Sprintf("/ws/match?ticket=%s", req.ticket),
			CommitHash: req.commitment.Hash,
			TimeLeft:   timeLeftSeconds(req.expiresAt, m.clk.Now()),
		}
	case Canceled:
		return StatusResult{Status: Canceled}
	}

	tl := timeLeftSeconds(req.expiresAt, m.clk.Now())
	if tl > 0 {
		return StatusResult{Status: Pending, TimeLeft: tl}
	}

	// Expired: resolve to AI regardless of reservedAI.
	req.status = ReadyAI
	c := commitreveal.NewCommitment(commitreveal.AI)
	req.commitment = &c
	return StatusResult{
		Status:     ReadyAI,
		WSURL:      fmt.Sprintf("/ws/match?ticket=%s", req.ticket),
		CommitHash: req.commitment.Hash,
		TimeLeft:   0,
	}
}

// Cancel cancels a pending or ready_h2h ticket. Idempotent (R1): canceling
// an already-canceled or unknown ticket is a no-op.
func (m *Matchmaker) Cancel(ticket string) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	req, ok := m.pending[ticket]
	if !ok {
		return
	}

	switch req.status {
	case Pending:
		req.status = Canceled
		logging.LogMatchEvent("canceled", ticket, nil)
	case ReadyH2H:
		pairID := req.pairID
		m.pairsMu.Lock()
		slot, exists := m.pairs[pairID]
		m.pairsMu.Unlock()

		if exists {
			otherTicket := slot.aTicket
			if slot.aTicket == ticket {
				otherTicket = slot.bTicket
			}
			if other, ok := m.pending[otherTicket]; ok && other.status == ReadyH2H {
				other.status = ReadyAI
				other.pairID = ""
				c := commitreveal.NewCommitment(commitreveal.AI)
				other.commitment = &c
			}
			m.pairsMu.Lock()
			delete(m.pairs, pairID)
			m.pairsMu.Unlock()
		}
		req.status = Canceled
		logging.LogMatchEvent("canceled", ticket, map[string]interface{}{"pair_id": pairID})
	default:
		// AI-resolved or already canceled: no-op.
	}
}

// Peer returns the ticket sharing a READY_H2H pair with ticket, used by the
// /ws/pair endpoint to check that the ticket is still paired.
func (m *Matchmaker) Peer(ticket string) (string, bool) {
	m.pendingMu.RLock()
	req, ok := m.pending[ticket]
	if !ok || req.status != ReadyH2H {
		m.pendingMu.RUnlock()
		return "", false
	}
	pairID := req.pairID
	m.pendingMu.RUnlock()

	m.pairsMu.Lock()
	slot, ok := m.pairs[pairID]
	m.pairsMu.Unlock()
	if !ok {
		return "", false
	}
	if slot.aTicket == ticket {
		return slot.bTicket, true
	}
	return slot.aTicket, true
}

// Commitment returns the resolved commitment for a ticket, if any.
func (m *Matchmaker) Commitment(ticket string) (commitreveal.Commitment, bool) {
	m.pendingMu.RLock()
	defer m.pendingMu.RUnlock()
	req, ok := m.pending[ticket]
	if !ok || req.commitment == nil {
		return commitreveal.Commitment{}, false
	}
	return *req.commitment, true
}

// Token returns the pool token a ticket was requested with, used by the
// endpoint shims to evict it from the pool the moment the ticket is
// consumed (spec §4.7: "removed from the pool the moment their owning
// ticket transitions to READY_*").
func (m *Matchmaker) Token(ticket string) (string, bool) {
	m.pendingMu.RLock()
	defer m.pendingMu.RUnlock()
	req, ok := m.pending[ticket]
	if !ok {
		return "", false
	}
	return req.token, true
}

func timeLeftSeconds(deadline, now time.Time) float64 {
	left := deadline.Sub(now).Seconds()
	if left < 0 {
		return 0
	}
	return left
}
