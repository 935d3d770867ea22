package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/neo/turingwire/internal/logging"
	"github.com/neo/turingwire/internal/session"
	"github.com/neo/turingwire/internal/storelog"
	"github.com/neo/turingwire/internal/wire"
)

// handleWSMatch implements the "join session" shim (spec §4.10): resolve
// the ticket's READY_AI commitment, drop its pool token, and run an
// A-vs-bot session on the upgraded connection.
func (s *Server) handleWSMatch(c *gin.Context) {
	ticket, ok := s.unsignToken("ticket", c.Query("ticket"))
	if !ok {
		c.AbortWithStatus(http.StatusGone)
		return
	}
	status := s.matchmaker.Status(ticket)
	if status.Status != "ready_ai" {
		c.AbortWithStatus(http.StatusGone)
		return
	}
	commitment, ok := s.matchmaker.Commitment(ticket)
	if !ok {
		c.AbortWithStatus(http.StatusGone)
		return
	}
	if token, ok := s.matchmaker.Token(ticket); ok {
		s.pool.Leave(token)
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("ws/match upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer ws.Close()

	conn := newRecordingConn(ws)
	startedAt := time.Now()

	session.RunAI(context.Background(), conn, commitment, s.llm, s.cfg.LLMModel, s.sessionConfig())

	s.logSession(conn, startedAt)
}

// pairRoom is a rendezvous point for the two sides of an H2H pairing. The
// first socket to arrive blocks on done; the second drives RunH2H for both
// sockets and closes done when finished, matching spec §5's "processor is
// the sole writer to session state" — here the second arrival is that
// processor.
type pairRoom struct {
	mu   sync.Mutex
	conn session.Conn
	done chan struct{}
}

func (s *Server) roomFor(pairID string) *pairRoom {
	s.pairRoomMu.Lock()
	defer s.pairRoomMu.Unlock()
	if r, ok := s.pairRooms[pairID]; ok {
		return r
	}
	r := &pairRoom{done: make(chan struct{})}
	s.pairRooms[pairID] = r
	return r
}

func (s *Server) dropRoom(pairID string) {
	s.pairRoomMu.Lock()
	delete(s.pairRooms, pairID)
	s.pairRoomMu.Unlock()
}

// handleWSPair implements the "join pair" shim (spec §4.10).
func (s *Server) handleWSPair(c *gin.Context) {
	pairID := c.Query("pair_id")
	ticket, ok := s.unsignToken("ticket", c.Query("ticket"))
	if !ok {
		c.AbortWithStatus(http.StatusGone)
		return
	}

	if _, ok := s.matchmaker.Peer(ticket); !ok {
		c.AbortWithStatus(http.StatusGone)
		return
	}
	commitment, ok := s.matchmaker.Commitment(ticket)
	if !ok {
		c.AbortWithStatus(http.StatusGone)
		return
	}
	if token, ok := s.matchmaker.Token(ticket); ok {
		s.pool.Leave(token)
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("ws/pair upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	conn := newRecordingConn(ws)
	startedAt := time.Now()

	room := s.roomFor(pairID)

	room.mu.Lock()
	if room.conn == nil {
		room.conn = conn
		room.mu.Unlock()

		<-room.done
		ws.Close()
		return
	}
	peerConn := room.conn
	room.mu.Unlock()
	s.dropRoom(pairID)

	// This goroutine is the second arrival; it drives the session for both
	// sides and is the only goroutine that ever mutates session state,
	// per spec §5.
	defer close(room.done)
	defer ws.Close()
	defer peerConn.Close()

	session.RunH2H(context.Background(), peerConn, conn, commitment, s.llm, s.cfg.LLMModel, s.sessionConfig())

	if rc, ok := peerConn.(*recordingConn); ok {
		s.logSession(rc, startedAt)
	}
	s.logSession(conn, startedAt)
}

// handleWSWait accepts the upgrade and reads and discards frames until the
// client disconnects. It does not read a token, keeps no waiting table and
// never pairs or wakes the connection.
func (s *Server) handleWSWait(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	for {
		var in wire.Inbound
		if err := ws.ReadJSON(&in); err != nil {
			return
		}
	}
}

// recordingConn wraps a session.Conn to capture the summary storelog needs
// at teardown, without the session drivers themselves knowing storelog
// exists.
type recordingConn struct {
	session.Conn
	mu             sync.Mutex
	opponentType   string
	personaName    string
	messages       int
	guess          string
	guessCorrect   bool
	revealHappened bool
	scoreDelta     int
}

func newRecordingConn(c session.Conn) *recordingConn {
	return &recordingConn{Conn: c}
}

func (r *recordingConn) WriteJSON(v any) error {
	r.mu.Lock()
	switch frame := v.(type) {
	case wire.MatchStart:
		r.opponentType = strings.ToLower(frame.Opponent)
		r.personaName = frame.PersonaName
	case wire.Chat:
		r.messages++
	case wire.End:
		r.revealHappened = frame.Reason == "guess"
		r.guessCorrect = frame.Correct
		r.scoreDelta = frame.ScoreDelta
		if frame.Reason == "guess" {
			// the guess itself isn't carried on the frame; derive it from
			// whether it matched the revealed truth.
			truth := frame.Reveal.OpponentType
			if frame.Correct {
				r.guess = truth
			} else if truth == "AI" {
				r.guess = "HUMAN"
			} else {
				r.guess = "AI"
			}
		}
	}
	r.mu.Unlock()
	return r.Conn.WriteJSON(v)
}

func (s *Server) logSession(conn *recordingConn, startedAt time.Time) {
	if s.store == nil {
		return
	}
	conn.mu.Lock()
	rec := storelog.SessionRecord{
		SessionID:      sessionID(),
		OpponentType:   conn.opponentType,
		PersonaName:    conn.personaName,
		TotalMessages:  conn.messages,
		Guess:          conn.guess,
		GuessCorrect:   conn.guessCorrect,
		RevealHappened: conn.revealHappened,
		ScoreDelta:     conn.scoreDelta,
		StartedAt:      startedAt,
		EndedAt:        time.Now(),
	}
	conn.mu.Unlock()

	go func() {
		if err := s.store.InsertSessionLog(rec); err != nil {
			logging.Error("failed to log session", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func sessionID() string {
	return uuid.NewString()
}
