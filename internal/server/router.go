package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/neo/turingwire/internal/auth"
	"github.com/neo/turingwire/internal/llmclient"
	"github.com/neo/turingwire/internal/matchmaker"
	"github.com/neo/turingwire/internal/pool"
	"github.com/neo/turingwire/internal/session"
	"github.com/neo/turingwire/internal/storelog"
)

// Server wires the pool, matchmaker, session runtime and session store
// behind gin's HTTP router, the way the teacher's Server wires agents,
// scorer and database behind the same router.
type Server struct {
	router *gin.Engine
	cfg    Config

	pool       *pool.Registry
	matchmaker *matchmaker.Matchmaker
	store      *storelog.Store
	llm        llmclient.Client
	signer     *auth.Signer

	pairRoomMu sync.Mutex
	pairRooms  map[string]*pairRoom
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// NewServer assembles the gin engine and registers every route named in
// spec §6. llm may be nil, in which case bot replies always fall back to
// the local canned responder.
func NewServer(cfg Config, mm *matchmaker.Matchmaker, pr *pool.Registry, store *storelog.Store, llm llmclient.Client) *Server {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(ErrorHandler())
	router.Use(corsMiddleware(cfg.CORSOrigin))

	s := &Server{
		router:     router,
		cfg:        cfg,
		pool:       pr,
		matchmaker: mm,
		store:      store,
		llm:        llm,
		signer:     auth.New(auth.Config{Secret: cfg.JWTSecret}),
		pairRooms:  make(map[string]*pairRoom),
	}

	router.GET("/health", s.handleHealth)
	router.GET("/pool/count", s.handlePoolCount)
	router.POST("/pool/join", s.handlePoolJoin)
	router.POST("/pool/leave", s.handlePoolLeave)
	router.GET("/pool/stats", s.handlePoolStats)
	router.POST("/match/request", s.handleMatchRequest)
	router.GET("/match/status", s.handleMatchStatus)
	router.POST("/match/cancel", s.handleMatchCancel)

	router.GET("/ws/match", s.handleWSMatch)
	router.GET("/ws/pair", s.handleWSPair)
	router.GET("/ws/wait", s.handleWSWait)

	return s
}

func (s *Server) Engine() *gin.Engine { return s.router }

// Run starts the HTTP server. The teacher additionally offered an HTTP/3
// path (runHTTPS); this module has no TLS/HTTP3 requirement so only the
// plain HTTP listener is kept.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// sessionConfig translates the server's environment-driven Config into the
// session package's Config, the two layers a separate type for the same
// reason the teacher kept server.Config and agent.AgentConfig distinct.
func (s *Server) sessionConfig() session.Config {
	return session.Config{
		RoundLimit:       s.cfg.RoundLimit,
		TurnLimit:        s.cfg.TurnLimit,
		ScoreCorrect:     s.cfg.ScoreCorrect,
		ScoreWrong:       s.cfg.ScoreWrong,
		ScoreTimeoutWin:  s.cfg.ScoreTimeoutWin,
		HumanizeMinDelay: s.cfg.HumanizeMinDelay,
		HumanizeMaxDelay: s.cfg.HumanizeMaxDelay,
		AppVersion:       s.cfg.AppVersion,
		BaseMaxWords:     s.cfg.LLMMaxWords,
		BaseTemperature:  s.cfg.LLMTemperature,
		HistoryTail:      s.cfg.LLMHistoryTail,
		BaseTypoRate:     s.cfg.HumanizeTypoRate,
		MaxTypos:         s.cfg.HumanizeMaxTypos,
	}
}

// signToken wraps a raw pool/matchmaker identifier in an HS256-signed
// opaque string, so it round-trips through a client without a server-side
// lookup table. Falls back to the raw value on sign failure, which cannot
// happen with the fixed HMAC signer but keeps the call site panic-free.
func (s *Server) signToken(purpose, raw string) string {
	signed, err := s.signer.Sign(purpose, raw)
	if err != nil {
		return raw
	}
	return signed
}

// unsignToken recovers the raw identifier from a signed token, rejecting
// tokens that are malformed, expired, or signed for a different purpose.
func (s *Server) unsignToken(purpose, signed string) (string, bool) {
	claims, err := s.signer.VerifyPurpose(signed, purpose)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

func corsMiddleware(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
