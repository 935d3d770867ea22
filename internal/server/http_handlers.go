package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"env":     s.cfg.AppEnv,
		"version": s.cfg.AppVersion,
	})
}

func (s *Server) handlePoolCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.pool.Count()})
}

// handlePoolJoin signs the raw presence token before handing it to the
// client (spec §6), so a later /pool/leave can be integrity-checked without
// this server keeping a token table that would need to survive a restart.
func (s *Server) handlePoolJoin(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)

	rawIn := ""
	if req.Token != "" {
		if raw, ok := s.unsignToken("pool", req.Token); ok {
			rawIn = raw
		}
	}

	created := rawIn == ""
	rawOut := s.pool.Join(rawIn)
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"token":   s.signToken("pool", rawOut),
		"created": created,
		"count":   s.pool.Count(),
	})
}

func (s *Server) handlePoolLeave(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)
	if raw, ok := s.unsignToken("pool", req.Token); ok {
		s.pool.Leave(raw)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handlePoolStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleMatchRequest(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)

	rawPoolToken := ""
	if req.Token != "" {
		if raw, ok := s.unsignToken("pool", req.Token); ok {
			rawPoolToken = raw
		}
	}

	rawTicket := s.matchmaker.Request(rawPoolToken)
	// expires_at is the absolute deadline, unlike /match/status's relative
	// time_left fields; the match window starts now regardless of whether
	// Request immediately resolved the ticket.
	expiresAt := time.Now().Add(s.cfg.MatchWindow)
	c.JSON(http.StatusOK, gin.H{
		"ticket":     s.signToken("ticket", rawTicket),
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

func (s *Server) handleMatchStatus(c *gin.Context) {
	signedTicket := c.Query("ticket")
	rawTicket, ok := s.unsignToken("ticket", signedTicket)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "gone"})
		return
	}
	status := s.matchmaker.Status(rawTicket)

	switch status.Status {
	case "ready_h2h", "ready_ai":
		// status.WSURL embeds the raw ticket the matchmaker knows about;
		// swap in the signed ticket the client actually holds so /ws/match
		// and /ws/pair see the same signed form /match/status handed back.
		wsURL := strings.Replace(status.WSURL, rawTicket, signedTicket, 1)
		c.JSON(http.StatusOK, gin.H{
			"status":      string(status.Status),
			"ws_url":      wsURL,
			"commit_hash": status.CommitHash,
			"time_left":   status.TimeLeft,
		})
	case "pending":
		c.JSON(http.StatusOK, gin.H{"status": "pending", "time_left": status.TimeLeft})
	case "canceled":
		c.JSON(http.StatusOK, gin.H{"status": "canceled"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "gone"})
	}
}

func (s *Server) handleMatchCancel(c *gin.Context) {
	var req struct {
		Ticket string `json:"ticket"`
	}
	_ = c.ShouldBindJSON(&req)
	if raw, ok := s.unsignToken("ticket", req.Ticket); ok {
		s.matchmaker.Cancel(raw)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
