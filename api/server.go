// Package api exposes the engine over HTTP and WebSocket.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	nocturne "github.com/taboocollar/whole-life-inc"
)

// Server wraps a dialogue engine with an HTTP surface.
type Server struct {
	engine *nocturne.Engine
}

// NewServer creates a server over the given engine.
func NewServer(engine *nocturne.Engine) *Server {
	return &Server{engine: engine}
}

// Router builds the gin router with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", s.handleHealth)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/sessions", s.handleStartSession)
		apiGroup.POST("/sessions/:id/turn", s.handleTurn)
		apiGroup.GET("/sessions/:id", s.handleGetSession)
		apiGroup.DELETE("/sessions/:id", s.handleEndSession)

		apiGroup.GET("/profiles/:userID", s.handleGetProfile)
		apiGroup.POST("/profiles/:userID/boundaries", s.handleAddBoundary)
		apiGroup.POST("/profiles/:userID/safewords", s.handleAddSafeword)
	}

	r.GET("/ws/sessions/:id", s.handleWebSocket)
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"time":            time.Now().UTC(),
		"turns_processed": s.engine.TurnsProcessed.Load(),
		"sessions_live":   s.engine.SessionsStarted.Load() - s.engine.SessionsFinished.Load(),
	})
}

type startSessionRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Context string `json:"context"`
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := s.engine.StartSession(req.UserID, req.Context)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session":  sess,
		"greeting": s.engine.Greet(sess, time.Now()),
	})
}

func (s *Server) handleTurn(c *gin.Context) {
	var input nocturne.TurnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.engine.ProcessTurn(c.Param("id"), input)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.engine.GetSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleEndSession(c *gin.Context) {
	s.engine.EndSession(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	profile, err := s.engine.Store().Get(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type addBoundaryRequest struct {
	Category string `json:"category" binding:"required"`
	Item     string `json:"item" binding:"required"`
	Hard     bool   `json:"hard"`
	Notes    string `json:"notes"`
}

func (s *Server) handleAddBoundary(c *gin.Context) {
	var req addBoundaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := s.engine.Store().Update(c.Param("userID"), func(p *nocturne.UserProfile) {
		if req.Hard {
			p.AddHardLimit(req.Category, req.Item, req.Notes)
		} else {
			p.AddSoftLimit(req.Category, req.Item, req.Notes)
		}
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type addSafewordRequest struct {
	Word string `json:"word" binding:"required"`
}

func (s *Server) handleAddSafeword(c *gin.Context) {
	var req addSafewordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	word := strings.ToLower(strings.TrimSpace(req.Word))
	if word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty safeword"})
		return
	}
	profile, err := s.engine.Store().Update(c.Param("userID"), func(p *nocturne.UserProfile) {
		for _, w := range p.CustomSafewords {
			if w == word {
				return
			}
		}
		p.CustomSafewords = append(p.CustomSafewords, word)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}
