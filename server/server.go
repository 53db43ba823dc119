// Package server exposes the assistant over HTTP and WebSocket using gin.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Desarso/agrichat"
	"github.com/Desarso/agrichat/knowledge"
	"github.com/Desarso/agrichat/stores"
	"github.com/Desarso/agrichat/transcribe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server ties the store, knowledge manager and responder to HTTP routes.
type Server struct {
	Store       stores.Store
	Responder   *agrichat.Responder
	Knowledge   *knowledge.Manager
	Transcriber *transcribe.WhisperTranscriber

	router *gin.Engine
}

// NewServer builds the router with all routes registered.
func NewServer(store stores.Store, responder *agrichat.Responder, km *knowledge.Manager, transcriber *transcribe.WhisperTranscriber) *Server {
	s := &Server{
		Store:       store,
		Responder:   responder,
		Knowledge:   km,
		Transcriber: transcriber,
	}

	router := gin.Default()
	router.GET("/health", s.handleHealth)

	r := router.Group("/api/v1")
	r.POST("/chat/:namespace", s.handleChat)
	r.POST("/chat/voice/:namespace", s.handleVoiceChat)
	r.GET("/ws/chat/:namespace", s.handleWebSocketChat)

	r.POST("/files", s.handleUploadFile)
	r.GET("/files", s.handleListFiles)
	r.GET("/files/:filename", s.handleGetFile)
	r.PATCH("/files/:filename", s.handleUpdateFile)
	r.DELETE("/files/:filename", s.handleDeleteFile)
	r.DELETE("/files", s.handleDeleteAllFiles)

	s.router = router
	return s
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting server")
	return s.router.Run(addr)
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.Store.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
