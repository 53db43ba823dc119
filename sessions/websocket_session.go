package sessions

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ApologyMessage is the generic failure reply shown to end users. Internal
// error text never crosses the boundary.
const ApologyMessage = "Sorry, I couldn't process that."

// ChatSession drives one websocket conversation. The namespace scopes the
// persisted history; the session itself holds no turn state.
type ChatSession struct {
	SessionID string
	Namespace string
	Responder Responder
	Writer    *WebSocketWriter
	Logger    zerolog.Logger
}

// NewChatSession creates a session for an accepted websocket connection.
func NewChatSession(namespace string, conn *websocket.Conn, responder Responder) *ChatSession {
	sessionID := uuid.NewString()
	return &ChatSession{
		SessionID: sessionID,
		Namespace: namespace,
		Responder: responder,
		Writer:    &WebSocketWriter{Conn: conn},
		Logger:    log.With().Str("session", sessionID).Str("namespace", namespace).Logger(),
	}
}

// Run reads user messages until the client disconnects, answering each one as
// a full chat turn. A failed turn sends the apology and keeps the session
// alive; nothing is persisted for failed turns.
func (s *ChatSession) Run(ctx context.Context) error {
	s.Logger.Info().Msg("Chat session started")
	defer s.Logger.Info().Msg("Chat session closed")

	for {
		var req ChatRequest
		if err := s.Writer.Conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Warn().Err(err).Msg("Websocket closed unexpectedly")
			}
			return nil
		}
		if req.Message == "" {
			continue
		}

		answer, err := s.Responder.GenerateResponse(ctx, s.Namespace, req.Message)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Turn failed")
			if werr := s.Writer.WriteError(ApologyMessage); werr != nil {
				return werr
			}
			continue
		}

		if err := s.Writer.WriteResponse(answer); err != nil {
			return err
		}
		if err := s.Writer.WriteDone(); err != nil {
			return err
		}
	}
}
