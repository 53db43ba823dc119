package sessions

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// Responder generates one assistant reply for a namespace. The root package's
// Responder is the production implementation.
type Responder interface {
	GenerateResponse(ctx context.Context, namespace, text string) (string, error)
}

// ChatRequest is an incoming websocket frame carrying one user message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is an outgoing websocket frame.
type ChatResponse struct {
	Type     string `json:"type"` // "message" | "error" | "done"
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocketWriter handles all WebSocket communication for one session.
// Writes are serialized; gorilla connections do not allow concurrent writers.
type WebSocketWriter struct {
	Conn *websocket.Conn
	mu   sync.Mutex
}

func (w *WebSocketWriter) WriteResponse(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(ChatResponse{Type: "message", Response: text})
}

func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(ChatResponse{Type: "error", Error: message})
}

func (w *WebSocketWriter) WriteDone() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(ChatResponse{Type: "done"})
}
