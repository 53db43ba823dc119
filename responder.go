package agrichat

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Desarso/agrichat/stores"
)

// Chatter runs one retrieval-augmented turn against supplied history.
// knowledge.Manager is the production implementation.
type Chatter interface {
	Chat(ctx context.Context, query string, history []stores.ChatPair) (string, error)
}

// Responder composes the conversation log with the knowledge manager into one
// chat turn: read history, generate, persist. It is stateless across turns;
// every turn re-reads the full history.
type Responder struct {
	Knowledge Chatter
	Chats     stores.ChatStore
}

// NewResponder creates a responder over the given collaborators.
func NewResponder(knowledge Chatter, chats stores.ChatStore) *Responder {
	return &Responder{Knowledge: knowledge, Chats: chats}
}

// GenerateResponse answers one user message within a namespace and appends the
// completed turn to the log. A failed turn persists nothing: the append only
// happens after the model call succeeds.
func (r *Responder) GenerateResponse(ctx context.Context, namespace, text string) (string, error) {
	history, err := r.Chats.RetrieveAllMessages(namespace)
	if err != nil {
		return "", fmt.Errorf("failed to read conversation history: %w", err)
	}

	answer, err := r.Knowledge.Chat(ctx, text, history)
	if err != nil {
		return "", err
	}

	if err := r.Chats.AddMessage(namespace, text, answer); err != nil {
		log.Error().Err(err).Str("namespace", namespace).Msg("Failed to persist completed turn")
		return "", fmt.Errorf("failed to persist turn: %w", err)
	}

	return answer, nil
}
