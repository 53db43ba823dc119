package agrichat

import (
	"context"
	"errors"
	"testing"

	"github.com/Desarso/agrichat/stores"
)

type fakeChatter struct {
	answer      string
	err         error
	gotQuery    string
	gotHistory  []stores.ChatPair
}

func (f *fakeChatter) Chat(ctx context.Context, query string, history []stores.ChatPair) (string, error) {
	f.gotQuery = query
	f.gotHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeChatStore struct {
	pairs      map[string][]stores.ChatPair
	retrieveErr error
	appendErr   error
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{pairs: make(map[string][]stores.ChatPair)}
}

func (f *fakeChatStore) AddMessage(namespace, humanMessage, aiMessage string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.pairs[namespace] = append(f.pairs[namespace], stores.ChatPair{Human: humanMessage, AI: aiMessage})
	return nil
}

func (f *fakeChatStore) RetrieveAllMessages(namespace string) ([]stores.ChatPair, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	return f.pairs[namespace], nil
}

func TestGenerateResponse_PersistsCompletedTurn(t *testing.T) {
	store := newFakeChatStore()
	responder := NewResponder(&fakeChatter{answer: "hello"}, store)

	answer, err := responder.GenerateResponse(context.Background(), "u1", "hi")
	if err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}
	if answer != "hello" {
		t.Errorf("Expected answer %q, got %q", "hello", answer)
	}

	turns := store.pairs["u1"]
	if len(turns) != 1 {
		t.Fatalf("Expected 1 persisted turn, got %d", len(turns))
	}
	if turns[0].Human != "hi" || turns[0].AI != "hello" {
		t.Errorf("Unexpected persisted turn: %+v", turns[0])
	}
}

func TestGenerateResponse_FailedTurnPersistsNothing(t *testing.T) {
	store := newFakeChatStore()
	responder := NewResponder(&fakeChatter{err: errors.New("model down")}, store)

	if _, err := responder.GenerateResponse(context.Background(), "u1", "hi"); err == nil {
		t.Fatal("Expected error from failed turn")
	}
	if len(store.pairs["u1"]) != 0 {
		t.Errorf("Failed turn must not be persisted, found %d turns", len(store.pairs["u1"]))
	}
}

func TestGenerateResponse_HandsFullHistoryToTheChatter(t *testing.T) {
	store := newFakeChatStore()
	store.pairs["u1"] = []stores.ChatPair{
		{Human: "earlier", AI: "reply"},
	}
	chatter := &fakeChatter{answer: "next"}
	responder := NewResponder(chatter, store)

	if _, err := responder.GenerateResponse(context.Background(), "u1", "now"); err != nil {
		t.Fatalf("GenerateResponse failed: %v", err)
	}

	if len(chatter.gotHistory) != 1 || chatter.gotHistory[0].Human != "earlier" {
		t.Errorf("Chatter did not receive prior history: %+v", chatter.gotHistory)
	}
	if chatter.gotQuery != "now" {
		t.Errorf("Expected query %q, got %q", "now", chatter.gotQuery)
	}
}

func TestGenerateResponse_StorageReadFailureAbortsTurn(t *testing.T) {
	store := newFakeChatStore()
	store.retrieveErr = errors.New("disk gone")
	chatter := &fakeChatter{answer: "unused"}
	responder := NewResponder(chatter, store)

	if _, err := responder.GenerateResponse(context.Background(), "u1", "hi"); err == nil {
		t.Fatal("Expected storage error to surface")
	}
	if chatter.gotQuery != "" {
		t.Error("Model must not be called when history read fails")
	}
}
