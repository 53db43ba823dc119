package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/schema"

	"github.com/Desarso/agrichat/llm"
	"github.com/Desarso/agrichat/stores"
)

type fakeRetriever struct {
	docs      []schema.Document
	searchErr error
	lastQuery string
	lastK     int
}

func (f *fakeRetriever) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = "id"
	}
	return ids, nil
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int, filter map[string]any) ([]schema.Document, error) {
	f.lastQuery = query
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.docs, nil
}

func (f *fakeRetriever) DeleteIDs(ctx context.Context, ids []string) error  { return nil }
func (f *fakeRetriever) RemoveCollection(ctx context.Context) error         { return nil }

type fakeCaller struct {
	answer    string
	err       error
	lastParts llm.PromptParts
}

func (f *fakeCaller) Complete(ctx context.Context, parts llm.PromptParts) (string, error) {
	f.lastParts = parts
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestChat_UsesHumanOnlyHistoryInRetrievalQuery(t *testing.T) {
	retriever := &fakeRetriever{docs: docsOf("passage")}
	caller := &fakeCaller{answer: "answer"}
	manager := NewManager(retriever, caller, flatCounter(1), Options{})

	history := []stores.ChatPair{{Human: "old question", AI: "old answer"}}
	if _, err := manager.Chat(context.Background(), "new question", history); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if !strings.Contains(retriever.lastQuery, "Human: old question") {
		t.Errorf("Retrieval query missing human history: %q", retriever.lastQuery)
	}
	if strings.Contains(retriever.lastQuery, "old answer") {
		t.Errorf("Retrieval query must not contain assistant lines: %q", retriever.lastQuery)
	}
	if !strings.HasSuffix(retriever.lastQuery, "Human: new question") {
		t.Errorf("Retrieval query must end with the new question: %q", retriever.lastQuery)
	}
	if retriever.lastK != 5 {
		t.Errorf("Expected default retrieval k=5, got %d", retriever.lastK)
	}
}

func TestChat_BudgetsPassagesBeforeTheModelCall(t *testing.T) {
	retriever := &fakeRetriever{docs: docsOf("p1", "p2", "p3", "p4")}
	caller := &fakeCaller{answer: "answer"}
	// Every string costs 30 tokens; docs limit 65 keeps the first two passages.
	manager := NewManager(retriever, caller, flatCounter(30), Options{DocsLimit: 65})

	if _, err := manager.Chat(context.Background(), "q", nil); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if caller.lastParts.HelpData != "p1\n\np2" {
		t.Errorf("Expected trimmed help data, got %q", caller.lastParts.HelpData)
	}
	if caller.lastParts.Question != "q" {
		t.Errorf("Expected question passed through, got %q", caller.lastParts.Question)
	}
}

func TestChat_RetrievalFailureIsCollaboratorError(t *testing.T) {
	retriever := &fakeRetriever{searchErr: errors.New("connection refused")}
	caller := &fakeCaller{answer: "unused"}
	manager := NewManager(retriever, caller, flatCounter(1), Options{})

	_, err := manager.Chat(context.Background(), "q", nil)
	var collabErr *llm.CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("Expected CollaboratorError, got %v", err)
	}
}

func TestChat_ModelFailurePropagates(t *testing.T) {
	retriever := &fakeRetriever{docs: docsOf("p")}
	caller := &fakeCaller{err: llm.NewCollaboratorError("model completion", errors.New("boom"))}
	manager := NewManager(retriever, caller, flatCounter(1), Options{})

	if _, err := manager.Chat(context.Background(), "q", nil); err == nil {
		t.Fatal("Expected error from failed model call")
	}
}
