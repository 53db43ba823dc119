package knowledge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Desarso/agrichat/llm"
	"github.com/Desarso/agrichat/stores"
	"github.com/Desarso/agrichat/tokens"
)

// Options tunes the manager's budgets. Zero values take the defaults below.
type Options struct {
	ConversationLimit int    // token budget for serialized chat history
	DocsLimit         int    // token budget for retrieved passages
	ChunkSize         int    // character chunk size for ingest splitting
	RetrievalK        int    // passages requested per retrieval query
	AIName            string // assistant display name in formatted history
}

func (o Options) withDefaults() Options {
	if o.ConversationLimit <= 0 {
		o.ConversationLimit = 800
	}
	if o.DocsLimit <= 0 {
		o.DocsLimit = 3000
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 2000
	}
	if o.RetrievalK <= 0 {
		o.RetrievalK = 5
	}
	if o.AIName == "" {
		o.AIName = llm.DefaultAIName
	}
	return o
}

// Manager runs one retrieval-augmented chat turn and owns the ingest pipeline
// for reference documents. It holds no per-turn state; every turn works from
// the history it is handed.
type Manager struct {
	retriever Retriever
	caller    llm.Caller
	counter   tokens.Counter
	splitter  textsplitter.RecursiveCharacter
	opts      Options
}

// NewManager wires the collaborators into a manager.
func NewManager(retriever Retriever, caller llm.Caller, counter tokens.Counter, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		retriever: retriever,
		caller:    caller,
		counter:   counter,
		splitter:  textsplitter.NewRecursiveCharacter(textsplitter.WithChunkSize(opts.ChunkSize)),
		opts:      opts,
	}
}

// Chat answers one query against the given history. It budgets the
// conversation, retrieves reference passages with a human-only variant of the
// history as the query, budgets those, and calls the model. Any collaborator
// failure aborts the turn; nothing is persisted here.
func (m *Manager) Chat(ctx context.Context, query string, history []stores.ChatPair) (string, error) {
	conversation := FormatMessages(history, m.opts.ConversationLimit, m.counter, false, m.opts.AIName)

	combined := FormatMessages(history, m.opts.ConversationLimit, m.counter, true, m.opts.AIName) +
		"\n" + "Human: " + query

	docs, err := m.retriever.Search(ctx, combined, m.opts.RetrievalK, nil)
	if err != nil {
		return "", llm.NewCollaboratorError("retrieval", err)
	}

	docs = ReduceBelowLimit(docs, m.opts.DocsLimit, m.counter)
	log.Debug().Int("passages", len(docs)).Msg("Assembled help data for turn")

	answer, err := m.caller.Complete(ctx, llm.PromptParts{
		HelpData:     JoinPassages(docs),
		Conversation: conversation,
		Question:     query,
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

// LoadAndIngestFile loads a source file, splits it, tags every chunk with the
// metadata, and upserts the chunks into the vector collection. It returns the
// joined chunk text, the vector IDs in chunk order, and the raw file bytes.
func (m *Manager) LoadAndIngestFile(ctx context.Context, path string, metadata map[string]any) (string, []string, []byte, error) {
	contents, docs, raw, err := loadData(ctx, path, m.splitter)
	if err != nil {
		return "", nil, nil, err
	}

	docs = addMetadataToDocs(metadata, docs)

	ids, err := m.retriever.AddDocuments(ctx, docs)
	if err != nil {
		return "", nil, nil, llm.NewCollaboratorError("document ingest", err)
	}

	log.Info().Str("path", path).Int("vectors", len(ids)).Msg("File ingested")
	return contents, ids, raw, nil
}

// DeleteVectors removes the given vector IDs from the collection.
func (m *Manager) DeleteVectors(ctx context.Context, ids []string) error {
	if err := m.retriever.DeleteIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// DeleteCollection drops the whole vector collection.
func (m *Manager) DeleteCollection(ctx context.Context) error {
	return m.retriever.RemoveCollection(ctx)
}
