// Package knowledge implements the retrieval-augmented chat core: token
// budgeting for prompt assembly, document ingest, and the per-turn
// orchestration that ties history, retrieval and the model together.
package knowledge

import (
	"strings"

	"github.com/tmc/langchaingo/schema"

	"github.com/Desarso/agrichat/stores"
	"github.com/Desarso/agrichat/tokens"
)

// FormatMessages serializes chat history into a prompt block that fits the
// token limit. Pairs are walked oldest-first; the scan stops at the first pair
// whose inclusion would exceed the limit, excluding it and everything after
// it. In humanOnly mode only the human line of each pair is counted and kept.
// Accepted pairs are joined with blank lines in their original order.
func FormatMessages(pairs []stores.ChatPair, limit int, counter tokens.Counter, humanOnly bool, aiName string) string {
	var blocks []string
	tokensUsed := 0

	for _, pair := range pairs {
		humanLine := "Human: " + pair.Human
		aiLine := aiName + ": " + pair.AI

		newTokensUsed := tokensUsed + counter.Count(humanLine)
		if !humanOnly {
			newTokensUsed += counter.Count(aiLine)
		}
		if newTokensUsed > limit {
			break
		}

		if humanOnly {
			blocks = append(blocks, humanLine)
		} else {
			blocks = append(blocks, humanLine+"\n\n"+aiLine)
		}
		tokensUsed = newTokensUsed
	}

	return strings.Join(blocks, "\n\n")
}

// ReduceBelowLimit trims ranked passages to the token limit by dropping from
// the tail, so the most relevant (front) passages survive. A non-empty input
// is never emptied: a single passage over the limit passes through unchanged.
func ReduceBelowLimit(docs []schema.Document, limit int, counter tokens.Counter) []schema.Document {
	costs := make([]int, len(docs))
	tokenCount := 0
	for i, doc := range docs {
		costs[i] = counter.Count(doc.PageContent)
		tokenCount += costs[i]
	}

	numDocs := len(docs)
	for numDocs > 1 && tokenCount > limit {
		numDocs--
		tokenCount -= costs[numDocs]
	}

	return docs[:numDocs]
}

// JoinPassages concatenates passage texts with blank-line separators, in the
// order given.
func JoinPassages(docs []schema.Document) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n\n")
}
