package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// loadData reads a source file, splits it into chunks, and returns the joined
// chunk text, the chunk documents, and the original raw bytes.
func loadData(ctx context.Context, path string, splitter textsplitter.TextSplitter) (string, []schema.Document, []byte, error) {
	log.Info().Str("path", path).Msg("Loading file")

	f, err := os.Open(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var loader documentloaders.Loader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		loader = documentloaders.NewPDF(f, info.Size())
	default:
		loader = documentloaders.NewText(f)
	}

	docs, err := loader.LoadAndSplit(ctx, splitter)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("chunks", len(docs)).Msg("Documents loaded")

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return JoinPassages(docs), docs, raw, nil
}

// addMetadataToDocs attaches the metadata to every chunk so retrieval filters
// can select by source file.
func addMetadataToDocs(metadata map[string]any, docs []schema.Document) []schema.Document {
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			docs[i].Metadata[k] = v
		}
	}
	return docs
}
