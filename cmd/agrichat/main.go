package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Desarso/agrichat"
	"github.com/Desarso/agrichat/knowledge"
	"github.com/Desarso/agrichat/llm"
	"github.com/Desarso/agrichat/server"
	"github.com/Desarso/agrichat/stores"
	"github.com/Desarso/agrichat/tokens"
	"github.com/Desarso/agrichat/transcribe"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := agrichat.LoadConfigFromEnv()

	store, err := stores.NewStore(stores.NewStoreConfig(cfg.StoreType, cfg.StoreConnection))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	ctx := context.Background()

	embedder, err := knowledge.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedder")
	}
	retriever, err := knowledge.NewPGVectorRetriever(ctx, cfg.VectorURL, cfg.Collection, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect vector store")
	}
	defer retriever.Close()

	var caller llm.Caller
	switch cfg.Provider {
	case "gemini":
		caller, err = llm.NewGeminiCaller(ctx, cfg.ChatModel, cfg.AIName)
	default:
		caller, err = llm.NewOpenAICaller(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.AIName)
	}
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Provider).Msg("Failed to create model caller")
	}

	counter := tokens.TiktokenCounter{Model: cfg.ChatModel}
	km := knowledge.NewManager(retriever, caller, counter, knowledge.Options{
		ConversationLimit: cfg.ConversationLimit,
		DocsLimit:         cfg.DocsLimit,
		ChunkSize:         cfg.ChunkSize,
		RetrievalK:        cfg.RetrievalK,
		AIName:            cfg.AIName,
	})
	responder := agrichat.NewResponder(km, store)
	transcriber := transcribe.NewWhisperTranscriber(cfg.OpenAIAPIKey)

	srv := server.NewServer(store, responder, km, transcriber)
	scheduler := srv.StartMaintenance()
	defer scheduler.Stop()

	go func() {
		if err := srv.Run(cfg.Addr); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")
}
