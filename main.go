package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"vectorstore-rag/application"
	"vectorstore-rag/domain"
	"vectorstore-rag/infrastructure"
	"vectorstore-rag/infrastructure/embedding"
	"vectorstore-rag/infrastructure/vectorstore"
)

// main is the entry point of the vectorstore-rag application. It loads the
// configuration, selects the vector store backend and the AI collaborators,
// ingests the configured document sources, and then runs the chat service
// until a shutdown signal is received. All configuration errors are fatal
// before any traffic is accepted.
func main() {
	_ = godotenv.Load(".env.local")

	var cfgPath string
	var debug bool
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to the YAML config file")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	logger, err := infrastructure.NewLogger(debug)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := infrastructure.LoadConfig(cfgPath)
	if err != nil {
		logger.Error("configuration error", zap.Error(err))
		os.Exit(1)
	}

	// One process-wide cooperative shutdown signal, passed explicitly into
	// every long-running loop.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *infrastructure.Config, logger *zap.Logger) error {
	dimensions := cfg.AI.Embedding.Dimensions

	store, err := newVectorStore(cfg, dimensions, logger)
	if err != nil {
		return err
	}
	embedder, err := newEmbeddingClient(cfg, dimensions)
	if err != nil {
		return err
	}
	chat, err := newChatClient(cfg)
	if err != nil {
		return err
	}

	if len(cfg.Rag.Sources) > 0 {
		loader := application.NewDataLoaderService(
			domain.NewTextChunker(cfg.Rag.ChunkSize, cfg.Rag.ChunkOverlap),
			embedder,
			domain.NewGUIDKeyGenerator(),
			store,
			cfg.Rag.BatchSize,
			logger,
		)
		sources := make([]application.DocumentSource, 0, len(cfg.Rag.Sources))
		for _, path := range cfg.Rag.Sources {
			source, err := application.FileSource(path)
			if err != nil {
				return err
			}
			sources = append(sources, source)
		}
		report, err := loader.Load(ctx, sources)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		logger.Info("ingestion report",
			zap.Int("documents", report.Documents),
			zap.Int("snippets", report.Snippets),
			zap.Int("stored", report.Stored),
			zap.Int("skipped", report.Skipped),
			zap.Bool("completed", report.Completed))
	}

	service := application.NewRagChatService(
		store,
		embedder,
		chat,
		application.NewConsoleUserMessageProvider(),
		cfg.Rag.TopK,
		logger,
		os.Stdout,
	)
	return service.Run(ctx)
}

// newVectorStore dispatches on the configured backend variant. An
// unsupported variant is a startup-fatal configuration error.
func newVectorStore(cfg *infrastructure.Config, dimensions int, logger *zap.Logger) (domain.VectorStore[string], error) {
	switch cfg.VectorStore.Type {
	case infrastructure.VectorStoreMemory:
		return vectorstore.NewMemoryStore[string](dimensions)
	case infrastructure.VectorStoreQdrant:
		return vectorstore.NewQdrantClient(cfg.VectorStore.Qdrant.Addr, cfg.VectorStore.Collection, dimensions, logger)
	default:
		return nil, fmt.Errorf("vector store type %q is not supported", cfg.VectorStore.Type)
	}
}

func newEmbeddingClient(cfg *infrastructure.Config, dimensions int) (domain.EmbeddingClient, error) {
	switch cfg.AI.Embedding.Provider {
	case infrastructure.ProviderOpenAI:
		return embedding.NewOpenAIEmbeddingClient(cfg.AI.Embedding.Model, dimensions)
	case infrastructure.ProviderOllama:
		return infrastructure.NewOllamaClient(cfg.AI.Embedding.BaseURL, cfg.AI.Embedding.Model, dimensions)
	default:
		return nil, fmt.Errorf("embedding provider %q is not supported", cfg.AI.Embedding.Provider)
	}
}

func newChatClient(cfg *infrastructure.Config) (domain.ChatClient, error) {
	switch cfg.AI.Chat.Provider {
	case infrastructure.ProviderAnthropic:
		return infrastructure.NewAnthropicClient(cfg.AI.Chat.Model, cfg.AI.Chat.MaxTokens)
	case infrastructure.ProviderOllama:
		return infrastructure.NewOllamaClient(cfg.AI.Chat.BaseURL, cfg.AI.Chat.Model, 0)
	default:
		return nil, fmt.Errorf("chat provider %q is not supported", cfg.AI.Chat.Provider)
	}
}
