package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdfchat/internal/config"
	"pdfchat/internal/db"
	"pdfchat/internal/embedding"
	"pdfchat/internal/helper"
	"pdfchat/internal/llmservice"
	"pdfchat/internal/parser"
	"pdfchat/internal/rag"
	"pdfchat/internal/server"
	"pdfchat/internal/session"
	"pdfchat/internal/vectordb"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document to ingest")
	namespace := flag.String("namespace", "default", "Vector index namespace for -file/-query")
	query := flag.String("query", "", "Question to answer from the namespace")
	dryRun := flag.Bool("dry-run", false, "Extract and split only, print the chunks")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	if *dryRun {
		if *filePath == "" {
			log.Fatal().Msg("-dry-run requires -file")
		}
		dryRunSplit(cfg, *filePath)
		return
	}

	if *filePath == "" && *query == "" {
		runServer(ctx, cfg)
		return
	}

	r, _, closeStore := buildPipelines(ctx, cfg)
	defer closeStore()

	if *filePath != "" {
		ingestFile(ctx, r, *namespace, *filePath)
	}
	if *query != "" {
		askQuestion(ctx, r, *namespace, *query)
	}
}

// dryRunSplit extracts and splits a document without touching any external
// service, printing the resulting chunks.
func dryRunSplit(cfg *config.Config, filePath string) {
	text, err := parser.Extract(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting document")
	}
	chunks, err := parser.Split(text, filePath, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Error splitting document")
	}
	log.Info().Int("chunks", len(chunks)).Msg("Split document")
	helper.PrettyPrint(chunks)
}

func buildPipelines(ctx context.Context, cfg *config.Config) (*rag.RAG, rag.VectorStore, func()) {
	store, closeStore := buildStore(ctx, cfg)

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	generator, err := llmservice.NewClient(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generation client")
	}
	return rag.NewRAG(store, embedder, generator, cfg), store, closeStore
}

func buildStore(ctx context.Context, cfg *config.Config) (rag.VectorStore, func()) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		store, err := db.Connect(ctx, &cfg.Store)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to postgres store")
		}
		return store, func() { store.Close() }
	default:
		if cfg.Store.Path != "" {
			if err := helper.CreateFolder(cfg.Store.Path); err != nil {
				log.Fatal().Err(err).Msg("Error creating store folder")
			}
		}
		store, err := vectordb.NewChromemStore(cfg.Store.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening chromem store")
		}
		return store, func() {}
	}
}

func ingestFile(ctx context.Context, r *rag.RAG, namespace, filePath string) {
	text, err := parser.Extract(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting document")
	}
	count, err := r.Ingest(ctx, namespace, filePath, text)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	log.Info().Int("chunks", count).Str("namespace", namespace).Msg("Ingestion complete")
}

func askQuestion(ctx context.Context, r *rag.RAG, namespace, query string) {
	response, err := r.Query(ctx, namespace, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

func runServer(ctx context.Context, cfg *config.Config) {
	r, store, closeStore := buildPipelines(ctx, cfg)
	defer closeStore()

	sessions := session.NewManager()
	srv := server.NewServer(r, store, sessions, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("Server stopped")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}
}
