package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docmind/internal/api"
	"docmind/internal/auth"
	"docmind/internal/config"
	"docmind/internal/database/milvus"
	"docmind/internal/database/minio"
	"docmind/internal/database/mysql"
	"docmind/internal/llm"
	"docmind/internal/rag"
	"docmind/internal/rag/embeddings"
	"docmind/internal/rag/pipeline"
	"docmind/internal/rag/vectorstore"
	"docmind/internal/store"
	"docmind/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Configuration
	configPath := os.Getenv("DOCMIND_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("DocMind")
	appLogger.Info("Starting DocMind...")

	// 3. Storage backends
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	st := store.NewStore(db)
	if err := st.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	ctx := context.Background()
	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Milvus collection: %v", err)
	}

	objectStorage, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// 4. Model clients and pipeline
	embedder := embeddings.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.EmbeddingDim)
	chatClient := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, cfg.Chat.MaxTokens, 0.3)

	vectors, err := vectorstore.NewMilvusStore(milvusClient, logger.New("MilvusStore"))
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}

	indexer := pipeline.NewIndexer(embedder, vectors, st,
		cfg.Chunking.WindowWords, cfg.Chunking.OverlapWords, logger.New("Indexer"))
	retriever := pipeline.NewRetriever(embedder, vectors, st, cfg.Chat.TopK, logger.New("Retriever"))
	assembler, err := pipeline.NewAssembler(cfg.Chat.HistoryWindow, cfg.Chat.ContextTokens)
	if err != nil {
		log.Fatalf("Failed to create assembler: %v", err)
	}
	generator := pipeline.NewGenerator(chatClient, logger.New("Generator"))

	ragService := rag.NewService(st, st, st, indexer, retriever, assembler, generator,
		chatClient, cfg.Chat.HistoryWindow, logger.New("RAG"))

	// 5. HTTP server
	authMgr := auth.NewManager(cfg.Auth.JwtSecret,
		time.Duration(cfg.Auth.AccessTokenTTL)*time.Second,
		time.Duration(cfg.Auth.RefreshTokenTTL)*time.Second)
	server := api.NewServer(cfg, appLogger, st, ragService, vectors, objectStorage, authMgr)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(server, api.AuthMiddleware(authMgr))

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		appLogger.Info("HTTP server listening at " + cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed: " + err.Error())
	}
	if err := mysql.Close(); err != nil {
		appLogger.Error("Database close failed: " + err.Error())
	}
	appLogger.Info("Stopped")
}
