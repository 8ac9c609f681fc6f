package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/ai"
	"github.com/xxxsen/concierge/internal/chat"
	"github.com/xxxsen/concierge/internal/config"
	"github.com/xxxsen/concierge/internal/db"
	"github.com/xxxsen/concierge/internal/embedcache"
	"github.com/xxxsen/concierge/internal/extract"
	"github.com/xxxsen/concierge/internal/filestore"
	"github.com/xxxsen/concierge/internal/job"
	"github.com/xxxsen/concierge/internal/rag"
	"github.com/xxxsen/concierge/internal/repo"
	"github.com/xxxsen/concierge/internal/schedule"
	"github.com/xxxsen/concierge/internal/service"
	"github.com/xxxsen/concierge/internal/session"
)

type pipeline struct {
	store    *rag.Store
	embedder *ai.TieredEmbedder
	ingestor *rag.Ingestor
}

type app struct {
	db        *sql.DB
	redis     *redis.Client
	manager   *ai.Manager
	chats     *service.ChatService
	documents *service.DocumentService
	scheduler *schedule.CronScheduler
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logutil.GetLogger(ctx)
	a := &app{scheduler: schedule.NewCronScheduler()}

	if cfg.Database.Enabled() {
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.ApplyMigrations(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.db = conn
	} else {
		log.Warn("database not configured, bookings will not be persisted")
	}

	var cacheRepo *repo.EmbeddingCacheRepo
	if a.db != nil {
		cacheRepo = repo.NewEmbeddingCacheRepo(a.db)
	}
	pipe, err := buildPipeline(ctx, cfg, cacheRepo)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager, err = buildManager(cfg.AI)
	if err != nil {
		a.Close()
		return nil, err
	}
	answerer := rag.NewAnswerer(pipe.store, pipe.embedder, a.manager, rag.AnswererConfig{
		TopK:           cfg.RAG.TopK,
		PromptMessages: cfg.Chat.ContextMessages,
	})
	router := chat.NewRouter(answerer, chat.RouterConfig{
		HistoryLimit:   cfg.Chat.HistoryLimit,
		PromptMessages: cfg.Chat.ContextMessages,
		TopK:           cfg.RAG.TopK,
	})

	sessions, err := a.buildSessions(ctx, cfg.Session)
	if err != nil {
		a.Close()
		return nil, err
	}

	var mailer service.EmailSender
	if cfg.Mail.Enabled() {
		mailer = service.NewEmailSender(cfg.Mail)
	} else {
		log.Warn("mail not configured, confirmation emails are disabled")
	}
	var (
		bookings *service.BookingService
		uploads  service.UploadRecorder
	)
	if a.db != nil {
		bookings = service.NewBookingService(repo.NewCustomerRepo(a.db), repo.NewBookingRepo(a.db), mailer)
		uploads = repo.NewDocumentUploadRepo(a.db)
	} else {
		bookings = service.NewBookingService(nil, nil, mailer)
	}
	a.chats = service.NewChatService(router, sessions, bookings, cfg.Chat.HistoryLimit)

	files, err := filestore.New(cfg.FileStore)
	if errors.Is(err, filestore.ErrDisabled) {
		files, err = nil, nil
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	a.documents = service.NewDocumentService(pipe.ingestor, pipe.store, files, uploads, int64(cfg.RAG.MaxUploadMB)*1024*1024)

	if cacheRepo != nil {
		if err := a.scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.EmbeddingCacheMaxAgeDays), cfg.Jobs.EmbeddingCacheCleanup); err != nil {
			a.Close()
			return nil, err
		}
	}
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	if err := a.scheduler.AddJob(job.NewSessionCleanupJob(sessions, sessionTTL), cfg.Jobs.SessionCleanup); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) buildSessions(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if cfg.Type != "redis" {
		return session.NewMemoryStore(ttl), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client
	return session.NewRedisStore(client, ttl), nil
}

// buildPipeline wires extraction, chunking and tiered embedding. cacheRepo
// may be nil, in which case remote embeddings are only cached in memory.
func buildPipeline(ctx context.Context, cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (*pipeline, error) {
	if cfg.PDF.LicenseKey != "" {
		if err := extract.SetPDFLicense(cfg.PDF.LicenseKey); err != nil {
			return nil, err
		}
	} else {
		logutil.GetLogger(ctx).Warn("pdf.license_key not set, pdf uploads will be rejected")
	}
	chunker, err := rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.AI.Timeout) * time.Second

	var remote ai.IEmbedder
	if p := cfg.AI.Embedding.Provider; p != "" && p != "none" {
		provider, err := ai.NewEmbedProvider(p, cfg.AI.Embedding.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedding provider: %w", err)
		}
		remote = ai.NewEmbedder(provider, cfg.AI.Embedding.Model)
		if cacheRepo != nil && cfg.AI.EmbedCache.DB {
			remote = embedcache.WrapStore(remote, cacheRepo)
		}
		if cfg.AI.EmbedCache.LRUSize > 0 {
			remote = embedcache.WrapLRU(remote, cfg.AI.EmbedCache.LRUSize, time.Duration(cfg.AI.EmbedCache.TTLSeconds)*time.Second)
		}
	}
	var local ai.IBatchEmbedder
	if p := cfg.AI.LocalEmbedding.Provider; p != "" && p != "none" {
		local, err = ai.NewLocalEmbedder(p, cfg.AI.LocalEmbedding.Model, cfg.AI.LocalEmbedding.Data)
		if err != nil {
			return nil, fmt.Errorf("init local embedder: %w", err)
		}
	}
	if remote == nil && local == nil {
		return nil, fmt.Errorf("no embedding model configured")
	}
	logutil.GetLogger(ctx).Info("embedding pipeline ready",
		zap.String("remote", cfg.AI.Embedding.Provider),
		zap.String("remote_model", cfg.AI.Embedding.Model),
		zap.String("local", cfg.AI.LocalEmbedding.Provider),
		zap.String("local_model", cfg.AI.LocalEmbedding.Model),
		zap.Int("chunk_size", cfg.RAG.ChunkSize),
		zap.Int("chunk_overlap", cfg.RAG.ChunkOverlap),
	)
	store := rag.NewStore()
	embedder := ai.NewTieredEmbedder(remote, local, timeout)
	return &pipeline{
		store:    store,
		embedder: embedder,
		ingestor: rag.NewIngestor(store, chunker, embedder, nil),
	}, nil
}

func buildManager(cfg config.AIConfig) (*ai.Manager, error) {
	gen := cfg.Generation
	provider, err := ai.NewProvider(gen.Provider, gen.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	models := make([]string, 0, 1+len(gen.FallbackModels))
	if gen.Model != "" {
		models = append(models, gen.Model)
	}
	fallback := gen.FallbackModels
	if len(fallback) == 0 && gen.Provider == "gemini" {
		fallback = ai.DefaultFallbackModels
	}
	models = append(models, fallback...)
	backends := []ai.Backend{{Provider: provider, Models: models}}
	for _, b := range gen.Backups {
		p, err := ai.NewProvider(b.Provider, b.Data)
		if err != nil {
			return nil, fmt.Errorf("init backup provider %s: %w", b.Provider, err)
		}
		backends = append(backends, ai.Backend{Provider: p, Models: b.Models})
	}
	return ai.NewManager(backends, ai.ManagerConfig{
		Timeout:  time.Duration(cfg.Timeout) * time.Second,
		Discover: gen.Discover,
	}), nil
}
