package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/ai"
	"github.com/xxxsen/projdesk/internal/config"
	"github.com/xxxsen/projdesk/internal/embedcache"
	"github.com/xxxsen/projdesk/internal/filestore"
	"github.com/xxxsen/projdesk/internal/handler"
	"github.com/xxxsen/projdesk/internal/job"
	"github.com/xxxsen/projdesk/internal/listcache"
	"github.com/xxxsen/projdesk/internal/middleware"
	"github.com/xxxsen/projdesk/internal/repo"
	"github.com/xxxsen/projdesk/internal/schedule"
	"github.com/xxxsen/projdesk/internal/service"
)

type components struct {
	docRepo        *repo.DocumentRepo
	embedCacheRepo *repo.EmbeddingCacheRepo
	aiManager      *ai.Manager
	embedder       service.Embedder
}

func buildAI(cfg *config.Config, database *sql.DB) (*components, error) {
	c := &components{
		docRepo:        repo.NewDocumentRepo(database),
		embedCacheRepo: repo.NewEmbeddingCacheRepo(database),
	}
	wrap := func(e ai.IEmbedder) ai.IEmbedder {
		if cfg.AI.EmbedCache.DB {
			e = embedcache.WrapDB(e, c.embedCacheRepo)
		}
		if cfg.AI.EmbedCache.LRUSize > 0 {
			e = embedcache.WrapLRU(e, cfg.AI.EmbedCache.LRUSize, time.Duration(cfg.AI.EmbedCache.LRUTTLSeconds)*time.Second)
		}
		return e
	}
	manager, err := ai.BuildManager(cfg.AI, wrap)
	if err != nil {
		return nil, fmt.Errorf("init ai: %w", err)
	}
	c.aiManager = manager
	if manager.HasEmbedder() {
		c.embedder = manager
	}
	return c, nil
}

func buildScheduler(cfg *config.Config, c *components) (*schedule.Scheduler, error) {
	scheduler := schedule.New()
	backfill := job.NewEmbeddingBackfillJob(c.docRepo, c.embedder, cfg.Jobs.EmbeddingBackfillBatch)
	cleanup := job.NewEmbeddingCacheCleanupJob(c.embedCacheRepo, cfg.Jobs.EmbeddingCacheMaxAgeDays)
	if cfg.Jobs.EmbeddingBackfill != "" {
		if err := scheduler.Add(backfill, cfg.Jobs.EmbeddingBackfill); err != nil {
			return nil, err
		}
	}
	if cfg.Jobs.EmbeddingCacheCleanup != "" && cfg.AI.EmbedCache.DB {
		if err := scheduler.Add(cleanup, cfg.Jobs.EmbeddingCacheCleanup); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

func runJobOnce(ctx context.Context, cfg *config.Config, database *sql.DB, name string) error {
	c, err := buildAI(cfg, database)
	if err != nil {
		return err
	}
	scheduler, err := buildScheduler(cfg, c)
	if err != nil {
		return err
	}
	ran, err := scheduler.RunNow(ctx, name)
	if err != nil {
		return err
	}
	if !ran {
		return fmt.Errorf("job %s is already running", name)
	}
	return nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logger := logutil.GetLogger(context.Background())
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("list_cache", cfg.ListCache.Type),
		zap.String("context_mode", cfg.Chat.ContextMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildAI(cfg, database)
	if err != nil {
		return err
	}
	projectRepo := repo.NewProjectRepo(database)
	taskRepo := repo.NewTaskRepo(database)
	userRepo := repo.NewUserRepo(database)
	messageRepo := repo.NewChatMessageRepo(database)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	cache, err := listcache.New(ctx, cfg.ListCache)
	if err != nil {
		return fmt.Errorf("init list cache: %w", err)
	}

	ingestService := service.NewIngestService(projectRepo, c.docRepo, store, c.embedder, cache)
	fileService := service.NewFileService(projectRepo, c.docRepo, store, cache)
	chatService := service.NewChatService(projectRepo, c.docRepo, messageRepo, c.aiManager, c.embedder, service.ChatOptions{
		ContextMode: cfg.Chat.ContextMode,
		TopK:        cfg.Chat.TopK,
	})
	projectService := service.NewProjectService(projectRepo, userRepo)
	taskService := service.NewTaskService(projectRepo, taskRepo, userRepo)

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(chatService),
		Files:         handler.NewFileHandler(ingestService, fileService, cfg.UploadMaxBytes),
		Projects:      handler.NewProjectHandler(projectService),
		Tasks:         handler.NewTaskHandler(taskService),
		JWTSecret:     []byte(cfg.JWTSecret),
		ChatRateLimit: time.Duration(cfg.Chat.RateLimitMS) * time.Millisecond,
	}
	if local, ok := store.(*filestore.LocalStore); ok {
		deps.Blobs = handler.NewBlobHandler(local)
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler, err := buildScheduler(cfg, c)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)

	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping")
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(stopCtx)
	return nil
}
