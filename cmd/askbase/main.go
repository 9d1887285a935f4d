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
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/askbase/askbase/internal/ai"
	"github.com/askbase/askbase/internal/config"
	"github.com/askbase/askbase/internal/db"
	"github.com/askbase/askbase/internal/embedcache"
	"github.com/askbase/askbase/internal/filestore"
	"github.com/askbase/askbase/internal/handler"
	"github.com/askbase/askbase/internal/job"
	"github.com/askbase/askbase/internal/middleware"
	"github.com/askbase/askbase/internal/rag"
	"github.com/askbase/askbase/internal/repo"
	"github.com/askbase/askbase/internal/schedule"
	"github.com/askbase/askbase/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "askbase",
		Short: "askbase document-grounded chat server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run askbase server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	threadRepo := repo.NewThreadRepo(conn)
	messageRepo := repo.NewMessageRepo(conn)
	documentRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(provider, cfg.AI.ChatModel)
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewEmbedder(provider, cfg.AI.EmbedModel),
		cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTL)*time.Minute,
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	memory := rag.NewMemory(messageRepo, generator, cfg.Pipeline.SummarizeTrigger, cfg.Pipeline.SummarizeKeep)
	rewriter := rag.NewRewriter(generator, cfg.Pipeline.RewriteWindow)
	retriever := rag.NewRetriever(embedder, chunkRepo, cfg.AI.EmbedDim)
	pipeline := rag.NewPipeline(memory, rewriter, retriever, generator, rag.PipelineConfig{
		TopK: cfg.Pipeline.TopK,
		Timeouts: rag.Timeouts{
			Embed:     time.Duration(cfg.AI.EmbedTimeout) * time.Second,
			Rewrite:   time.Duration(cfg.AI.RewriteTimeout) * time.Second,
			Summarize: time.Duration(cfg.AI.SummarizeTimeout) * time.Second,
			Generate:  time.Duration(cfg.AI.GenerateTimeout) * time.Second,
		},
		ThreadStateTTL: time.Duration(cfg.Pipeline.ThreadStateTTL) * time.Minute,
	})

	embedTimeout := time.Duration(cfg.AI.EmbedTimeout) * time.Second
	chatService := service.NewChatService(pipeline, threadRepo, messageRepo)
	ingestService := service.NewIngestService(chunkRepo, ai.NewChunker(), embedder, store, embedTimeout)
	documentService := service.NewDocumentService(documentRepo, store)
	threadService := service.NewThreadService(threadRepo, messageRepo, documentRepo, store)

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(chatService),
		Documents:     handler.NewDocumentHandler(ingestService, documentService),
		Threads:       handler.NewThreadHandler(threadService),
		Files:         handler.NewFileHandler(documentService),
		ChatRateLimit: time.Duration(cfg.Pipeline.RateLimitMS) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(
		job.NewEmbeddingBackfillJob(chunkRepo, embedder, 64, embedTimeout),
		cfg.Jobs.EmbeddingBackfillCron,
	); err != nil {
		return err
	}
	retention := time.Duration(cfg.Jobs.ThreadRetentionDays) * 24 * time.Hour
	if err := scheduler.AddJob(
		job.NewThreadCleanupJob(threadRepo, threadService, retention, 100),
		cfg.Jobs.ThreadCleanupCron,
	); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
