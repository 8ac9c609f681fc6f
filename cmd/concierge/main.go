package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/config"
	"github.com/xxxsen/concierge/internal/handler"
	"github.com/xxxsen/concierge/internal/middleware"
	"github.com/xxxsen/concierge/internal/rag"
	"github.com/xxxsen/concierge/internal/watcher"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "concierge",
		Short: "document question answering and booking assistant",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "extract, chunk and embed files once and print the outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg, args)
		},
	}

	rootCmd.AddCommand(runCmd, ingestCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logutil.GetLogger(ctx)

	app, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(app.chats),
		Documents:     handler.NewDocumentHandler(app.documents, int64(cfg.RAG.MaxUploadMB)*1024*1024),
		ChatRateLimit: time.Duration(cfg.Chat.RateLimitMS) * time.Millisecond,
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	app.scheduler.Start(ctx)
	defer app.scheduler.Stop()

	watchDone := make(chan struct{})
	if cfg.RAG.WatchDir != "" {
		w, err := watcher.New(cfg.RAG.WatchDir, app.documents, watcher.DefaultDebounce)
		if err != nil {
			return err
		}
		go func() {
			defer close(watchDone)
			_ = w.Run(ctx)
		}()
		log.Info("watching folder", zap.String("dir", cfg.RAG.WatchDir))
	} else {
		close(watchDone)
	}

	log.Info("http server listening",
		zap.String("addr", addr),
		zap.Strings("models", app.manager.Models()),
		zap.String("session_store", cfg.Session.Type),
		zap.Bool("database", app.db != nil),
	)
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	<-watchDone
	return nil
}

func runIngest(ctx context.Context, cfg *config.Config, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pipe, err := buildPipeline(ctx, cfg, nil)
	if err != nil {
		return err
	}
	docs := make([]rag.Document, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		docs = append(docs, rag.Document{Name: filepath.Base(p), Body: f})
	}
	res, err := pipe.ingestor.Ingest(ctx, docs)
	if err != nil {
		return err
	}
	out := struct {
		*rag.IngestResult
		Stats      rag.StoreStats `json:"stats"`
		PrimaryErr string         `json:"primary_error,omitempty"`
	}{IngestResult: res, Stats: pipe.store.Stats()}
	if res.Outcome.PrimaryErr != nil {
		out.PrimaryErr = res.Outcome.PrimaryErr.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
