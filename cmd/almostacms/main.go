package main

import (
	"context"
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

	"github.com/fedro86/almost-a-cms/internal/config"
	"github.com/fedro86/almost-a-cms/internal/filestore"
	"github.com/fedro86/almost-a-cms/internal/generator"
	"github.com/fedro86/almost-a-cms/internal/handler"
	"github.com/fedro86/almost-a-cms/internal/job"
	"github.com/fedro86/almost-a-cms/internal/middleware"
	"github.com/fedro86/almost-a-cms/internal/schedule"
	"github.com/fedro86/almost-a-cms/internal/service"
	"github.com/fedro86/almost-a-cms/internal/socket"
	"github.com/fedro86/almost-a-cms/internal/watch"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "almostacms",
		Short: "JSON content editor backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "serve the editor and regenerate index.html on save",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "regenerate index.html once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			gen, err := newGenerator(cfg, store)
			if err != nil {
				return err
			}
			result, err := gen.Generate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d documents, %d bytes)\n", result.Path, result.Documents, result.Bytes)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json (defaults apply when empty)")
	rootCmd.AddCommand(runCmd, generateCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
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

func openStore(cfg *config.Config) (filestore.Store, error) {
	store, err := filestore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	return filestore.WrapLRUCache(store, cfg.Cache.Size, ttl), nil
}

func newGenerator(cfg *config.Config, store filestore.Store) (*generator.Generator, error) {
	var opts []generator.Option
	if cfg.Index.Publish.Enabled {
		pub, err := generator.NewS3Publisher(cfg.Index.Publish)
		if err != nil {
			return nil, err
		}
		opts = append(opts, generator.WithPublisher(pub))
	}
	gen, err := generator.New(store, cfg.Index, opts...)
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}
	return gen, nil
}

func runServer(cfg *config.Config) error {
	log := logutil.GetLogger(context.Background())
	log.Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.Store.Type),
		zap.String("index", cfg.Index.OutputPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg, store)
	if err != nil {
		return err
	}

	hub := socket.NewHub()
	go hub.Run(ctx)
	gen.OnGenerated(hub.Publish)

	if cfg.Index.Cron != "" {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewIndexJob(gen), cfg.Index.Cron); err != nil {
			return fmt.Errorf("schedule index job: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	if cfg.Watch {
		dir, ok := filestore.LocalDir(store)
		if !ok {
			return fmt.Errorf("watch requires a local store")
		}
		var opts []watch.Option
		if inv, ok := store.(filestore.Invalidator); ok {
			opts = append(opts, watch.WithInvalidator(inv))
		}
		watcher := watch.New(dir, gen, opts...)
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	origins := middleware.NewOriginPolicy(cfg.CORSAllowlist)
	deps := handler.RouterDeps{
		Edits:           handler.NewEditHandler(service.NewEditService(store, gen)),
		Events:          handler.NewEventsHandler(hub, origins),
		RegenerateLimit: middleware.RateLimit(time.Duration(cfg.RegenerateWindowSeconds) * time.Second),
	}
	if assets, ok := filestore.Assets(store); ok {
		deps.Assets = handler.NewAssetHandler(service.NewAssetService(assets, cfg.Assets.MaxBytes))
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(origins),
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/assets/"})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	log.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	return nil
}
