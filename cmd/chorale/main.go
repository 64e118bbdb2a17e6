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
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/mont-sinai/chorale/internal/config"
	"github.com/mont-sinai/chorale/internal/db"
	"github.com/mont-sinai/chorale/internal/filestore"
	"github.com/mont-sinai/chorale/internal/handler"
	"github.com/mont-sinai/chorale/internal/job"
	"github.com/mont-sinai/chorale/internal/middleware"
	"github.com/mont-sinai/chorale/internal/otp"
	"github.com/mont-sinai/chorale/internal/repo"
	"github.com/mont-sinai/chorale/internal/schedule"
	"github.com/mont-sinai/chorale/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "chorale",
		Short: "chorale backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run chorale server",
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

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("redis", cfg.Redis.Addr),
		zap.String("file_store", cfg.FileStore.Type),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	userRepo := repo.NewUserRepo(database)
	catalogueRepo := repo.NewCatalogueRepo(database)
	categoryRepo := repo.NewCategoryRepo(database)
	subCategoryRepo := repo.NewSubCategoryRepo(database)
	plancheRepo := repo.NewPlancheRepo(database)

	codeStore := otp.NewStore(redisClient)
	mailSender := service.NewEmailSender(cfg.Mail)
	authService := service.NewAuthService(
		userRepo,
		codeStore,
		mailSender,
		otp.GenerateCode,
		[]byte(cfg.JWT.AccessSecret),
		[]byte(cfg.JWT.RefreshSecret),
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLHours)*time.Hour,
	)
	userService := service.NewUserService(userRepo)
	catalogueService := service.NewCatalogueService(catalogueRepo, categoryRepo, subCategoryRepo, plancheRepo)
	plancheService, err := service.NewPlancheService(plancheRepo, subCategoryRepo)
	if err != nil {
		return fmt.Errorf("init planche service: %w", err)
	}

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Users:         handler.NewUserHandler(userService),
		Categories:    handler.NewCategoryHandler(catalogueService),
		SubCategories: handler.NewSubCategoryHandler(catalogueService),
		Planches:      handler.NewPlancheHandler(plancheService, store),
		Files:         handler.NewFileHandler(store),
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			middleware.Metrics(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSignupCleanupJob(userRepo, cfg.Cleanup.UnverifiedMaxDays), cfg.Cleanup.Spec); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
