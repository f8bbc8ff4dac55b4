package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edusync/internal/config"
	"edusync/internal/controller"
	"edusync/internal/remote"
	"edusync/internal/repository"
	"edusync/internal/service"
	"edusync/pkg/database"
	"edusync/pkg/logger"
	"edusync/pkg/monitoring"
	"edusync/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	services *services
}

type repositories struct {
	progress    *repository.ProgressRepository
	wallet      *repository.WalletRepository
	achievement *repository.AchievementRepository
	checkin     *repository.CheckinRepository
}

type services struct {
	queue       *service.PendingQueue
	syncEngine  *service.SyncEngine
	wallet      *service.WalletService
	achievement *service.AchievementService
	progress    *service.ProgressService
}

type controllers struct {
	progress    *controller.ProgressController
	achievement *controller.AchievementController
	wallet      *controller.WalletController
	sync        *controller.SyncController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		progress:    repository.NewProgressRepository(db),
		wallet:      repository.NewWalletRepository(db),
		achievement: repository.NewAchievementRepository(db),
		checkin:     repository.NewCheckinRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	clock := service.NewRealClock()
	notifier := service.LogNotifier{}

	// remote 未启用时各服务走纯本地模式
	var remoteStore remote.Store
	if cfg.Remote.Enabled {
		remoteStore = remote.NewHTTPStore(&cfg.Remote)
	}

	s.queue = service.NewPendingQueue()
	s.syncEngine = service.NewSyncEngine(s.queue, repos.progress, remoteStore, notifier, cfg.Sync, clock)
	s.wallet = service.NewWalletService(db, repos.wallet, repos.achievement, remoteStore, notifier, cfg.Rewards, clock)
	s.achievement = service.NewAchievementService(repos.achievement, repos.wallet, repos.progress, repos.checkin, remoteStore, notifier, cfg.Rewards, clock)
	s.progress = service.NewProgressService(repos.progress, repos.checkin, s.queue, s.syncEngine, s.wallet, s.achievement, cfg.Rewards, clock)

	s.syncEngine.Start()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		progress:    controller.NewProgressController(s.progress),
		achievement: controller.NewAchievementController(s.achievement, s.wallet),
		wallet:      controller.NewWalletController(s.wallet),
		sync:        controller.NewSyncController(s.syncEngine),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	router.Use(monitoring.MetricsMiddleware())
}

// ReloadConfig 配置热更新：目前只接管同步引擎的调度参数
func (a *App) ReloadConfig(cfg *config.Config) {
	a.services.syncEngine.UpdateConfig(cfg.Sync)
	logger.Log.Info("sync config reloaded",
		zap.Duration("debounce", cfg.Sync.DebounceInterval),
		zap.Int("maxAttempts", cfg.Sync.MaxAttempts),
	)
}

// SyncEngine 暴露给 main 做冷启动水合
func (a *App) SyncEngine() *service.SyncEngine {
	return a.services.syncEngine
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("edusync", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先停调度循环再同步排空，推不动的留在本地等下次启动
	a.services.syncEngine.Stop()
	a.services.syncEngine.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
