package app

import (
	"answer_bank_backend/internal/config"
	"answer_bank_backend/internal/controller"
	"answer_bank_backend/internal/middleware"
	"answer_bank_backend/internal/repository"
	"answer_bank_backend/internal/service"
	"answer_bank_backend/pkg/configwatcher"
	"answer_bank_backend/pkg/database"
	"answer_bank_backend/pkg/logger"
	"answer_bank_backend/pkg/monitoring"
	"answer_bank_backend/pkg/security"
	"answer_bank_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	tracer   *sdktrace.TracerProvider
}

type repositories struct {
	question *repository.QuestionRepository
	answer   *repository.AnswerRepository
	store    *repository.Store
}

type services struct {
	search     *service.SearchService
	answer     *service.AnswerService
	quality    *service.QualityService
	ai         *service.AIService
	correction *service.CorrectionTracker
}

type controllers struct {
	search     *controller.SearchController
	answer     *controller.AnswerController
	correction *controller.CorrectionController
	quality    *controller.QualityController
	ai         *controller.AIController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		question: repository.NewQuestionRepository(db),
		answer:   repository.NewAnswerRepository(db),
		store:    repository.NewStore(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.answer = service.NewAnswerService(repos.store)
	s.search = service.NewSearchService(repos.store, rdb, cfg.Search)
	s.quality = service.NewQualityService(repos.store, s.answer)
	s.ai = service.NewAIService(cfg.AI)
	s.correction = service.NewCorrectionTracker()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		search:     controller.NewSearchController(s.search),
		answer:     controller.NewAnswerController(s.answer),
		correction: controller.NewCorrectionController(s.correction),
		quality:    controller.NewQualityController(s.quality),
		ai:         controller.NewAIController(s.ai, s.search, s.answer),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(100000, time.Minute)) // 每分钟100000次请求

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// watchConfig 监听配置文件变更，热更新检索参数
func (a *App) watchConfig(s *services) {
	go configwatcher.WatchConfig("configs/config.yaml", a.Config, func(raw interface{}) {
		newCfg, ok := raw.(*config.Config)
		if !ok {
			return
		}
		s.search.UpdateConfig(newCfg.Search)
		logger.Log.Info("检索参数已热更新",
			zap.Float64("threshold", newCfg.Search.SimilarityThreshold),
			zap.Int("candidate_limit", newCfg.Search.CandidateLimit))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 缓存可降级：Redis 不可用时以无缓存模式启动
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, running without search cache", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("answer-bank", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers)

	app.watchConfig(services)

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release", "test":
		return mode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
