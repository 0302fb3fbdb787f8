package app

import (
	"campus_spirit_backend/internal/config"
	"campus_spirit_backend/internal/controller"
	"campus_spirit_backend/internal/repository"
	"campus_spirit_backend/internal/service"
	"campus_spirit_backend/pkg/database"
	"campus_spirit_backend/pkg/logger"
	"campus_spirit_backend/pkg/monitoring"
	"campus_spirit_backend/pkg/security"
	"campus_spirit_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user      *repository.UserRepository
	pointTx   *repository.PointTransactionRepository
	knowledge *repository.KnowledgeChunkRepository
}

type services struct {
	embedding   *service.EmbeddingService
	knowledge   *service.KnowledgeService
	ai          *service.AIService
	achievement *service.AchievementService
	points      *service.PointsService
	qa          *service.QAService
}

type controllers struct {
	qa        *controller.QAController
	points    *controller.PointsController
	knowledge *controller.KnowledgeController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		pointTx:   repository.NewPointTransactionRepository(db),
		knowledge: repository.NewKnowledgeChunkRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.embedding = service.NewEmbeddingService(cfg.AI)
	s.ai = service.NewAIService(cfg.AI)

	knowledge, err := service.NewKnowledgeService(repos.knowledge, s.embedding, cfg.Retrieval.MaxResults, cfg.Retrieval.MinSimilarity)
	if err != nil {
		return nil, err
	}
	s.knowledge = knowledge

	s.achievement = service.NewAchievementService(db, repos.user, repos.pointTx, cfg.Points.AchievementBonus)
	s.points = service.NewPointsService(db, repos.user, repos.pointTx, s.achievement, rdb, cfg.Points)

	interactionLog := service.NewInteractionLog(filepath.Join(cfg.Logs.Dir, "interactions"))
	s.qa = service.NewQAService(s.ai, s.knowledge, s.points, interactionLog)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		qa:        controller.NewQAController(s.qa),
		points:    controller.NewPointsController(s.points),
		knowledge: controller.NewKnowledgeController(s.knowledge),
		health:    controller.NewHealthController(db, rdb, s.ai),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ReloadConfig 配置文件热更新回调，只刷新可在线调整的参数
func (a *App) ReloadConfig(cfg *config.Config) {
	a.services.knowledge.SetRetrievalTuning(cfg.Retrieval.MaxResults, cfg.Retrieval.MinSimilarity)
	a.services.points.SetPointsConfig(cfg.Points)
	logger.Log.Info("runtime config reloaded",
		zap.Int("retrieval.max_results", cfg.Retrieval.MaxResults),
		zap.Float64("retrieval.min_similarity", cfg.Retrieval.MinSimilarity))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode, cfg.Logs.Dir)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// Redis 故障不阻断启动，排行榜缓存与签到防重降级到数据库
			logger.Log.Warn("Redis unavailable, running without cache", zap.Error(err))
			rdb = nil
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("campus-spirit", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	return app
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
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

	// 等待中断信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
